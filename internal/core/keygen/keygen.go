package keygen

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// RandomBase36 returns n characters drawn uniformly from [0-9a-z].
func RandomBase36(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < n; i++ {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36[v.Int64()])
	}
	return sb.String(), nil
}

// ProductCode takes the first four letters or digits of a product name,
// upper-cased and padded with X.
func ProductCode(productName string) string {
	var sb strings.Builder
	for _, r := range productName {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
			if sb.Len() == 4 {
				break
			}
		}
	}
	code := sb.String()
	for len(code) < 4 {
		code += "X"
	}
	return code
}

// LicenseKey builds PREFIX-CODE-<base36 millis>-<6 random base36>.
func LicenseKey(prefix, productName string, at time.Time) (string, error) {
	suffix, err := RandomBase36(6)
	if err != nil {
		return "", err
	}
	ts := strconv.FormatInt(at.UnixMilli(), 36)
	return strings.ToUpper(prefix + "-" + ProductCode(productName) + "-" + ts + "-" + suffix), nil
}

func DemoKey(productName string, at time.Time) (string, error) {
	return LicenseKey("DEMO", productName, at)
}

// TicketNumber builds TKT-<yyyymmdd>-<5 random base36>.
func TicketNumber(at time.Time) (string, error) {
	suffix, err := RandomBase36(5)
	if err != nil {
		return "", err
	}
	return "TKT-" + at.UTC().Format("20060102") + "-" + strings.ToUpper(suffix), nil
}
