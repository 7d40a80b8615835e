package license

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

var exportHeader = []string{
	"id", "license_key", "product_name", "tier", "assigned_to", "seats", "status",
	"expiry_date", "features", "addons", "max_hosts", "allowed_networks",
	"concurrent_sessions", "usage_hours_limit", "account_id", "is_demo",
}

// WriteCSV writes licenses as CSV with a header row. List values are joined
// with ";".
func WriteCSV(w io.Writer, licenses []*License) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, l := range licenses {
		record := []string{
			strconv.FormatInt(l.ID, 10),
			l.LicenseKey,
			l.ProductName,
			l.TierName,
			l.Assignee(),
			strconv.Itoa(l.Seats),
			string(l.Status),
			l.ExpiryDate.UTC().Format(time.RFC3339),
			strings.Join(l.Features, ";"),
			strings.Join(l.Addons, ";"),
			optInt(l.MaxHosts),
			strings.Join(l.AllowedNetworks, ";"),
			strconv.Itoa(l.ConcurrentSessions),
			optInt(l.UsageHoursLimit),
			optInt64(l.AccountID),
			strconv.FormatBool(l.IsDemo),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optInt64(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
