package license

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ExpiringWindowDays is the default look-ahead for the expiring bucket.
const ExpiringWindowDays = 30

type Buckets struct {
	Expiring []*License `json:"expiring"`
	Expired  []*License `json:"expired"`
}

type Severity string

const (
	SeverityDestructive Severity = "destructive"
	SeverityInfo        Severity = "info"
)

type Notice struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Count    int      `json:"count"`
}

// DaysUntil is the number of started days between now and t, rounded up.
// Negative once t has passed.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// ComputeExpiryBuckets partitions licenses by expiry. Active licenses land in
// expiring or expired by date; licenses the sweep already marked expired
// always count as expired. Suspended, revoked and unassigned records belong to
// neither bucket. The input is not modified.
func ComputeExpiryBuckets(licenses []*License, now time.Time) Buckets {
	return computeBuckets(licenses, now, ExpiringWindowDays)
}

func computeBuckets(licenses []*License, now time.Time, windowDays int) Buckets {
	b := Buckets{Expiring: []*License{}, Expired: []*License{}}
	for _, l := range licenses {
		if l == nil {
			continue
		}
		if l.Status == StatusExpired {
			b.Expired = append(b.Expired, l)
			continue
		}
		if l.Status != StatusActive {
			continue
		}
		if l.ExpiryDate.Before(now) {
			b.Expired = append(b.Expired, l)
			continue
		}
		if DaysUntil(l.ExpiryDate, now) <= windowDays {
			b.Expiring = append(b.Expiring, l)
		}
	}
	sort.SliceStable(b.Expiring, func(i, j int) bool {
		return b.Expiring[i].ExpiryDate.Before(b.Expiring[j].ExpiryDate)
	})
	return b
}

// RenewalNotice produces at most one notice: expired licenses win over
// expiring ones.
func RenewalNotice(b Buckets, now time.Time) *Notice {
	if n := len(b.Expired); n > 0 {
		noun := "license has"
		if n > 1 {
			noun = "licenses have"
		}
		return &Notice{
			Severity: SeverityDestructive,
			Title:    "Licenses expired",
			Message:  fmt.Sprintf("%d %s expired. Contact your account representative to renew.", n, noun),
			Count:    n,
		}
	}
	if len(b.Expiring) > 0 {
		soonest := b.Expiring[0]
		days := DaysUntil(soonest.ExpiryDate, now)
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		return &Notice{
			Severity: SeverityInfo,
			Title:    "License expiring soon",
			Message:  fmt.Sprintf("Your %s license expires in %d %s.", soonest.ProductName, days, unit),
			Count:    len(b.Expiring),
		}
	}
	return nil
}
