package license

import (
	"time"

	licenseDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/license"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
	StatusRevoked    Status = "revoked"
	StatusExpired    Status = "expired"
	StatusUnassigned Status = "unassigned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusRevoked, StatusExpired, StatusUnassigned:
		return true
	}
	return false
}

func Statuses() []string {
	return []string{
		string(StatusActive), string(StatusSuspended), string(StatusRevoked),
		string(StatusExpired), string(StatusUnassigned),
	}
}

type Action string

const (
	ActionActivate Action = "activate"
	ActionSuspend  Action = "suspend"
	ActionRevoke   Action = "revoke"
	ActionExtend30 Action = "extend_30"
	ActionExtend90 Action = "extend_90"
	ActionExport   Action = "export"
)

func Actions() []string {
	return []string{
		string(ActionActivate), string(ActionSuspend), string(ActionRevoke),
		string(ActionExtend30), string(ActionExtend90), string(ActionExport),
	}
}

// TargetStatus is the status a status-changing action sets.
func (a Action) TargetStatus() (Status, bool) {
	switch a {
	case ActionActivate:
		return StatusActive, true
	case ActionSuspend:
		return StatusSuspended, true
	case ActionRevoke:
		return StatusRevoked, true
	}
	return "", false
}

// ExtensionDays is the number of days an extend action adds.
func (a Action) ExtensionDays() (int, bool) {
	switch a {
	case ActionExtend30:
		return 30, true
	case ActionExtend90:
		return 90, true
	}
	return 0, false
}

type License struct {
	ID                 int64      `json:"id"`
	LicenseKey         string     `json:"license_key"`
	ProductName        string     `json:"product_name"`
	TierID             *int64     `json:"tier_id"`
	TierName           string     `json:"tier_name,omitempty"`
	AssignedTo         *string    `json:"assigned_to"`
	Seats              int        `json:"seats"`
	ExpiryDate         time.Time  `json:"expiry_date"`
	Status             Status     `json:"status"`
	Features           []string   `json:"features"`
	Addons             []string   `json:"addons"`
	MaxHosts           *int       `json:"max_hosts"`
	AllowedNetworks    []string   `json:"allowed_networks"`
	ConcurrentSessions int        `json:"concurrent_sessions"`
	UsageHoursLimit    *int       `json:"usage_hours_limit"`
	AccountID          *int64     `json:"account_id"`
	IsDemo             bool       `json:"is_demo"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	LastActive         *time.Time `json:"last_active"`
}

// Assignee returns the assigned email or "" for unassigned licenses.
func (l *License) Assignee() string {
	if l.AssignedTo == nil {
		return ""
	}
	return *l.AssignedTo
}

// Extend moves the expiry forward from the current expiry date, even when
// that date is already in the past. Status is left alone.
func (l *License) Extend(days int) {
	l.ExpiryDate = l.ExpiryDate.AddDate(0, 0, days)
}

func ToDataModel(l *License) *licenseDatamodel.ProductLicense {
	return &licenseDatamodel.ProductLicense{
		ID:                 l.ID,
		LicenseKey:         l.LicenseKey,
		ProductName:        l.ProductName,
		TierID:             l.TierID,
		AssignedTo:         l.AssignedTo,
		Seats:              l.Seats,
		ExpiryDate:         l.ExpiryDate,
		Status:             string(l.Status),
		Features:           l.Features,
		Addons:             l.Addons,
		MaxHosts:           l.MaxHosts,
		AllowedNetworks:    l.AllowedNetworks,
		ConcurrentSessions: l.ConcurrentSessions,
		UsageHoursLimit:    l.UsageHoursLimit,
		AccountID:          l.AccountID,
		IsDemo:             l.IsDemo,
		Version:            l.Version,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
		LastActive:         l.LastActive,
	}
}

func FromDataModel(m *licenseDatamodel.ProductLicense) *License {
	l := &License{
		ID:                 m.ID,
		LicenseKey:         m.LicenseKey,
		ProductName:        m.ProductName,
		TierID:             m.TierID,
		AssignedTo:         m.AssignedTo,
		Seats:              m.Seats,
		ExpiryDate:         m.ExpiryDate,
		Status:             Status(m.Status),
		Features:           nonNil(m.Features),
		Addons:             nonNil(m.Addons),
		MaxHosts:           m.MaxHosts,
		AllowedNetworks:    nonNil(m.AllowedNetworks),
		ConcurrentSessions: m.ConcurrentSessions,
		UsageHoursLimit:    m.UsageHoursLimit,
		AccountID:          m.AccountID,
		IsDemo:             m.IsDemo,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		LastActive:         m.LastActive,
	}
	if m.Tier != nil {
		l.TierName = m.Tier.Name
	}
	return l
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
