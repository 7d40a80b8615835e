package audit

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	auditDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/audit"
)

const (
	EntityLicense    = "product_license"
	EntityTicket     = "support_ticket"
	EntityUser       = "user"
	EntityCatalog    = "license_catalog"
	EntityAccount    = "crm_account"
	EntityContact    = "crm_contact"
	EntityDeal       = "crm_deal"
	EntityActivity   = "crm_activity"
	EntityOnboarding = "customer_onboarding"

	DefaultLimit = 20
	MaxLimit     = 100
)

// Entry is one audit_log row. OldValues and NewValues hold any JSON
// serializable snapshot.
type Entry struct {
	ID         int64           `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	ActorID    *int64          `json:"actor_id,omitempty"`
	ActorEmail string          `json:"actor_email"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewEntry snapshots oldValues and newValues for the given actor.
func NewEntry(entityType string, entityID int64, action string, actor *internal.Principal, oldValues, newValues interface{}) (Entry, error) {
	e := Entry{
		EntityType: entityType,
		EntityID:   strconv.FormatInt(entityID, 10),
		Action:     action,
	}
	if actor != nil {
		e.ActorEmail = actor.Email
		if actor.ID != 0 {
			id := actor.ID
			e.ActorID = &id
		}
	}

	var err error
	if e.OldValues, err = marshalValues(oldValues); err != nil {
		return Entry{}, err
	}
	if e.NewValues, err = marshalValues(newValues); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func marshalValues(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// ClampLimit applies the default page size and the upper bound.
func ClampLimit(limit, def int) int {
	if def <= 0 || def > MaxLimit {
		def = DefaultLimit
	}
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func ToDataModel(e *Entry) *auditDatamodel.AuditLog {
	return &auditDatamodel.AuditLog{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		OldValues:  []byte(e.OldValues),
		NewValues:  []byte(e.NewValues),
		CreatedAt:  e.CreatedAt,
	}
}

func FromDataModel(m *auditDatamodel.AuditLog) *Entry {
	return &Entry{
		ID:         m.ID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		ActorID:    m.ActorID,
		ActorEmail: m.ActorEmail,
		OldValues:  json.RawMessage(m.OldValues),
		NewValues:  json.RawMessage(m.NewValues),
		CreatedAt:  m.CreatedAt,
	}
}
