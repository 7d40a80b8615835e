package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLicenseIssued        = "license.issued"
	EventTypeLicenseStatusChanged = "license.status_changed"
	EventTypeLicenseUpdated       = "license.updated"
	EventTypeTicketUpdated        = "ticket.updated"
	EventTypeTicketFlagged        = "ticket.flagged"
	EventTypeTicketEscalated      = "ticket.escalated"
)

// Types lists every event type the portal emits.
func Types() []string {
	return []string{
		EventTypeLicenseIssued,
		EventTypeLicenseStatusChanged,
		EventTypeLicenseUpdated,
		EventTypeTicketUpdated,
		EventTypeTicketFlagged,
		EventTypeTicketEscalated,
	}
}

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewEvent builds an untyped event, used for diagnostics.
func NewEvent(eventType string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return newBase(eventType, data)
}

type LicenseIssuedEvent struct {
	BaseEvent
	LicenseID   int64  `json:"license_id"`
	LicenseKey  string `json:"license_key"`
	ProductName string `json:"product_name"`
	AssignedTo  string `json:"assigned_to"`
	Demo        bool   `json:"demo"`
}

func NewLicenseIssuedEvent(licenseID int64, key, product, assignedTo string, demo bool) *LicenseIssuedEvent {
	return &LicenseIssuedEvent{
		BaseEvent: newBase(EventTypeLicenseIssued, map[string]interface{}{
			"license_id":   licenseID,
			"license_key":  key,
			"product_name": product,
			"assigned_to":  assignedTo,
			"demo":         demo,
		}),
		LicenseID:   licenseID,
		LicenseKey:  key,
		ProductName: product,
		AssignedTo:  assignedTo,
		Demo:        demo,
	}
}

type LicenseStatusChangedEvent struct {
	BaseEvent
	LicenseID int64  `json:"license_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ActorID   int64  `json:"actor_id"`
}

func NewLicenseStatusChangedEvent(licenseID int64, oldStatus, newStatus string, actorID int64) *LicenseStatusChangedEvent {
	return &LicenseStatusChangedEvent{
		BaseEvent: newBase(EventTypeLicenseStatusChanged, map[string]interface{}{
			"license_id": licenseID,
			"old_status": oldStatus,
			"new_status": newStatus,
			"actor_id":   actorID,
		}),
		LicenseID: licenseID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   actorID,
	}
}

type LicenseUpdatedEvent struct {
	BaseEvent
	LicenseID int64    `json:"license_id"`
	Fields    []string `json:"fields"`
	ActorID   int64    `json:"actor_id"`
}

func NewLicenseUpdatedEvent(licenseID int64, fields []string, actorID int64) *LicenseUpdatedEvent {
	return &LicenseUpdatedEvent{
		BaseEvent: newBase(EventTypeLicenseUpdated, map[string]interface{}{
			"license_id": licenseID,
			"fields":     fields,
			"actor_id":   actorID,
		}),
		LicenseID: licenseID,
		Fields:    fields,
		ActorID:   actorID,
	}
}

// TicketEvent covers every ticket mutation; Type tells them apart.
type TicketEvent struct {
	BaseEvent
	TicketID     int64  `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	Action       string `json:"action"`
	ActorID      int64  `json:"actor_id"`
}

func NewTicketEvent(eventType string, ticketID int64, number, action string, actorID int64) *TicketEvent {
	return &TicketEvent{
		BaseEvent: newBase(eventType, map[string]interface{}{
			"ticket_id":     ticketID,
			"ticket_number": number,
			"action":        action,
			"actor_id":      actorID,
		}),
		TicketID:     ticketID,
		TicketNumber: number,
		Action:       action,
		ActorID:      actorID,
	}
}
