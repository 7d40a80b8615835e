package audit

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         int64          `gorm:"primaryKey"`
	EntityType string         `gorm:"column:entity_type;not null;index:idx_audit_entity"`
	EntityID   string         `gorm:"column:entity_id;not null;index:idx_audit_entity"`
	Action     string         `gorm:"column:action;not null"`
	ActorID    *int64         `gorm:"column:actor_id"`
	ActorEmail string         `gorm:"column:actor_email"`
	OldValues  datatypes.JSON `gorm:"column:old_values"`
	NewValues  datatypes.JSON `gorm:"column:new_values"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime;index"`
}

func (AuditLog) TableName() string { return "audit_log" }
