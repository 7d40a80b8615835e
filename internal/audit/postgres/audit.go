package postgres

import (
	"context"

	"github.com/frahmantamala/license-portal/internal/audit"
	auditDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.RepositoryAPI {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry *auditDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*auditDatamodel.AuditLog, error) {
	var rows []*auditDatamodel.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
