package audit

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/license-portal/internal"
	auditDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/audit"
)

type RepositoryAPI interface {
	Append(ctx context.Context, entry *auditDatamodel.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*auditDatamodel.AuditLog, error)
}

// Recorder is what mutating services depend on.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID int64, action string, actor *internal.Principal, oldValues, newValues interface{})
}

type Service struct {
	repo     RepositoryAPI
	pageSize int
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, pageSize int, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		pageSize: ClampLimit(pageSize, DefaultLimit),
		logger:   logger,
	}
}

// Record appends an entry after the audited mutation has been committed. A
// failed append is logged with the entity and does not undo the mutation.
func (s *Service) Record(ctx context.Context, entityType string, entityID int64, action string, actor *internal.Principal, oldValues, newValues interface{}) {
	entry, err := NewEntry(entityType, entityID, action, actor, oldValues, newValues)
	if err != nil {
		s.logger.Error("failed to build audit entry", "entity_type", entityType, "entity_id", entityID, "action", action, "error", err)
		return
	}
	if err := s.repo.Append(ctx, ToDataModel(&entry)); err != nil {
		s.logger.Error("failed to append audit entry", "entity_type", entityType, "entity_id", entityID, "action", action, "error", err)
	}
}

func (s *Service) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*Entry, error) {
	v := newListValidator(entityType, entityID)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListByEntity(ctx, entityType, entityID, ClampLimit(limit, s.pageSize))
	if err != nil {
		s.logger.Error("failed to list audit entries", "entity_type", entityType, "entity_id", entityID, "error", err)
		return nil, internal.NewInternalError("failed to list audit entries", err)
	}

	entries := make([]*Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, FromDataModel(r))
	}
	return entries, nil
}
