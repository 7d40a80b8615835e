package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
)

var (
	ErrItemNotFound = internal.NewNotFoundError("catalog item not found", internal.ErrCodeCatalogNotFound)
	ErrItemInactive = internal.NewValidationError("catalog item is not available", internal.ErrCodeCatalogInactive)
	ErrTierNotFound = internal.NewNotFoundError("license tier not found", internal.ErrCodeTierNotFound)
	ErrNoTier       = internal.NewValidationError("no license tier is configured", internal.ErrCodeNoLicenseTier)
	ErrDuplicate    = internal.NewConflictError("an item with this name already exists", internal.ErrCodeValidationFailed)

	// ErrDuplicateKey is returned by repositories on unique violations.
	ErrDuplicateKey = errors.New("duplicate key")
)

type RepositoryAPI interface {
	ListItems(ctx context.Context, activeOnly bool) ([]*catalogDatamodel.CatalogItem, error)
	GetItem(ctx context.Context, id int64) (*catalogDatamodel.CatalogItem, error)
	CreateItem(ctx context.Context, item *catalogDatamodel.CatalogItem) error
	UpdateItem(ctx context.Context, item *catalogDatamodel.CatalogItem) error
	DeleteItem(ctx context.Context, id int64) error

	ListTiers(ctx context.Context) ([]*catalogDatamodel.LicenseTier, error)
	GetTier(ctx context.Context, id int64) (*catalogDatamodel.LicenseTier, error)
	GetTierByName(ctx context.Context, name string) (*catalogDatamodel.LicenseTier, error)
	FirstTier(ctx context.Context) (*catalogDatamodel.LicenseTier, error)
	CreateTier(ctx context.Context, tier *catalogDatamodel.LicenseTier) error
}

type Service struct {
	repo         RepositoryAPI
	audit        audit.Recorder
	demoTierName string
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, recorder audit.Recorder, demoTierName string, logger *slog.Logger) *Service {
	if demoTierName == "" {
		demoTierName = "Demo"
	}
	return &Service{
		repo:         repo,
		audit:        recorder,
		demoTierName: demoTierName,
		logger:       logger,
	}
}

// ListItems returns active items only unless includeInactive is set.
func (s *Service) ListItems(ctx context.Context, includeInactive bool) ([]*CatalogItem, error) {
	rows, err := s.repo.ListItems(ctx, !includeInactive)
	if err != nil {
		s.logger.Error("failed to list catalog items", "error", err)
		return nil, internal.NewInternalError("failed to list catalog items", err)
	}

	items := make([]*CatalogItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, FromDataModel(r))
	}
	return items, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*CatalogItem, error) {
	row, err := s.repo.GetItem(ctx, id)
	if err != nil {
		s.logger.Error("failed to get catalog item", "item_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get catalog item", err)
	}
	if row == nil {
		return nil, ErrItemNotFound
	}
	return FromDataModel(row), nil
}

// GetActiveItem is the lookup used by demo issuance.
func (s *Service) GetActiveItem(ctx context.Context, id int64) (*CatalogItem, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, ErrItemInactive
	}
	return item, nil
}

func (s *Service) CreateItem(ctx context.Context, dto CatalogItemDTO, actor *internal.Principal) (*CatalogItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	item := &CatalogItem{
		Name:             strings.TrimSpace(dto.Name),
		Description:      dto.Description,
		ProductType:      dto.ProductType,
		DemoDurationDays: dto.DemoDurationDays,
		DemoSeats:        dto.DemoSeats,
		DemoFeatures:     cleanFeatures(dto.DemoFeatures),
		IsActive:         dto.IsActive == nil || *dto.IsActive,
	}

	row := ToDataModel(item)
	if err := s.repo.CreateItem(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		s.logger.Error("failed to create catalog item", "name", item.Name, "error", err)
		return nil, internal.NewInternalError("failed to create catalog item", err)
	}

	created := FromDataModel(row)
	s.audit.Record(ctx, audit.EntityCatalog, created.ID, "created", actor, nil, created)
	s.logger.Info("catalog item created", "item_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, dto CatalogItemDTO, actor *internal.Principal) (*CatalogItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *existing

	existing.Name = strings.TrimSpace(dto.Name)
	existing.Description = dto.Description
	existing.ProductType = dto.ProductType
	existing.DemoDurationDays = dto.DemoDurationDays
	existing.DemoSeats = dto.DemoSeats
	existing.DemoFeatures = cleanFeatures(dto.DemoFeatures)
	if dto.IsActive != nil {
		if *dto.IsActive {
			existing.Activate()
		} else {
			existing.Deactivate()
		}
	}

	if err := s.repo.UpdateItem(ctx, ToDataModel(existing)); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		s.logger.Error("failed to update catalog item", "item_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update catalog item", err)
	}

	s.audit.Record(ctx, audit.EntityCatalog, id, "updated", actor, before, existing)
	return existing, nil
}

// DeleteItem removes the definition only. Licenses carry their own product
// name and are not touched.
func (s *Service) DeleteItem(ctx context.Context, id int64, actor *internal.Principal) error {
	existing, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		s.logger.Error("failed to delete catalog item", "item_id", id, "error", err)
		return internal.NewInternalError("failed to delete catalog item", err)
	}
	s.audit.Record(ctx, audit.EntityCatalog, id, "deleted", actor, existing, nil)
	return nil
}

func (s *Service) ListTiers(ctx context.Context) ([]*LicenseTier, error) {
	rows, err := s.repo.ListTiers(ctx)
	if err != nil {
		s.logger.Error("failed to list tiers", "error", err)
		return nil, internal.NewInternalError("failed to list tiers", err)
	}
	tiers := make([]*LicenseTier, 0, len(rows))
	for _, r := range rows {
		tiers = append(tiers, TierFromDataModel(r))
	}
	return tiers, nil
}

func (s *Service) GetTier(ctx context.Context, id int64) (*LicenseTier, error) {
	row, err := s.repo.GetTier(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get tier", err)
	}
	if row == nil {
		return nil, ErrTierNotFound
	}
	return TierFromDataModel(row), nil
}

func (s *Service) CreateTier(ctx context.Context, dto TierDTO) (*LicenseTier, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	row := &catalogDatamodel.LicenseTier{
		Name:        strings.TrimSpace(dto.Name),
		Description: dto.Description,
		MaxSeats:    dto.MaxSeats,
	}
	if err := s.repo.CreateTier(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return nil, ErrDuplicate
		}
		s.logger.Error("failed to create tier", "name", row.Name, "error", err)
		return nil, internal.NewInternalError("failed to create tier", err)
	}
	return TierFromDataModel(row), nil
}

// DemoTier returns the tier named after the configured demo tier, falling
// back to any tier. ErrNoTier means the portal has no tiers at all.
func (s *Service) DemoTier(ctx context.Context) (*LicenseTier, error) {
	row, err := s.repo.GetTierByName(ctx, s.demoTierName)
	if err != nil {
		return nil, internal.NewInternalError("failed to look up demo tier", err)
	}
	if row == nil {
		s.logger.Warn("demo tier missing, falling back to any tier", "tier_name", s.demoTierName)
		row, err = s.repo.FirstTier(ctx)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up license tier", err)
		}
	}
	if row == nil {
		s.logger.Error("no license tier configured")
		return nil, ErrNoTier
	}
	return TierFromDataModel(row), nil
}

func cleanFeatures(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, f := range in {
		f = strings.TrimSpace(f)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
