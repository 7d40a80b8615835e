package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	"github.com/frahmantamala/license-portal/internal/cache"
	"github.com/frahmantamala/license-portal/internal/catalog"
	"github.com/frahmantamala/license-portal/internal/core/bulk"
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
	licenseDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/license"
	"github.com/frahmantamala/license-portal/internal/core/events"
	"github.com/frahmantamala/license-portal/internal/core/keygen"
	"github.com/frahmantamala/license-portal/internal/role"
)

const cacheNamespace = "licenses"

var (
	ErrLicenseNotFound = internal.NewNotFoundError("license not found", internal.ErrCodeLicenseNotFound)
	ErrAlreadyLicensed = internal.NewConflictError("you already have a license for this product", internal.ErrCodeDuplicateLicense)
	ErrKeyExhausted    = &internal.AppError{
		Type:       internal.ErrorTypeInternal,
		Code:       internal.ErrCodeKeyExhausted,
		Message:    "could not allocate a unique license key",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrDuplicateKey is returned by repositories when a license key collides.
	// A collision on the demo owner index is reported as ErrAlreadyLicensed.
	ErrDuplicateKey = errors.New("duplicate license key")
)

type RepositoryAPI interface {
	Create(ctx context.Context, l *licenseDatamodel.ProductLicense) error
	GetByID(ctx context.Context, id int64) (*licenseDatamodel.ProductLicense, error)
	List(ctx context.Context, filter ListFilter) ([]*licenseDatamodel.ProductLicense, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*licenseDatamodel.ProductLicense, error)
	ExistsForProduct(ctx context.Context, productName, email string) (bool, error)
	Update(ctx context.Context, l *licenseDatamodel.ProductLicense, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
	ListLapsed(ctx context.Context, now time.Time) ([]*licenseDatamodel.ProductLicense, error)
}

// CatalogAPI is the part of the catalog service license issuance needs.
type CatalogAPI interface {
	GetActiveItem(ctx context.Context, id int64) (*catalog.CatalogItem, error)
	GetTier(ctx context.Context, id int64) (*catalog.LicenseTier, error)
	DemoTier(ctx context.Context) (*catalog.LicenseTier, error)
}

type BulkObserver interface {
	RecordBulk(action string, success, failed int)
}

type nopObserver struct{}

func (nopObserver) RecordBulk(string, int, int) {}

type Service struct {
	repo    RepositoryAPI
	catalog CatalogAPI
	audit   audit.Recorder
	events  events.Publisher
	cache   cache.Cache
	metrics BulkObserver
	cfg     internal.LicensingConfig
	now     func() time.Time
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, catalogService CatalogAPI, recorder audit.Recorder, cfg internal.LicensingConfig, logger *slog.Logger) *Service {
	if cfg.KeyRetryAttempts < 1 {
		cfg.KeyRetryAttempts = 5
	}
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = 4
	}
	if cfg.ExpiringWindowDays < 1 {
		cfg.ExpiringWindowDays = ExpiringWindowDays
	}
	return &Service{
		repo:    repo,
		catalog: catalogService,
		audit:   recorder,
		events:  events.Nop{},
		cache:   cache.Noop{},
		metrics: nopObserver{},
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *Service) WithEvents(p events.Publisher) *Service {
	s.events = p
	return s
}

func (s *Service) WithCache(c cache.Cache) *Service {
	s.cache = c
	return s
}

func (s *Service) WithMetrics(m BulkObserver) *Service {
	s.metrics = m
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// IssueDemo creates a demo license for the caller from an active catalog
// item. Nothing is written when the caller already holds a license for the
// product or when no tier exists.
func (s *Service) IssueDemo(ctx context.Context, catalogItemID int64, p *internal.Principal) (*License, error) {
	if p == nil || strings.TrimSpace(p.Email) == "" {
		return nil, internal.ErrInvalidToken
	}
	if err := (IssueDemoDTO{CatalogItemID: catalogItemID}).Validate(); err != nil {
		return nil, err
	}

	item, err := s.catalog.GetActiveItem(ctx, catalogItemID)
	if err != nil {
		return nil, err
	}

	has, err := s.HasLicenseForProduct(ctx, item.Name, p.Email)
	if err != nil {
		return nil, err
	}
	if has {
		s.logger.Warn("duplicate demo request rejected", "product", item.Name, "user_id", p.ID)
		return nil, ErrAlreadyLicensed
	}

	tier, err := s.catalog.DemoTier(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	email := p.Email
	l := &License{
		ProductName:        item.Name,
		TierID:             &tier.ID,
		TierName:           tier.Name,
		AssignedTo:         &email,
		Seats:              item.DemoSeats,
		ExpiryDate:         now.AddDate(0, 0, item.DemoDurationDays),
		Status:             StatusActive,
		Features:           append([]string{}, item.DemoFeatures...),
		Addons:             []string{},
		AllowedNetworks:    []string{},
		ConcurrentSessions: 1,
		IsDemo:             true,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := s.insertWithKey(ctx, l, "DEMO")
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityLicense, created.ID, "demo_issued", p, nil, created)
	s.publish(ctx, events.NewLicenseIssuedEvent(created.ID, created.LicenseKey, created.ProductName, email, true))
	s.invalidate(ctx)
	s.logger.Info("demo license issued", "license_id", created.ID, "product", created.ProductName, "user_id", p.ID)
	return created, nil
}

// insertWithKey generates a key and inserts l, retrying with a fresh key when
// the unique constraint rejects it.
func (s *Service) insertWithKey(ctx context.Context, l *License, prefix string) (*License, error) {
	for attempt := 1; attempt <= s.cfg.KeyRetryAttempts; attempt++ {
		key, err := keygen.LicenseKey(prefix, l.ProductName, s.clock())
		if err != nil {
			return nil, internal.NewInternalError("failed to generate license key", err)
		}
		l.LicenseKey = key

		row := ToDataModel(l)
		err = s.repo.Create(ctx, row)
		if err == nil {
			created := FromDataModel(row)
			created.TierName = l.TierName
			return created, nil
		}
		if errors.Is(err, ErrAlreadyLicensed) {
			s.logger.Warn("concurrent demo request rejected", "product", l.ProductName)
			return nil, err
		}
		if errors.Is(err, ErrDuplicateKey) {
			s.logger.Warn("license key collision, retrying", "attempt", attempt, "product", l.ProductName)
			continue
		}
		s.logger.Error("failed to create license", "product", l.ProductName, "error", err)
		return nil, internal.NewInternalError("failed to create license", err)
	}
	s.logger.Error("license key retries exhausted", "product", l.ProductName, "attempts", s.cfg.KeyRetryAttempts)
	return nil, ErrKeyExhausted
}

func (s *Service) HasLicenseForProduct(ctx context.Context, productName, email string) (bool, error) {
	has, err := s.repo.ExistsForProduct(ctx, productName, email)
	if err != nil {
		s.logger.Error("failed to check existing license", "product", productName, "error", err)
		return false, internal.NewInternalError("failed to check existing licenses", err)
	}
	return has, nil
}

// List returns the licenses visible to p plus the expiry buckets and renewal
// notice computed over them.
func (s *Service) List(ctx context.Context, p *internal.Principal, filter ListFilter) (*ListResponse, error) {
	if !role.NewChecker(p.Roles).CanViewAllLicenses() {
		filter = ListFilter{Status: filter.Status, ProductName: filter.ProductName, AssignedTo: p.Email}
	}

	licenses, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	b := computeBuckets(licenses, now, s.cfg.ExpiringWindowDays)
	return &ListResponse{
		Licenses: licenses,
		Expiring: b.Expiring,
		Expired:  b.Expired,
		Notice:   RenewalNotice(b, now),
	}, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*License, error) {
	key, err := s.cache.Key(ctx, cacheNamespace, listKey(filter))
	if err != nil {
		s.logger.Warn("license cache unavailable", "error", err)
	}

	var licenses []*License
	if key != "" {
		hit, err := s.cache.Get(ctx, key, &licenses)
		if err != nil {
			s.logger.Warn("license cache read failed", "key", key, "error", err)
		}
		if hit {
			return licenses, nil
		}
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list licenses", "error", err)
		return nil, internal.NewInternalError("failed to list licenses", err)
	}
	licenses = make([]*License, 0, len(rows))
	for _, r := range rows {
		licenses = append(licenses, FromDataModel(r))
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, licenses); err != nil {
			s.logger.Warn("license cache write failed", "key", key, "error", err)
		}
	}
	return licenses, nil
}

func listKey(f ListFilter) string {
	account := "-"
	if f.AccountID != nil {
		account = fmt.Sprint(*f.AccountID)
	}
	return fmt.Sprintf("list:%s|%s|%s|%s", f.Status, f.ProductName, strings.ToLower(f.AssignedTo), account)
}

// Get returns a single license. Callers without the all-licenses view only
// see their own; other ids look like they do not exist.
func (s *Service) Get(ctx context.Context, p *internal.Principal, id int64) (*License, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !role.NewChecker(p.Roles).CanViewAllLicenses() && !strings.EqualFold(l.Assignee(), p.Email) {
		return nil, ErrLicenseNotFound
	}
	return l, nil
}

func (s *Service) load(ctx context.Context, id int64) (*License, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get license", "license_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get license", err)
	}
	if row == nil {
		return nil, ErrLicenseNotFound
	}
	return FromDataModel(row), nil
}

func requireManager(actor *internal.Principal) error {
	if actor == nil || !role.NewChecker(actor.Roles).CanManageLicenses() {
		return internal.ErrUnauthorizedAccess
	}
	return nil
}

// Create issues a license by hand with an LIC- key.
func (s *Service) Create(ctx context.Context, dto CreateLicenseDTO, actor *internal.Principal) (*License, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	networks, verr := validation.ParseNetworks(dto.AllowedNetworks)
	if verr != nil {
		return nil, verr
	}

	l := &License{
		ProductName:        strings.TrimSpace(dto.ProductName),
		Seats:              dto.Seats,
		ExpiryDate:         dto.ExpiryDate.UTC(),
		Status:             Status(dto.Status),
		Features:           cleanKeys(dto.Features),
		Addons:             cleanKeys(dto.Addons),
		MaxHosts:           dto.MaxHosts,
		AllowedNetworks:    networks,
		ConcurrentSessions: dto.ConcurrentSessions,
		UsageHoursLimit:    dto.UsageHoursLimit,
		AccountID:          dto.AccountID,
		Version:            1,
	}
	if assignee := strings.TrimSpace(dto.AssignedTo); assignee != "" {
		l.AssignedTo = &assignee
	}
	if l.Status == "" {
		l.Status = StatusActive
		if l.AssignedTo == nil {
			l.Status = StatusUnassigned
		}
	}
	if l.ConcurrentSessions == 0 {
		l.ConcurrentSessions = 1
	}
	if dto.TierID != nil {
		tier, err := s.catalog.GetTier(ctx, *dto.TierID)
		if err != nil {
			return nil, err
		}
		l.TierID = &tier.ID
		l.TierName = tier.Name
	}

	now := s.clock()
	l.CreatedAt, l.UpdatedAt = now, now

	created, err := s.insertWithKey(ctx, l, "LIC")
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityLicense, created.ID, "created", actor, nil, created)
	s.publish(ctx, events.NewLicenseIssuedEvent(created.ID, created.LicenseKey, created.ProductName, created.Assignee(), false))
	s.invalidate(ctx)
	return created, nil
}

// Edit applies a partial update. A supplied version must match the stored one.
func (s *Service) Edit(ctx context.Context, id int64, dto EditLicenseDTO, actor *internal.Principal) (*License, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Version != nil && *dto.Version != l.Version {
		return nil, ErrVersionMismatch(id, *dto.Version, l.Version)
	}
	before := *l
	var changed []string

	if dto.TierID != nil {
		tier, err := s.catalog.GetTier(ctx, *dto.TierID)
		if err != nil {
			return nil, err
		}
		l.TierID = &tier.ID
		l.TierName = tier.Name
		changed = append(changed, "tier_id")
	}
	if dto.Seats != nil {
		l.Seats = *dto.Seats
		changed = append(changed, "seats")
	}
	if dto.Status != nil {
		l.Status = Status(*dto.Status)
		changed = append(changed, "status")
	}
	if dto.Features != nil {
		l.Features = cleanKeys(*dto.Features)
		changed = append(changed, "features")
	}
	if dto.Addons != nil {
		l.Addons = cleanKeys(*dto.Addons)
		changed = append(changed, "addons")
	}
	if dto.ExpiryDate != nil {
		l.ExpiryDate = dto.ExpiryDate.UTC()
		changed = append(changed, "expiry_date")
	}
	if dto.AssignedTo != nil {
		if assignee := strings.TrimSpace(*dto.AssignedTo); assignee != "" {
			l.AssignedTo = &assignee
		} else {
			l.AssignedTo = nil
		}
		changed = append(changed, "assigned_to")
	}
	if dto.MaxHosts != nil {
		l.MaxHosts = positiveOrNil(*dto.MaxHosts)
		changed = append(changed, "max_hosts")
	}
	if dto.AllowedNetworks != nil {
		networks, verr := validation.ParseNetworks(*dto.AllowedNetworks)
		if verr != nil {
			return nil, verr
		}
		l.AllowedNetworks = networks
		changed = append(changed, "allowed_networks")
	}
	if dto.ConcurrentSessions != nil {
		l.ConcurrentSessions = *dto.ConcurrentSessions
		changed = append(changed, "concurrent_sessions")
	}
	if dto.UsageHoursLimit != nil {
		l.UsageHoursLimit = positiveOrNil(*dto.UsageHoursLimit)
		changed = append(changed, "usage_hours_limit")
	}

	if len(changed) == 0 {
		return l, nil
	}
	if err := s.save(ctx, l, before.Version); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.EntityLicense, id, "updated", actor, before, l)
	s.publish(ctx, events.NewLicenseUpdatedEvent(id, changed, actor.ID))
	if before.Status != l.Status {
		s.publish(ctx, events.NewLicenseStatusChangedEvent(id, string(before.Status), string(l.Status), actor.ID))
	}
	s.invalidate(ctx)
	return l, nil
}

// ErrVersionMismatch is a version conflict carrying the versions involved.
func ErrVersionMismatch(id, supplied, stored int64) *internal.AppError {
	return internal.ErrVersionConflict.WithDetails(map[string]int64{
		"license_id":       id,
		"supplied_version": supplied,
		"current_version":  stored,
	})
}

func (s *Service) ChangeStatus(ctx context.Context, id int64, dto StatusDTO, actor *internal.Principal) (*License, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.Version != nil && *dto.Version != l.Version {
		return nil, ErrVersionMismatch(id, *dto.Version, l.Version)
	}
	if err := s.setStatus(ctx, l, Status(dto.Status), actor); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return l, nil
}

func (s *Service) setStatus(ctx context.Context, l *License, status Status, actor *internal.Principal) error {
	old := l.Status
	if old == status {
		return nil
	}
	before := *l
	l.Status = status
	if err := s.save(ctx, l, before.Version); err != nil {
		l.Status = old
		return err
	}
	s.audit.Record(ctx, audit.EntityLicense, l.ID, "status_changed", actor,
		map[string]string{"status": string(old)}, map[string]string{"status": string(status)})
	s.publish(ctx, events.NewLicenseStatusChangedEvent(l.ID, string(old), string(status), actor.ID))
	s.logger.Info("license status changed", "license_id", l.ID, "from", old, "to", status, "actor_id", actor.ID)
	return nil
}

// Bulk applies a status or extend action to every id with bounded
// concurrency. Failures of single items never abort the rest.
func (s *Service) Bulk(ctx context.Context, dto BulkDTO, actor *internal.Principal) (*BulkResponse, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	action := Action(dto.Action)
	if action == ActionExport {
		return nil, internal.NewValidationFieldError("action", "export is served as CSV", internal.ErrCodeInvalidAction)
	}

	ids := uniqueIDs(dto.IDs)
	res := bulk.Run(ctx, ids, s.cfg.BulkConcurrency, func(ctx context.Context, id int64) error {
		return s.apply(ctx, id, action, actor)
	})
	s.invalidate(ctx)
	s.metrics.RecordBulk(string(action), res.Success, res.Failed)

	s.logger.Info("bulk license action finished",
		"action", action, "requested", len(ids), "success", res.Success, "failed", res.Failed, "actor_id", actor.ID)
	return &BulkResponse{Action: string(action), Result: res, Preview: res.Preview(bulk.SampleSize)}, nil
}

func (s *Service) apply(ctx context.Context, id int64, action Action, actor *internal.Principal) error {
	l, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if status, ok := action.TargetStatus(); ok {
		return s.setStatus(ctx, l, status, actor)
	}
	days, ok := action.ExtensionDays()
	if !ok {
		return internal.NewValidationError("unsupported action", internal.ErrCodeInvalidAction)
	}

	before := *l
	l.Extend(days)
	if err := s.save(ctx, l, before.Version); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.EntityLicense, id, string(action), actor,
		map[string]time.Time{"expiry_date": before.ExpiryDate}, map[string]time.Time{"expiry_date": l.ExpiryDate})
	s.publish(ctx, events.NewLicenseUpdatedEvent(id, []string{"expiry_date"}, actor.ID))
	return nil
}

// ExportLicenses returns the selected licenses for CSV export.
func (s *Service) ExportLicenses(ctx context.Context, ids []int64, actor *internal.Principal) ([]*License, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}
	if err := (BulkDTO{IDs: ids, Action: string(ActionExport)}).Validate(); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		s.logger.Error("failed to load licenses for export", "error", err)
		return nil, internal.NewInternalError("failed to export licenses", err)
	}
	out := make([]*License, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	s.metrics.RecordBulk(string(ActionExport), len(out), len(ids)-len(out))
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64, actor *internal.Principal) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	l, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete license", "license_id", id, "error", err)
		return internal.NewInternalError("failed to delete license", err)
	}
	s.audit.Record(ctx, audit.EntityLicense, id, "deleted", actor, l, nil)
	s.invalidate(ctx)
	return nil
}

// ListByAccount returns the licenses linked to a CRM account.
func (s *Service) ListByAccount(ctx context.Context, accountID int64) ([]*License, error) {
	return s.list(ctx, ListFilter{AccountID: &accountID})
}

// SetAccount links the license to a CRM account, or unlinks it when
// accountID is nil.
func (s *Service) SetAccount(ctx context.Context, id int64, accountID *int64, actor *internal.Principal) (*License, error) {
	l, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := l.AccountID
	l.AccountID = accountID
	if err := s.save(ctx, l, l.Version); err != nil {
		return nil, err
	}

	action := "account_linked"
	if accountID == nil {
		action = "account_unlinked"
	}
	s.audit.Record(ctx, audit.EntityLicense, id, action, actor,
		map[string]*int64{"account_id": before}, map[string]*int64{"account_id": accountID})
	s.publish(ctx, events.NewLicenseUpdatedEvent(id, []string{"account_id"}, actor.ID))
	s.invalidate(ctx)
	return l, nil
}

// AccountRemoved drops cached lists after a CRM account delete unlinked
// licenses.
func (s *Service) AccountRemoved(ctx context.Context, accountID, unlinked int64) {
	if unlinked == 0 {
		return
	}
	s.invalidate(ctx)
	s.logger.Info("licenses unlinked from deleted account", "account_id", accountID, "count", unlinked)
}

// ExpireLapsed flips stored-active licenses whose expiry has passed to
// expired. Licenses changed concurrently are skipped and picked up by the
// next run.
func (s *Service) ExpireLapsed(ctx context.Context) (int, error) {
	rows, err := s.repo.ListLapsed(ctx, s.clock())
	if err != nil {
		s.logger.Error("failed to list lapsed licenses", "error", err)
		return 0, internal.NewInternalError("failed to list lapsed licenses", err)
	}

	expired := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			break
		}
		l := FromDataModel(row)
		if err := s.setStatus(ctx, l, StatusExpired, internal.SystemPrincipal); err != nil {
			s.logger.Warn("skipping lapsed license", "license_id", l.ID, "error", err)
			continue
		}
		expired++
	}
	if expired > 0 {
		s.invalidate(ctx)
	}
	return expired, nil
}

func (s *Service) save(ctx context.Context, l *License, expectedVersion int64) error {
	l.UpdatedAt = s.clock()
	row := ToDataModel(l)
	if err := s.repo.Update(ctx, row, expectedVersion); err != nil {
		if errors.Is(err, internal.ErrVersionConflict) {
			s.logger.Warn("license changed concurrently", "license_id", l.ID, "version", expectedVersion)
			return internal.ErrVersionConflict
		}
		if errors.Is(err, ErrAlreadyLicensed) {
			return err
		}
		s.logger.Error("failed to update license", "license_id", l.ID, "error", err)
		return internal.NewInternalError("failed to update license", err)
	}
	l.Version = row.Version
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheNamespace); err != nil {
		s.logger.Warn("license cache invalidation failed", "error", err)
	}
}

func cleanKeys(in []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func positiveOrNil(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := map[int64]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
