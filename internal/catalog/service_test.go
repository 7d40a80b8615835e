package catalog_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/catalog"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCatalogService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Catalog Service Suite")
}

// MockRepository implements catalog.RepositoryAPI for testing
type MockRepository struct {
	items      map[int64]*catalogDatamodel.CatalogItem
	tiers      []*catalogDatamodel.LicenseTier
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{items: map[int64]*catalogDatamodel.CatalogItem{}}
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) ListItems(_ context.Context, activeOnly bool) ([]*catalogDatamodel.CatalogItem, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*catalogDatamodel.CatalogItem
	for _, it := range m.items {
		if activeOnly && !it.IsActive {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *MockRepository) GetItem(_ context.Context, id int64) (*catalogDatamodel.CatalogItem, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	return m.items[id], nil
}

func (m *MockRepository) CreateItem(_ context.Context, item *catalogDatamodel.CatalogItem) error {
	if m.shouldFail {
		return m.failError
	}
	for _, it := range m.items {
		if it.Name == item.Name {
			return catalog.ErrDuplicateKey
		}
	}
	m.nextID++
	item.ID = m.nextID
	m.items[item.ID] = item
	return nil
}

func (m *MockRepository) UpdateItem(_ context.Context, item *catalogDatamodel.CatalogItem) error {
	if m.shouldFail {
		return m.failError
	}
	m.items[item.ID] = item
	return nil
}

func (m *MockRepository) DeleteItem(_ context.Context, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	delete(m.items, id)
	return nil
}

func (m *MockRepository) ListTiers(context.Context) ([]*catalogDatamodel.LicenseTier, error) {
	return m.tiers, nil
}

func (m *MockRepository) GetTier(_ context.Context, id int64) (*catalogDatamodel.LicenseTier, error) {
	for _, t := range m.tiers {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) GetTierByName(_ context.Context, name string) (*catalogDatamodel.LicenseTier, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, t := range m.tiers {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) FirstTier(context.Context) (*catalogDatamodel.LicenseTier, error) {
	if len(m.tiers) == 0 {
		return nil, nil
	}
	return m.tiers[0], nil
}

func (m *MockRepository) CreateTier(_ context.Context, tier *catalogDatamodel.LicenseTier) error {
	tier.ID = int64(len(m.tiers) + 1)
	m.tiers = append(m.tiers, tier)
	return nil
}

type recordedAudit struct {
	entityType string
	entityID   int64
	action     string
}

type MockRecorder struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (m *MockRecorder) Record(_ context.Context, entityType string, entityID int64, action string, _ *internal.Principal, _, _ interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, recordedAudit{entityType, entityID, action})
}

var _ = Describe("Catalog Service", func() {
	var (
		mockRepo *MockRepository
		recorder *MockRecorder
		service  *catalog.Service
		ctx      context.Context
		admin    *internal.Principal
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		recorder = &MockRecorder{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = catalog.NewService(mockRepo, recorder, "Demo", logger)
		ctx = context.Background()
		admin = &internal.Principal{ID: 1, Email: "admin@portal.test"}
	})

	Describe("CreateItem", func() {
		It("should create an active item and audit it", func() {
			// Given
			dto := catalog.CatalogItemDTO{
				Name:             "Sentinel EDR",
				ProductType:      catalog.ProductTypeSoftware,
				DemoDurationDays: 14,
				DemoSeats:        5,
				DemoFeatures:     []string{"scan", " scan ", "", "quarantine"},
			}

			// When
			item, err := service.CreateItem(ctx, dto, admin)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(item.IsActive).To(BeTrue())
			Expect(item.DemoFeatures).To(Equal([]string{"scan", "quarantine"}))
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].action).To(Equal("created"))
		})

		It("should reject an unknown product type", func() {
			_, err := service.CreateItem(ctx, catalog.CatalogItemDTO{
				Name: "X", ProductType: "hardware", DemoDurationDays: 1, DemoSeats: 1,
			}, admin)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should reject a zero demo duration", func() {
			_, err := service.CreateItem(ctx, catalog.CatalogItemDTO{
				Name: "X", ProductType: catalog.ProductTypeService, DemoDurationDays: 0, DemoSeats: 1,
			}, admin)
			Expect(err).To(HaveOccurred())
		})

		It("should map duplicate names to a conflict", func() {
			dto := catalog.CatalogItemDTO{Name: "Dup", ProductType: catalog.ProductTypeService, DemoDurationDays: 7, DemoSeats: 1}
			_, err := service.CreateItem(ctx, dto, admin)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateItem(ctx, dto, admin)
			Expect(errors.Is(err, catalog.ErrDuplicate)).To(BeTrue())
		})
	})

	Describe("GetActiveItem", func() {
		It("should refuse inactive items", func() {
			inactive := false
			item, err := service.CreateItem(ctx, catalog.CatalogItemDTO{
				Name: "Legacy", ProductType: catalog.ProductTypeSoftware, DemoDurationDays: 7, DemoSeats: 1, IsActive: &inactive,
			}, admin)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetActiveItem(ctx, item.ID)
			Expect(errors.Is(err, catalog.ErrItemInactive)).To(BeTrue())
		})

		It("should return not found for unknown ids", func() {
			_, err := service.GetActiveItem(ctx, 999)
			Expect(errors.Is(err, catalog.ErrItemNotFound)).To(BeTrue())
		})
	})

	Describe("DemoTier", func() {
		It("should prefer the tier named Demo", func() {
			mockRepo.tiers = []*catalogDatamodel.LicenseTier{{ID: 1, Name: "Pro"}, {ID: 2, Name: "Demo"}}

			tier, err := service.DemoTier(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(tier.Name).To(Equal("Demo"))
		})

		It("should fall back to any tier", func() {
			mockRepo.tiers = []*catalogDatamodel.LicenseTier{{ID: 1, Name: "Pro"}}

			tier, err := service.DemoTier(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(tier.Name).To(Equal("Pro"))
		})

		It("should fail with a no-tier validation error when none exist", func() {
			_, err := service.DemoTier(ctx)

			Expect(errors.Is(err, catalog.ErrNoTier)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.Code).To(Equal(internal.ErrCodeNoLicenseTier))
		})

		It("should surface repository failures as internal errors", func() {
			mockRepo.SetShouldFail(true, errors.New("db down"))

			_, err := service.DemoTier(ctx)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("ListItems", func() {
		It("should hide inactive items from the customer catalog", func() {
			inactive := false
			_, _ = service.CreateItem(ctx, catalog.CatalogItemDTO{Name: "A", ProductType: "software", DemoDurationDays: 7, DemoSeats: 1}, admin)
			_, _ = service.CreateItem(ctx, catalog.CatalogItemDTO{Name: "B", ProductType: "software", DemoDurationDays: 7, DemoSeats: 1, IsActive: &inactive}, admin)

			active, err := service.ListItems(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(HaveLen(1))

			all, err := service.ListItems(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
		})
	})
})
