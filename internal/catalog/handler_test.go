package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/catalog"
	catalogPostgres "github.com/frahmantamala/license-portal/internal/catalog/postgres"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Catalog Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *catalog.Handler
		router  *chi.Mux
		admin   *internal.Principal
	)

	withPrincipal := func(p *internal.Principal) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipal(r.Context(), p)))
			})
		}
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&catalogDatamodel.CatalogItem{}, &catalogDatamodel.LicenseTier{})).To(Succeed())

		repo := catalogPostgres.NewCatalogRepository(db)
		service := catalog.NewService(repo, &MockRecorder{}, "Demo", slogger)
		handler = catalog.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		Expect(repo.CreateItem(context.Background(), &catalogDatamodel.CatalogItem{
			Name: "Sentinel EDR", ProductType: "software", DemoDurationDays: 14, DemoSeats: 3,
			DemoFeatures: []string{"scan"}, IsActive: true,
		})).To(Succeed())
		Expect(repo.CreateItem(context.Background(), &catalogDatamodel.CatalogItem{
			Name: "Retired Product", ProductType: "software", DemoDurationDays: 14, DemoSeats: 3, IsActive: false,
		})).To(Succeed())

		admin = &internal.Principal{ID: 1, Email: "admin@portal.test", Roles: role.Grants{role.Admin}}
	})

	route := func(p *internal.Principal) {
		router = chi.NewRouter()
		router.Use(withPrincipal(p))
		router.Get("/catalog", handler.ListItems)
		router.Get("/catalog/{id}", handler.GetItem)
		router.Post("/catalog", handler.CreateItem)
		router.Delete("/catalog/{id}", handler.DeleteItem)
	}

	It("should list only active items for customers", func() {
		route(&internal.Principal{ID: 2, Email: "c@x.io", Roles: role.Grants{role.Customer}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog?all=true", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp catalog.CatalogResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Items).To(HaveLen(1))
		Expect(resp.Items[0].Name).To(Equal("Sentinel EDR"))
		Expect(resp.Items[0].DemoFeatures).To(Equal([]string{"scan"}))
	})

	It("should let admins include inactive items", func() {
		route(admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog?all=true", nil))

		var resp catalog.CatalogResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Items).To(HaveLen(2))
	})

	It("should return 409 for a duplicate name", func() {
		route(admin)
		body, _ := json.Marshal(catalog.CatalogItemDTO{Name: "Sentinel EDR", ProductType: "software", DemoDurationDays: 7, DemoSeats: 1})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/catalog", bytes.NewReader(body)))

		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("should return 404 for unknown ids", func() {
		route(admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/404", nil))

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should delete items", func() {
		route(admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/catalog/1", nil))

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		var count int64
		db.Model(&catalogDatamodel.CatalogItem{}).Count(&count)
		Expect(count).To(Equal(int64(1)))
	})
})
