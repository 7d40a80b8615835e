package license_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/license-portal/internal/audit/postgres"
	"github.com/frahmantamala/license-portal/internal/catalog"
	catalogPostgres "github.com/frahmantamala/license-portal/internal/catalog/postgres"
	catalogDatamodel "github.com/frahmantamala/license-portal/internal/core/datamodel/catalog"
	"github.com/frahmantamala/license-portal/internal/license"
	licensePostgres "github.com/frahmantamala/license-portal/internal/license/postgres"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("License Handler Integration", func() {
	var (
		router   *chi.Mux
		service  *license.Service
		item     *catalogDatamodel.CatalogItem
		admin    *internal.Principal
		customer *internal.Principal
		caller   *internal.Principal
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx := context.Background()
		db := openDB()

		auditSvc := audit.NewService(auditPostgres.NewAuditRepository(db), 20, slogger)
		catalogRepo := catalogPostgres.NewCatalogRepository(db)
		Expect(catalogRepo.CreateTier(ctx, &catalogDatamodel.LicenseTier{Name: "Demo", MaxSeats: 5})).To(Succeed())
		item = &catalogDatamodel.CatalogItem{
			Name: "Threat Intel", ProductType: "service", DemoDurationDays: 7, DemoSeats: 1, IsActive: true,
		}
		Expect(catalogRepo.CreateItem(ctx, item)).To(Succeed())

		service = license.NewService(
			licensePostgres.NewLicenseRepository(db),
			catalog.NewService(catalogRepo, auditSvc, "Demo", slogger),
			auditSvc,
			internal.LicensingConfig{KeyRetryAttempts: 3, BulkConcurrency: 2, ExpiringWindowDays: 30},
			slogger,
		)
		handler := license.NewHandler(transport.NewBaseHandler(slogger), service)

		admin = &internal.Principal{ID: 1, Email: "admin@portal.test", Roles: role.Grants{role.Admin}}
		customer = &internal.Principal{ID: 2, Email: "jane@customer.io", Roles: role.Grants{role.Customer}}
		caller = customer

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if caller != nil {
					r = r.WithContext(internal.ContextWithPrincipal(r.Context(), caller))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/licenses", handler.ListLicenses)
		router.Get("/licenses/check", handler.CheckProduct)
		router.Post("/licenses/demo", handler.IssueDemo)
		router.Post("/licenses/bulk", handler.Bulk)
		router.Put("/licenses/{id}/status", handler.ChangeStatus)
	})

	post := func(path string, body interface{}) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
		return rec
	}

	It("should issue a demo once and answer 409 on the second request", func() {
		// When
		first := post("/licenses/demo", license.IssueDemoDTO{CatalogItemID: item.ID})
		second := post("/licenses/demo", license.IssueDemoDTO{CatalogItemID: item.ID})

		// Then
		Expect(first.Code).To(Equal(http.StatusCreated))
		var l license.License
		Expect(json.Unmarshal(first.Body.Bytes(), &l)).To(Succeed())
		Expect(l.LicenseKey).To(HavePrefix("DEMO-THRE-"))

		Expect(second.Code).To(Equal(http.StatusConflict))
		Expect(second.Body.String()).To(ContainSubstring(string(internal.ErrCodeDuplicateLicense)))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/licenses/check?product=Threat+Intel", nil))
		Expect(rec.Body.String()).To(ContainSubstring(`"has_license":true`))
	})

	It("should answer 401 without a principal", func() {
		caller = nil

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/licenses", nil))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should forbid customers from bulk actions", func() {
		rec := post("/licenses/bulk", license.BulkDTO{IDs: []int64{1}, Action: "revoke"})

		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should export selected licenses as CSV", func() {
		caller = admin
		_, err := service.Create(context.Background(), license.CreateLicenseDTO{
			ProductName: "Firewall Pro", AssignedTo: "ops@acme.io", Seats: 50,
			ExpiryDate: time.Now().AddDate(1, 0, 0), Features: []string{"vpn", "ids"},
		}, admin)
		Expect(err).NotTo(HaveOccurred())

		rec := post("/licenses/bulk", license.BulkDTO{IDs: []int64{1}, Action: "export"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("text/csv"))
		records, err := csv.NewReader(rec.Body).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0][1]).To(Equal("license_key"))
		Expect(records[1][2]).To(Equal("Firewall Pro"))
		Expect(records[1][8]).To(Equal("vpn;ids"))
	})

	It("should return 400 for an unknown status", func() {
		caller = admin
		raw, _ := json.Marshal(license.StatusDTO{Status: "paused"})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/licenses/1/status", bytes.NewReader(raw)))

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
