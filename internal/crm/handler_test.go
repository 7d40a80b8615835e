package crm_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/license-portal/internal/audit/postgres"
	"github.com/frahmantamala/license-portal/internal/crm"
	crmPostgres "github.com/frahmantamala/license-portal/internal/crm/postgres"
	"github.com/frahmantamala/license-portal/internal/license"
	licensePostgres "github.com/frahmantamala/license-portal/internal/license/postgres"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CRM Handler Integration", func() {
	var (
		handler *crm.Handler
		router  *chi.Mux
		rep     *internal.Principal
	)

	withPrincipal := func(p *internal.Principal) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipal(r.Context(), p)))
			})
		}
	}

	route := func(p *internal.Principal) {
		router = chi.NewRouter()
		router.Use(withPrincipal(p))
		router.Get("/crm/accounts", handler.ListAccounts)
		router.Post("/crm/accounts", handler.CreateAccount)
		router.Get("/crm/accounts/{id}/overview", handler.AccountOverview)
		router.Delete("/crm/accounts/{id}", handler.DeleteAccount)
		router.Get("/crm/contacts", handler.ListContacts)
		router.Post("/crm/contacts/import", handler.ImportContacts)
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db := openDB()
		auditSvc := audit.NewService(auditPostgres.NewAuditRepository(db), 20, slogger)
		licenseSvc := license.NewService(licensePostgres.NewLicenseRepository(db), nil, auditSvc, internal.LicensingConfig{}, slogger)
		service := crm.NewService(crmPostgres.NewCRMRepository(db), licenseSvc, auditSvc, 2, slogger)
		handler = crm.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		rep = &internal.Principal{ID: 2, Email: "rep@example.com", Roles: role.Grants{role.AccountRep}}
	})

	createAccount := func(name string) int64 {
		body, _ := json.Marshal(crm.AccountDTO{Name: name})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/crm/accounts", bytes.NewReader(body)))
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var a crm.Account
		Expect(json.Unmarshal(rec.Body.Bytes(), &a)).To(Succeed())
		return a.ID
	}

	It("forbids customers", func() {
		route(&internal.Principal{ID: 3, Roles: role.Grants{role.Customer}})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crm/accounts", nil))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("imports a multipart CSV into an account", func() {
		route(rep)
		id := createAccount("Initech")

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "contacts.csv")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte("first_name,email\nPeter,peter@initech.com\nMilton,not-an-email\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/crm/contacts/import?account_id=%d", id), &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var res crm.ImportResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &res)).To(Succeed())
		Expect(res.Success).To(Equal(1))
		Expect(res.Failed).To(Equal(1))

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crm/contacts?account_id=%d", id), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		var contacts crm.ContactsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &contacts)).To(Succeed())
		Expect(contacts.Contacts).To(HaveLen(1))
		Expect(contacts.Contacts[0].Email).To(Equal("peter@initech.com"))
	})

	It("rejects a malformed account filter", func() {
		route(rep)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crm/contacts?account_id=abc", nil))
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("serves the overview and deletes the account", func() {
		route(rep)
		id := createAccount("Globex")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crm/accounts/%d/overview", id), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		var ov crm.AccountOverview
		Expect(json.Unmarshal(rec.Body.Bytes(), &ov)).To(Succeed())
		Expect(ov.Account.Name).To(Equal("Globex"))
		Expect(ov.Licenses).To(BeEmpty())

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/crm/accounts/%d", id), nil))
		Expect(rec.Code).To(Equal(http.StatusNoContent))

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/crm/accounts/%d/overview", id), nil))
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
