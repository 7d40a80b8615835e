package ticket_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/audit"
	auditPostgres "github.com/frahmantamala/license-portal/internal/audit/postgres"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/ticket"
	ticketPostgres "github.com/frahmantamala/license-portal/internal/ticket/postgres"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ticket Handler Integration", func() {
	var (
		router    *chi.Mux
		service   *ticket.Service
		caller    *internal.Principal
		requester *internal.Principal
		staff     *internal.Principal
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db := openDB()
		service = ticket.NewService(
			ticketPostgres.NewTicketRepository(db),
			audit.NewService(auditPostgres.NewAuditRepository(db), 20, slogger),
			nil,
			slogger,
		)
		handler := ticket.NewHandler(transport.NewBaseHandler(slogger), service)

		requester = &internal.Principal{ID: 10, Email: "jane@customer.io", Roles: role.Grants{role.Customer}}
		staff = &internal.Principal{ID: 2, Email: "rep@portal.test", Roles: role.Grants{role.CustomerRep}}
		caller = requester

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipal(r.Context(), caller)))
			})
		})
		router.Get("/tickets/{id}", handler.GetTicket)
		router.Post("/tickets/{id}/flag", handler.Flag)
		router.Delete("/tickets/{id}/flag", handler.ClearFlag)
	})

	It("should render requester tickets without internal notes or moderation fields", func() {
		// Given
		ctx := context.Background()
		t, err := service.Create(ctx, ticket.CreateTicketDTO{Subject: "License not applying"}, requester)
		Expect(err).NotTo(HaveOccurred())
		_, err = service.AddComment(ctx, t.ID, ticket.CommentDTO{Body: "looks like user error", IsInternal: true}, staff)
		Expect(err).NotTo(HaveOccurred())

		// When
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tickets/1", nil))

		// Then
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("user error"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("flagged_for_review"))
	})

	It("should answer 400 for a blank flag reason and 409 for a repeat flag", func() {
		caller = staff
		_, err := service.Create(context.Background(), ticket.CreateTicketDTO{Subject: "Spam"}, requester)
		Expect(err).NotTo(HaveOccurred())

		flag := func(reason string) int {
			raw, _ := json.Marshal(ticket.ReasonDTO{Reason: reason})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tickets/1/flag", bytes.NewReader(raw)))
			return rec.Code
		}

		Expect(flag("")).To(Equal(http.StatusBadRequest))
		Expect(flag("phishing link")).To(Equal(http.StatusOK))
		Expect(flag("phishing link")).To(Equal(http.StatusConflict))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/tickets/1/flag", nil))
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})
})
