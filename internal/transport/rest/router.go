package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/license-portal/internal/audit"
	"github.com/frahmantamala/license-portal/internal/auth"
	"github.com/frahmantamala/license-portal/internal/catalog"
	"github.com/frahmantamala/license-portal/internal/crm"
	"github.com/frahmantamala/license-portal/internal/license"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/ticket"
	"github.com/frahmantamala/license-portal/internal/transport/middleware"
	"github.com/frahmantamala/license-portal/internal/transport/swagger"
	"github.com/frahmantamala/license-portal/internal/user"
)

// Handlers groups everything the router mounts. A nil handler leaves its
// routes unregistered.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	License *license.Handler
	Catalog *catalog.Handler
	Ticket  *ticket.Handler
	CRM     *crm.Handler
	Audit   *audit.Handler
	Health  *HealthHandler
	Metrics http.Handler
}

type RouterOptions struct {
	AllowedOrigins []string
	OpenAPIPath    string
	MetricsPath    string
	DemoLimiter    *middleware.RateLimiter
}

var crmRoles = []role.AppRole{role.Admin, role.AccountRep, role.Marketing, role.VAR, role.CustomerRep}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions, logger *slog.Logger) {
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}
	if h.Metrics != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, h.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.healthCheckHandler)
			r.Get("/ping", h.Health.pingHandler)
		}

		if h.Auth == nil {
			return
		}
		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
			if h.User != nil {
				ar.Post("/register", h.User.Register)
			}
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				registerUserRoutes(pr, h.User)
			}
			if h.License != nil {
				registerLicenseRoutes(pr, h.License, h.CRM, opts.DemoLimiter)
			}
			if h.Catalog != nil {
				registerCatalogRoutes(pr, h.Catalog)
			}
			if h.Ticket != nil {
				registerTicketRoutes(pr, h.Ticket)
			}
			if h.CRM != nil {
				registerCRMRoutes(pr, h.CRM)
			}
			if h.Audit != nil {
				pr.With(middleware.RequireRoles(role.Admin, role.Moderator)).Get("/audit", h.Audit.ListEntries)
			}
		})
	})
}

func registerUserRoutes(r chi.Router, h *user.Handler) {
	r.Get("/me", h.GetCurrentUser)
	r.Get("/me/dashboard", h.Dashboard)

	r.Route("/users", func(ur chi.Router) {
		ur.Get("/{id}", h.GetUser)

		ur.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRoles(role.Admin))
			admin.Get("/", h.ListUsers)
			admin.Post("/{id}/approve", h.Approve)
			admin.Post("/{id}/reject", h.Reject)
			admin.Post("/{id}/disable", h.Disable)
			admin.Post("/{id}/enable", h.Enable)
			admin.Put("/{id}/roles", h.SetRoles)
			admin.Delete("/{id}", h.DeleteUser)
		})
	})
}

func registerLicenseRoutes(r chi.Router, h *license.Handler, crmHandler *crm.Handler, demoLimiter *middleware.RateLimiter) {
	r.Route("/licenses", func(lr chi.Router) {
		lr.Get("/", h.ListLicenses)
		lr.Get("/check", h.CheckProduct)
		lr.Get("/{id}", h.GetLicense)

		if demoLimiter != nil {
			lr.With(demoLimiter.Middleware).Post("/demo", h.IssueDemo)
		} else {
			lr.Post("/demo", h.IssueDemo)
		}

		lr.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRoles(role.Admin))
			admin.Post("/", h.CreateLicense)
			admin.Post("/bulk", h.Bulk)
			admin.Patch("/{id}", h.EditLicense)
			admin.Put("/{id}/status", h.ChangeStatus)
			admin.Delete("/{id}", h.DeleteLicense)
		})

		if crmHandler != nil {
			lr.With(middleware.RequireRoles(crmRoles...)).Put("/{id}/account", crmHandler.LinkLicense)
		}
	})
}

func registerCatalogRoutes(r chi.Router, h *catalog.Handler) {
	r.Route("/catalog", func(cr chi.Router) {
		cr.Get("/", h.ListItems)
		cr.Get("/{id}", h.GetItem)

		cr.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRoles(role.Admin))
			admin.Post("/", h.CreateItem)
			admin.Put("/{id}", h.UpdateItem)
			admin.Delete("/{id}", h.DeleteItem)
		})
	})

	r.Get("/tiers", h.ListTiers)
	r.With(middleware.RequireRoles(role.Admin)).Post("/tiers", h.CreateTier)
}

// registerTicketRoutes leaves per-ticket authorization to the service, which
// hides other requesters' tickets as not found.
func registerTicketRoutes(r chi.Router, h *ticket.Handler) {
	r.Route("/tickets", func(tr chi.Router) {
		tr.Post("/", h.CreateTicket)
		tr.Get("/", h.ListTickets)
		tr.Get("/{id}", h.GetTicket)
		tr.Get("/{id}/comments", h.ListComments)
		tr.Post("/{id}/comments", h.AddComment)
		tr.Put("/{id}/status", h.UpdateStatus)
		tr.Put("/{id}/priority", h.UpdatePriority)
		tr.Post("/{id}/flag", h.Flag)
		tr.Post("/{id}/escalate", h.Escalate)
		tr.With(middleware.RequireRoles(role.Admin, role.Moderator)).Put("/{id}/moderation", h.SetModeration)

		tr.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRoles(role.Admin))
			admin.Delete("/{id}/flag", h.ClearFlag)
			admin.Delete("/{id}/escalation", h.ClearEscalation)
		})
	})
}

func registerCRMRoutes(r chi.Router, h *crm.Handler) {
	r.Route("/crm", func(cr chi.Router) {
		cr.Use(middleware.RequireRoles(crmRoles...))

		cr.Get("/accounts", h.ListAccounts)
		cr.Post("/accounts", h.CreateAccount)
		cr.Get("/accounts/{id}", h.GetAccount)
		cr.Get("/accounts/{id}/overview", h.AccountOverview)
		cr.Put("/accounts/{id}", h.UpdateAccount)
		cr.Delete("/accounts/{id}", h.DeleteAccount)

		cr.Get("/contacts", h.ListContacts)
		cr.Post("/contacts", h.CreateContact)
		cr.Post("/contacts/import", h.ImportContacts)
		cr.Get("/contacts/{id}", h.GetContact)
		cr.Put("/contacts/{id}", h.UpdateContact)
		cr.Delete("/contacts/{id}", h.DeleteContact)

		cr.Get("/deals", h.ListDeals)
		cr.Post("/deals", h.CreateDeal)
		cr.Get("/deals/{id}", h.GetDeal)
		cr.Put("/deals/{id}", h.UpdateDeal)
		cr.Delete("/deals/{id}", h.DeleteDeal)

		cr.Get("/activities", h.ListActivities)
		cr.Post("/activities", h.CreateActivity)
		cr.Get("/activities/{id}", h.GetActivity)
		cr.Put("/activities/{id}", h.UpdateActivity)
		cr.Delete("/activities/{id}", h.DeleteActivity)

		cr.Get("/onboarding", h.ListOnboarding)
		cr.Get("/onboarding/{id}", h.OnboardingTimeline)
		cr.Put("/onboarding/{id}/account", h.LinkOnboarding)
	})
}
