package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/auth"
	"github.com/frahmantamala/license-portal/internal/cache"
	"github.com/frahmantamala/license-portal/internal/role"
	"github.com/frahmantamala/license-portal/internal/transport"
	"github.com/frahmantamala/license-portal/internal/user"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

type fakeUsers struct {
	byID map[int64]*user.User
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.byID {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

var securityConfig = internal.SecurityConfig{
	AccessTokenSecret:    "access-secret-access-secret-0123456789",
	RefreshTokenSecret:   "refresh-secret-refresh-secret-0123456789",
	AccessTokenDuration:  15 * time.Minute,
	RefreshTokenDuration: 24 * time.Hour,
}

var _ = Describe("Auth Service", func() {
	var (
		ctx     context.Context
		users   *fakeUsers
		tokens  *auth.JWTTokenGenerator
		service *auth.Service
		mr      *miniredis.Miniredis
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Now().UTC()

		hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		users = &fakeUsers{byID: map[int64]*user.User{
			1: {ID: 1, Email: "rep@example.com", PasswordHash: string(hash), Approved: true, Roles: role.Grants{role.AccountRep}},
			2: {ID: 2, Email: "new@example.com", PasswordHash: string(hash), Roles: role.Grants{role.User}},
		}}

		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)
		revocations, err := cache.InitServer(ctx, internal.RedisConfig{Addr: mr.Addr()})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(revocations.Close)

		tokens = auth.NewJWTTokenGenerator(securityConfig)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = auth.NewService(users, tokens, revocations, logger).WithClock(func() time.Time { return now })
	})

	Describe("Login", func() {
		It("issues a pair for an approved user", func() {
			pair, err := service.Login(ctx, auth.LoginDTO{Email: "REP@example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.TokenType).To(Equal("Bearer"))

			p, err := service.Authenticate(ctx, pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).To(Equal(int64(1)))
			Expect(p.Roles).To(Equal(role.Grants{role.AccountRep}))
		})

		It("does not reveal whether the email exists", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "rep@example.com", Password: "wrong"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
			_, err = service.Login(ctx, auth.LoginDTO{Email: "ghost@example.com", Password: "wrong"})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("refuses unapproved and banned users", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "new@example.com", Password: "correct-horse"})
			Expect(err).To(MatchError(internal.ErrUserNotApproved))

			until := now.Add(time.Hour)
			users.byID[1].BannedUntil = &until
			_, err = service.Login(ctx, auth.LoginDTO{Email: "rep@example.com", Password: "correct-horse"})
			Expect(err).To(MatchError(internal.ErrUserInactive))
		})

		It("validates the payload", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "not-an-email"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("tokens", func() {
		It("never accepts one token type as the other", func() {
			pair, err := tokens.GeneratePair(1, "rep@example.com")
			Expect(err).NotTo(HaveOccurred())

			_, err = tokens.ValidateAccessToken(pair.RefreshToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
			_, err = tokens.ValidateRefreshToken(pair.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("reports expiry", func() {
			past := auth.NewJWTTokenGenerator(securityConfig).WithClock(func() time.Time { return now.Add(-time.Hour) })
			pair, err := past.GeneratePair(1, "rep@example.com")
			Expect(err).NotTo(HaveOccurred())
			_, err = tokens.ValidateAccessToken(pair.AccessToken)
			Expect(err).To(MatchError(internal.ErrTokenExpired))
		})

		It("loads grants on every request", func() {
			pair, err := service.Login(ctx, auth.LoginDTO{Email: "rep@example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			users.byID[1].Roles = role.Grants{role.Admin}
			p, err := service.Authenticate(ctx, pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Roles).To(Equal(role.Grants{role.Admin}))

			delete(users.byID, 1)
			_, err = service.Authenticate(ctx, pair.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("Refresh and Logout", func() {
		It("rotates the refresh token", func() {
			pair, err := service.Login(ctx, auth.LoginDTO{Email: "rep@example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			next, err := service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).NotTo(HaveOccurred())
			Expect(next.RefreshToken).NotTo(Equal(pair.RefreshToken))

			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("revokes both tokens on logout", func() {
			pair, err := service.Login(ctx, auth.LoginDTO{Email: "rep@example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Logout(ctx, pair.AccessToken, auth.LogoutDTO{RefreshToken: pair.RefreshToken})).To(Succeed())

			_, err = service.Authenticate(ctx, pair.AccessToken)
			Expect(err).To(MatchError(internal.ErrInvalidToken))
			_, err = service.Refresh(ctx, auth.RefreshTokenDTO{RefreshToken: pair.RefreshToken})
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})
	})

	Describe("AuthMiddleware", func() {
		var router *chi.Mux

		BeforeEach(func() {
			h := auth.NewHandler(transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil))), service)
			router = chi.NewRouter()
			router.Post("/auth/login", h.Login)
			router.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
					p, _ := internal.PrincipalFromContext(r.Context())
					_, _ = w.Write([]byte(p.Email))
				})
			})
		})

		It("rejects requests without a bearer token", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("puts the principal in the context", func() {
			pair, err := service.Login(ctx, auth.LoginDTO{Email: "rep@example.com", Password: "correct-horse"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("rep@example.com"))
		})

		It("returns 401 for bad credentials over HTTP", func() {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"rep@example.com","password":"nope"}`))
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Body.String()).To(ContainSubstring("INVALID_CREDENTIALS"))
		})
	})
})
