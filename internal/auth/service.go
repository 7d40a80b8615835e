package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/user"
)

// UserFinder is the slice of the user service that authentication needs.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

type TokenGenerator interface {
	GeneratePair(userID int64, email string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

type Service struct {
	users   UserFinder
	tokens  TokenGenerator
	revoked RevocationStore
	now     func() time.Time
	logger  *slog.Logger
}

func NewService(users UserFinder, tokens TokenGenerator, revoked RevocationStore, logger *slog.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		now:     time.Now,
		logger:  logger,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login checks the credentials and the account state, then issues a token
// pair. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.FindByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed", "user_id", u.ID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if err := u.CanLogin(s.now()); err != nil {
		s.logger.Warn("login refused", "user_id", u.ID, "error", err)
		return AuthTokens{}, err
	}

	tokens, err := s.tokens.GeneratePair(u.ID, u.Email)
	if err != nil {
		s.logger.Error("failed to issue tokens", "user_id", u.ID, "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to issue tokens", err)
	}
	s.logger.Info("user logged in", "user_id", u.ID)
	return tokens, nil
}

// Refresh rotates the pair: the presented refresh token is revoked and a new
// pair is issued if the account may still sign in.
func (s *Service) Refresh(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, err
	}

	s.revoke(ctx, claims)
	tokens, err := s.tokens.GeneratePair(u.ID, u.Email)
	if err != nil {
		s.logger.Error("failed to issue tokens", "user_id", u.ID, "error", err)
		return AuthTokens{}, internal.NewInternalError("failed to issue tokens", err)
	}
	return tokens, nil
}

// Logout revokes the access token and, when given, the refresh token.
func (s *Service) Logout(ctx context.Context, accessToken string, dto LogoutDTO) error {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return err
	}
	s.revoke(ctx, claims)

	if dto.RefreshToken != "" {
		refresh, err := s.tokens.ValidateRefreshToken(dto.RefreshToken)
		if err != nil {
			return err
		}
		if refresh.UserID != claims.UserID {
			return internal.ErrInvalidToken
		}
		s.revoke(ctx, refresh)
	}
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// Authenticate resolves an access token to the caller. Grants come from the
// stored user so role changes apply on the next request.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*internal.Principal, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	u, err := s.loadActive(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

func (s *Service) loadActive(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	if err := u.CanLogin(s.now()); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) checkRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token revocation", "user_id", claims.UserID, "error", err)
		return internal.NewInternalError("failed to verify token", err)
	}
	if revoked {
		return internal.ErrInvalidToken
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, claims *Claims) {
	if claims.ExpiresAt == nil {
		return
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("failed to revoke token", "user_id", claims.UserID, "token_type", claims.TokenType, "error", err)
	}
}
