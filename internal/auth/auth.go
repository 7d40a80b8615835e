package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/frahmantamala/license-portal/internal"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims represents JWT token claims. Roles are never carried in the token;
// they are loaded from the database on every request.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	now                func() time.Time
}

func NewJWTTokenGenerator(cfg internal.SecurityConfig) *JWTTokenGenerator {
	g := &JWTTokenGenerator{
		AccessTokenSecret:  []byte(cfg.AccessTokenSecret),
		RefreshTokenSecret: []byte(cfg.RefreshTokenSecret),
		AccessTokenTTL:     cfg.AccessTokenDuration,
		RefreshTokenTTL:    cfg.RefreshTokenDuration,
		now:                time.Now,
	}
	if g.AccessTokenTTL <= 0 {
		g.AccessTokenTTL = 15 * time.Minute
	}
	if g.RefreshTokenTTL <= 0 {
		g.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return g
}

func (j *JWTTokenGenerator) WithClock(now func() time.Time) *JWTTokenGenerator {
	j.now = now
	return j
}

func (j *JWTTokenGenerator) secret(tokenType string) []byte {
	if tokenType == TokenTypeRefresh {
		return j.RefreshTokenSecret
	}
	return j.AccessTokenSecret
}

func (j *JWTTokenGenerator) generate(userID int64, email, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret(tokenType))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// GeneratePair issues a fresh access and refresh token for the user.
func (j *JWTTokenGenerator) GeneratePair(userID int64, email string) (AuthTokens, error) {
	access, expiresAt, err := j.generate(userID, email, TokenTypeAccess, j.AccessTokenTTL)
	if err != nil {
		return AuthTokens{}, err
	}
	refresh, _, err := j.generate(userID, email, TokenTypeRefresh, j.RefreshTokenTTL)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeAccess)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, TokenTypeRefresh)
}

// validate checks the signature with the secret of the expected token type,
// so a refresh token is never accepted as an access token or the reverse.
func (j *JWTTokenGenerator) validate(tokenString, tokenType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret(tokenType), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType || claims.UserID <= 0 {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
