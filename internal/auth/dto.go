package auth

import "github.com/frahmantamala/license-portal/internal/core/common/validation"

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (d LoginDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d RefreshTokenDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

// LogoutDTO optionally names the refresh token to revoke along with the
// access token presented in the Authorization header.
type LogoutDTO struct {
	RefreshToken string `json:"refresh_token"`
}
