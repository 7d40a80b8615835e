package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/license-portal/internal/role"
)

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

// Principal is the authenticated caller. Roles are the grants loaded from the
// database; the "view as" selection never lands here.
type Principal struct {
	ID    int64
	Email string
	Name  string
	Roles role.Grants
}

// SystemPrincipal is the actor recorded for scheduled jobs.
var SystemPrincipal = &Principal{ID: 0, Email: "system", Roles: role.Grants{role.Admin}}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
