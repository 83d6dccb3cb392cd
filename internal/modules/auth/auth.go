package auth

import (
	"context"
	"errors"
	"time"

	"github.com/wyna/storefront/internal/modules/admin"
)

// ErrUnauthorized covers every token failure: missing, malformed, expired,
// badly signed, or naming an admin that no longer exists or is inactive.
var ErrUnauthorized = errors.New("not authorized to access this route")

// TokenTTL is how long an issued admin token stays valid.
const TokenTTL = 7 * 24 * time.Hour

// Service defines admin authentication.
type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// Authenticate resolves a bearer token to an active admin.
	Authenticate(ctx context.Context, token string) (*admin.Admin, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     *admin.Admin `json:"admin"`
}
