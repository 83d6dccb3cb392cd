package admin

import (
	"context"

	"github.com/google/uuid"
)

// Service defines back-office account management.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Admin, error)
	Get(ctx context.Context, id uuid.UUID) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Admin, error)
	// Authenticate checks email and password and records the login time.
	Authenticate(ctx context.Context, email, password string) (*Admin, error)
}
