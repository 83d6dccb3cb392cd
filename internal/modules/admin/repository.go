package admin

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores admin accounts. Emails are unique.
type Repository interface {
	Create(ctx context.Context, a *Admin) error
	// Update writes name, password hash, active flag and last login.
	Update(ctx context.Context, a *Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
}
