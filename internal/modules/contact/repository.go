package contact

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, in *Inquiry) error
	Get(ctx context.Context, id uuid.UUID) (*Inquiry, error)
	List(ctx context.Context, f Filter) ([]*Inquiry, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Inquiry, error)
}
