package newsletter

import (
	"context"
	"time"
)

// Repository stores subscribers keyed by their normalized email.
type Repository interface {
	// Save inserts s or, when its id already exists, overwrites it.
	Save(ctx context.Context, s *Subscriber) error
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)
	List(ctx context.Context, f Filter) ([]*Subscriber, int, error)
	// Stats counts subscribers; Recent covers those created at or after since.
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}
