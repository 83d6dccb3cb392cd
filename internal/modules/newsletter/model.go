package newsletter

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadySubscribed = errors.New("already subscribed to newsletter")
	ErrNotSubscribed     = errors.New("not subscribed to newsletter")
	ErrNotFound          = errors.New("subscriber not found")
)

type Subscriber struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name,omitempty"`
	Active         bool       `json:"subscribed"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type SubscribeRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type UnsubscribeRequest struct {
	Email string `json:"email"`
}

// Filter narrows the admin subscriber list. Search matches email or name.
type Filter struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}

type Stats struct {
	Total        int `json:"total_subscribers"`
	Active       int `json:"active_subscribers"`
	Unsubscribed int `json:"unsubscribed_subscribers"`
	Recent       int `json:"recent_subscriptions"`
}
