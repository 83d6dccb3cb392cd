package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/platform/logging"
	"github.com/wyna/storefront/internal/platform/validate"
	"go.uber.org/zap"
)

const recentWindow = 30 * 24 * time.Hour

type Service interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error)
	Unsubscribe(ctx context.Context, req UnsubscribeRequest) error
	List(ctx context.Context, f Filter) ([]*Subscriber, int, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// Subscribe adds a new subscriber or reactivates one that unsubscribed
// earlier. An address that is already active is rejected.
func (s *service) Subscribe(ctx context.Context, req SubscribeRequest) (*Subscriber, error) {
	email := validate.NormalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if !validate.Email(email) {
		return nil, fmt.Errorf("%w: please include a valid email", ErrInvalidInput)
	}
	if !validate.Length(name, 0, 50) {
		return nil, fmt.Errorf("%w: name must be less than 50 characters", ErrInvalidInput)
	}

	now := s.now().UTC()
	sub, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		sub = &Subscriber{ID: uuid.New(), Email: email, Name: name, CreatedAt: now}
	case err != nil:
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	case sub.Active:
		return nil, ErrAlreadySubscribed
	default:
		if name != "" {
			sub.Name = name
		}
	}
	sub.Active = true
	sub.SubscribedAt = now
	sub.UnsubscribedAt = nil
	sub.UpdatedAt = now

	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("newsletter_subscribed", zap.String("subscriber_id", sub.ID.String()))
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, req UnsubscribeRequest) error {
	email := validate.NormalizeEmail(req.Email)
	if !validate.Email(email) {
		return fmt.Errorf("%w: please include a valid email", ErrInvalidInput)
	}
	sub, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrNotSubscribed
	}
	if err != nil {
		return fmt.Errorf("lookup subscriber: %w", err)
	}
	if !sub.Active {
		return ErrNotSubscribed
	}

	now := s.now().UTC()
	sub.Active = false
	sub.UnsubscribedAt = &now
	sub.UpdatedAt = now
	if err := s.repo.Save(ctx, sub); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("newsletter_unsubscribed", zap.String("subscriber_id", sub.ID.String()))
	return nil
}

func (s *service) List(ctx context.Context, f Filter) ([]*Subscriber, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.List(ctx, f)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, s.now().Add(-recentWindow))
}
