package contact

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/platform/logging"
	"github.com/wyna/storefront/internal/platform/validate"
	"go.uber.org/zap"
)

var phonePattern = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9]\d{9}$`)

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*Inquiry, error)
	Get(ctx context.Context, id string) (*Inquiry, error)
	List(ctx context.Context, f Filter) ([]*Inquiry, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Inquiry, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*Inquiry, error) {
	in := &Inquiry{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(req.Name),
		Email:    validate.NormalizeEmail(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		Category: req.Category,
		Status:   StatusNew,
	}
	if in.Category == "" {
		in.Category = CategoryGeneral
	}
	if err := check(in); err != nil {
		return nil, err
	}
	in.CreatedAt = s.now().UTC()
	in.UpdatedAt = in.CreatedAt

	if err := s.repo.Create(ctx, in); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("contact_submitted",
		zap.String("inquiry_id", in.ID.String()),
		zap.String("category", string(in.Category)),
	)
	return in, nil
}

func check(in *Inquiry) error {
	switch {
	case !validate.Length(in.Name, 2, 50):
		return fmt.Errorf("%w: name must be between 2 and 50 characters", ErrInvalidInput)
	case !validate.Email(in.Email):
		return fmt.Errorf("%w: please include a valid email", ErrInvalidInput)
	case in.Phone != "" && !phonePattern.MatchString(in.Phone):
		return fmt.Errorf("%w: please include a valid Indian phone number", ErrInvalidInput)
	case !validate.Length(in.Subject, 5, 100):
		return fmt.Errorf("%w: subject must be between 5 and 100 characters", ErrInvalidInput)
	case !validate.Length(in.Message, 10, 1000):
		return fmt.Errorf("%w: message must be between 10 and 1000 characters", ErrInvalidInput)
	case !in.Category.Valid():
		return fmt.Errorf("%w: invalid category", ErrInvalidInput)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id string) (*Inquiry, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, uid)
}

func (s *service) List(ctx context.Context, f Filter) ([]*Inquiry, int, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *f.Status)
	}
	if f.Category != nil && !f.Category.Valid() {
		return nil, 0, fmt.Errorf("%w: invalid category %q", ErrInvalidInput, *f.Category)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.List(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (*Inquiry, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	in, err := s.repo.UpdateStatus(ctx, uid, status)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("contact_status_updated",
		zap.String("inquiry_id", in.ID.String()),
		zap.String("status", string(status)),
	)
	return in, nil
}
