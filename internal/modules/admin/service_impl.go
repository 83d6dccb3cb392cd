package admin

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
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type service struct {
	repo Repository
	cost int
	now  func() time.Time
}

// NewService creates an admin service hashing with bcrypt.DefaultCost.
func NewService(repo Repository) Service {
	return &service{repo: repo, cost: bcrypt.DefaultCost, now: time.Now}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Admin, error) {
	name := strings.TrimSpace(req.Name)
	email := validate.NormalizeEmail(req.Email)
	switch {
	case !validate.Length(name, 2, 50):
		return nil, fmt.Errorf("%w: name must be between 2 and 50 characters", ErrInvalidInput)
	case !validate.Email(email):
		return nil, fmt.Errorf("%w: please include a valid email", ErrInvalidInput)
	case len(req.Password) < minPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &Admin{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("admin_created", zap.String("admin_id", a.ID.String()))
	return a, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Admin, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]*Admin, error) {
	return s.repo.List(ctx)
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Admin, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Active = active
	a.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*Admin, error) {
	a, err := s.repo.GetByEmail(ctx, validate.NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !a.Active {
		return nil, ErrInactive
	}

	now := s.now().UTC()
	a.LastLoginAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		// A failed timestamp write does not block the login.
		logging.FromContext(ctx).Warn("admin_last_login_update_failed", zap.Error(err))
	}
	return a, nil
}
