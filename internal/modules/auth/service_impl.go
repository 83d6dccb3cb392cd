package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/platform/logging"
	"go.uber.org/zap"
)

type service struct {
	admins admin.Service
	secret []byte
	now    func() time.Time
}

// NewService creates an auth service signing HS256 tokens with secret.
func NewService(admins admin.Service, secret string) Service {
	return &service{admins: admins, secret: []byte(secret), now: time.Now}
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	a, err := s.admins.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, admin.ErrInvalidCredentials) || errors.Is(err, admin.ErrInactive) {
			logging.FromContext(ctx).Info("admin_login_rejected", zap.Error(err))
		}
		return nil, err
	}

	now := s.now()
	expirationTime := now.Add(TokenTTL)
	claims := &jwt.StandardClaims{
		Subject:   a.ID.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: expirationTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	logging.FromContext(ctx).Info("admin_logged_in", zap.String("admin_id", a.ID.String()))
	return &Session{Token: tokenString, ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(), Admin: a}, nil
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (*admin.Admin, error) {
	claims := &jwt.StandardClaims{}
	// Expiry is checked below against s.now rather than the package clock.
	parser := &jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, ErrUnauthorized
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthorized
	}
	a, err := s.admins.Get(ctx, id)
	if errors.Is(err, admin.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return nil, ErrUnauthorized
	}
	return a, nil
}
