package auth

import (
	"time"

	"github.com/wyna/storefront/internal/modules/admin"
)

func NewServiceWithClock(admins admin.Service, secret string, now func() time.Time) Service {
	return &service{admins: admins, secret: []byte(secret), now: now}
}
