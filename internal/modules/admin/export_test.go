package admin

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// NewFastService hashes with bcrypt.MinCost so tests stay quick.
func NewFastService(repo Repository, now func() time.Time) Service {
	return &service{repo: repo, cost: bcrypt.MinCost, now: now}
}
