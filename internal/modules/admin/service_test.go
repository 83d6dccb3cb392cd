package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/platform/memstore"
)

var clock = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newService() admin.Service {
	return admin.NewFastService(memstore.NewAdmins(), func() time.Time { return clock })
}

func TestCreate_HashesPassword(t *testing.T) {
	svc := newService()

	a, err := svc.Create(context.Background(), admin.CreateRequest{Name: "Store Owner", Email: "Owner@Wyna.in", Password: "s3cret!"})
	require.NoError(t, err)

	assert.Equal(t, "owner@wyna.in", a.Email)
	assert.True(t, a.Active)
	assert.NotEqual(t, "s3cret!", a.PasswordHash)
	assert.NotEmpty(t, a.PasswordHash)
}

func TestCreate_Validation(t *testing.T) {
	tests := map[string]admin.CreateRequest{
		"short name":     {Name: "O", Email: "owner@wyna.in", Password: "s3cret!"},
		"bad email":      {Name: "Owner", Email: "owner", Password: "s3cret!"},
		"short password": {Name: "Owner", Email: "owner@wyna.in", Password: "12345"},
	}
	svc := newService()
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, admin.ErrInvalidInput)
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin.CreateRequest{Name: "Owner", Email: "owner@wyna.in", Password: "s3cret!"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin.CreateRequest{Name: "Other", Email: "OWNER@wyna.in", Password: "another1"})
	assert.ErrorIs(t, err, admin.ErrDuplicate)
}

func TestAuthenticate(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, admin.CreateRequest{Name: "Owner", Email: "owner@wyna.in", Password: "s3cret!"})
	require.NoError(t, err)

	a, err := svc.Authenticate(ctx, " OWNER@wyna.in", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, created.ID, a.ID)
	require.NotNil(t, a.LastLoginAt)
	assert.Equal(t, clock, *a.LastLoginAt)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	_, err = svc.Authenticate(ctx, "owner@wyna.in", "wrong")
	assert.ErrorIs(t, err, admin.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@wyna.in", "s3cret!")
	assert.ErrorIs(t, err, admin.ErrInvalidCredentials)

	_, err = svc.SetActive(ctx, created.ID, false)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "owner@wyna.in", "s3cret!")
	assert.ErrorIs(t, err, admin.ErrInactive)
}

func TestList(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	for _, e := range []string{"a@wyna.in", "b@wyna.in"} {
		_, err := svc.Create(ctx, admin.CreateRequest{Name: "Staff", Email: e, Password: "s3cret!"})
		require.NoError(t, err)
	}
	admins, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = svc.SetActive(ctx, admins[0].ID, false)
	require.NoError(t, err)
	got, err := svc.Get(ctx, admins[0].ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
