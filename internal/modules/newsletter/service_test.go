package newsletter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/newsletter"
	"github.com/wyna/storefront/internal/platform/memstore"
)

func newService() newsletter.Service {
	return newsletter.NewService(memstore.NewSubscribers())
}

func TestSubscribe_NormalizesEmail(t *testing.T) {
	svc := newService()

	sub, err := svc.Subscribe(context.Background(), newsletter.SubscribeRequest{Email: "  Asha@Example.com ", Name: " Asha "})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", sub.Email)
	assert.Equal(t, "Asha", sub.Name)
	assert.True(t, sub.Active)
	assert.Nil(t, sub.UnsubscribedAt)
}

func TestSubscribe_Validation(t *testing.T) {
	svc := newService()
	tests := map[string]newsletter.SubscribeRequest{
		"missing email": {},
		"bad email":     {Email: "asha-at-example"},
		"long name":     {Email: "a@example.com", Name: "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijX"},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Subscribe(context.Background(), req)
			assert.ErrorIs(t, err, newsletter.ErrInvalidInput)
		})
	}
}

func TestSubscribe_ActiveTwiceRejected(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, newsletter.SubscribeRequest{Email: "asha@example.com"})
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, newsletter.SubscribeRequest{Email: "ASHA@example.com"})
	assert.ErrorIs(t, err, newsletter.ErrAlreadySubscribed)
}

func TestUnsubscribeThenResubscribe(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, newsletter.SubscribeRequest{Email: "asha@example.com", Name: "Asha"})
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, newsletter.UnsubscribeRequest{Email: "asha@example.com"}))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, newsletter.UnsubscribeRequest{Email: "asha@example.com"}), newsletter.ErrNotSubscribed)

	again, err := svc.Subscribe(ctx, newsletter.SubscribeRequest{Email: "asha@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.Active)
	assert.Nil(t, again.UnsubscribedAt)
	assert.Equal(t, "Asha", again.Name, "an empty name keeps the stored one")
}

func TestUnsubscribe_Unknown(t *testing.T) {
	err := newService().Unsubscribe(context.Background(), newsletter.UnsubscribeRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, newsletter.ErrNotSubscribed)
}

func TestListAndStats(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	for _, e := range []string{"asha@example.com", "ravi@example.com", "meera@shop.in"} {
		_, err := svc.Subscribe(ctx, newsletter.SubscribeRequest{Email: e})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Unsubscribe(ctx, newsletter.UnsubscribeRequest{Email: "ravi@example.com"}))

	subs, total, err := svc.List(ctx, newsletter.Filter{Search: "example"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, subs, 2)

	active := true
	_, total, err = svc.List(ctx, newsletter.Filter{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	subs, total, err = svc.List(ctx, newsletter.Filter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, subs, 1)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, newsletter.Stats{Total: 3, Active: 2, Unsubscribed: 1, Recent: 3}, *st)
}
