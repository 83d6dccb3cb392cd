package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/modules/contact"
	"github.com/wyna/storefront/internal/modules/newsletter"
)

// Subscribers is an in-memory newsletter.Repository.
type Subscribers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*newsletter.Subscriber
}

var _ newsletter.Repository = (*Subscribers)(nil)

func NewSubscribers() *Subscribers {
	return &Subscribers{byID: make(map[uuid.UUID]*newsletter.Subscriber)}
}

func cloneSubscriber(s *newsletter.Subscriber) *newsletter.Subscriber {
	c := *s
	if s.UnsubscribedAt != nil {
		t := *s.UnsubscribedAt
		c.UnsubscribedAt = &t
	}
	return &c
}

func (r *Subscribers) Save(_ context.Context, s *newsletter.Subscriber) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Emails are unique, mirroring the table constraint.
	for id, existing := range r.byID {
		if id != s.ID && existing.Email == s.Email {
			return newsletter.ErrAlreadySubscribed
		}
	}
	r.byID[s.ID] = cloneSubscriber(s)
	return nil
}

func (r *Subscribers) GetByEmail(_ context.Context, email string) (*newsletter.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.byID {
		if s.Email == email {
			return cloneSubscriber(s), nil
		}
	}
	return nil, newsletter.ErrNotFound
}

func (r *Subscribers) List(_ context.Context, f newsletter.Filter) ([]*newsletter.Subscriber, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []*newsletter.Subscriber
	for _, s := range r.byID {
		if f.Active != nil && s.Active != *f.Active {
			continue
		}
		if search != "" &&
			!strings.Contains(s.Email, search) &&
			!strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		matched = append(matched, cloneSubscriber(s))
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, f.Page, f.Limit), len(matched), nil
}

func (r *Subscribers) Stats(_ context.Context, since time.Time) (*newsletter.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := &newsletter.Stats{}
	for _, s := range r.byID {
		st.Total++
		if s.Active {
			st.Active++
		} else {
			st.Unsubscribed++
		}
		if !s.CreatedAt.Before(since) {
			st.Recent++
		}
	}
	return st, nil
}

// Inquiries is an in-memory contact.Repository.
type Inquiries struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*contact.Inquiry
}

var _ contact.Repository = (*Inquiries)(nil)

func NewInquiries() *Inquiries {
	return &Inquiries{byID: make(map[uuid.UUID]*contact.Inquiry)}
}

func (r *Inquiries) Create(_ context.Context, in *contact.Inquiry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *in
	r.byID[in.ID] = &c
	return nil
}

func (r *Inquiries) Get(_ context.Context, id uuid.UUID) (*contact.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.byID[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	c := *in
	return &c, nil
}

func (r *Inquiries) List(_ context.Context, f contact.Filter) ([]*contact.Inquiry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []*contact.Inquiry
	for _, in := range r.byID {
		if f.Status != nil && in.Status != *f.Status {
			continue
		}
		if f.Category != nil && in.Category != *f.Category {
			continue
		}
		if search != "" && !containsAny(search, in.Name, in.Email, in.Subject, in.Message) {
			continue
		}
		c := *in
		matched = append(matched, &c)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return page(matched, f.Page, f.Limit), len(matched), nil
}

func (r *Inquiries) UpdateStatus(_ context.Context, id uuid.UUID, status contact.Status) (*contact.Inquiry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in, ok := r.byID[id]
	if !ok {
		return nil, contact.ErrNotFound
	}
	in.Status = status
	in.UpdatedAt = time.Now().UTC()
	c := *in
	return &c, nil
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Admins is an in-memory admin.Repository.
type Admins struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*admin.Admin
}

var _ admin.Repository = (*Admins)(nil)

func NewAdmins() *Admins {
	return &Admins{byID: make(map[uuid.UUID]*admin.Admin)}
}

func cloneAdmin(a *admin.Admin) *admin.Admin {
	c := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func (r *Admins) Create(_ context.Context, a *admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == a.Email {
			return admin.ErrDuplicate
		}
	}
	r.byID[a.ID] = cloneAdmin(a)
	return nil
}

func (r *Admins) Update(_ context.Context, a *admin.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[a.ID]
	if !ok {
		return admin.ErrNotFound
	}
	existing.Name = a.Name
	existing.PasswordHash = a.PasswordHash
	existing.Active = a.Active
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		existing.LastLoginAt = &t
	}
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Admins) GetByID(_ context.Context, id uuid.UUID) (*admin.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, admin.ErrNotFound
	}
	return cloneAdmin(a), nil
}

func (r *Admins) GetByEmail(_ context.Context, email string) (*admin.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.Email == email {
			return cloneAdmin(a), nil
		}
	}
	return nil, admin.ErrNotFound
}

func (r *Admins) List(_ context.Context) ([]*admin.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*admin.Admin, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, cloneAdmin(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
