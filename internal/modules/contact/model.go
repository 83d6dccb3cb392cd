package contact

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("contact inquiry not found")
)

type Category string

const (
	CategoryGeneral       Category = "general"
	CategorySupport       Category = "support"
	CategorySales         Category = "sales"
	CategoryWholesale     Category = "wholesale"
	CategoryCustomization Category = "customization"
	CategoryFeedback      Category = "feedback"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategorySupport, CategorySales, CategoryWholesale,
		CategoryCustomization, CategoryFeedback:
		return true
	}
	return false
}

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Inquiry is one contact form submission.
type Inquiry struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SubmitRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
}

type Filter struct {
	Status   *Status
	Category *Category
	// Search matches name, email, subject or message.
	Search string
	Page   int
	Limit  int
}
