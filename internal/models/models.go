package models

import (
	"math"
	"time"
)

// User is an account synchronized from the external identity provider.
type User struct {
	ID        int64     `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Course is a purchasable catalog item. Read-only from this service.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	Price       float64   `db:"price" json:"price"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PriceMinorUnits converts the course price to payment-processor minor units
// (cents for USD).
func (c *Course) PriceMinorUnits() int64 {
	return int64(math.Round(c.Price * 100))
}

// Purchase is the entitlement record for one checkout attempt of a course by
// a user. CheckoutSessionID correlates the record with external payment
// confirmations; IsPaid only ever moves false to true.
type Purchase struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	CourseID          int64     `db:"course_id" json:"course_id"`
	IsPaid            bool      `db:"is_paid" json:"is_paid"`
	CheckoutSessionID string    `db:"checkout_session_id" json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// PurchaseWithCourse is a purchase joined with its course for listing.
type PurchaseWithCourse struct {
	Purchase
	CourseTitle    string  `db:"course_title" json:"course_title"`
	CourseImageURL string  `db:"course_image_url" json:"course_image_url"`
	CoursePrice    float64 `db:"course_price" json:"course_price"`
}

// MockSessionPrefix marks fallback checkout sessions created without a
// configured payment processor. Confirmation paths treat these ids as already
// authorized and never call the processor for them.
const MockSessionPrefix = "mock_session_"

// Confirmation sources for metrics and event payloads.
const (
	ConfirmSourceWebhook  = "webhook"
	ConfirmSourceVerify   = "verify"
	ConfirmSourceFallback = "fallback"
)

// ProcessedEvent for consumer-side idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
