package models

import "time"

// Event types
const (
	EventTypeCheckoutInitiated = "CHECKOUT_INITIATED"
	EventTypePurchaseConfirmed = "PURCHASE_CONFIRMED"
	EventTypeUserRegistered    = "USER_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutInitiatedEvent published when a pending purchase is created
type CheckoutInitiatedEvent struct {
	BaseEvent
	PurchaseID        int64  `json:"purchase_id"`
	UserID            int64  `json:"user_id"`
	CourseID          int64  `json:"course_id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	AmountMinor       int64  `json:"amount_minor"`
}

// PurchaseConfirmedEvent published the first time a purchase flips to paid
type PurchaseConfirmedEvent struct {
	BaseEvent
	PurchaseID        int64  `json:"purchase_id"`
	UserID            int64  `json:"user_id"`
	CourseID          int64  `json:"course_id"`
	CheckoutSessionID string `json:"checkout_session_id"`
	Source            string `json:"source"`
}

// UserRegisteredEvent published when an identity-provider user is first seen
type UserRegisteredEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
}
