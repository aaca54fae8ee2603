// Package service implements the checkout, reconciliation, and access-gate
// business logic. Collaborators are injected through the interfaces below so
// that handlers wire concrete clients and tests substitute fakes.
package service

import (
	"context"
	"errors"

	"edupay/internal/models"
	"edupay/internal/payment"
)

var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrCourseNotFound   = errors.New("course not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrCheckoutFailed   = errors.New("failed to create checkout session")
)

// PurchaseStore persists entitlement records.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	GetPurchaseBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error)
	MarkPurchasePaidBySessionID(ctx context.Context, sessionID string) (*models.Purchase, bool, error)
	HasPaidPurchase(ctx context.Context, userID, courseID int64) (bool, error)
	GetPurchasesByUserID(ctx context.Context, userID int64) ([]models.PurchaseWithCourse, error)
}

// CatalogStore reads the course catalog.
type CatalogStore interface {
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetCourses(ctx context.Context) ([]models.Course, error)
}

// UserStore persists identity-provider users.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) (bool, error)
	GetUserBySubject(ctx context.Context, subjectID string) (*models.User, error)
}

// EventStore tracks consumed event ids for at-least-once delivery dedupe.
type EventStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// PaymentProvider is the processor client. Configured() distinguishes a live
// client from the credential-less fallback mode.
type PaymentProvider interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*payment.SessionStatus, error)
	RetrieveReceipt(ctx context.Context, sessionID string) (*payment.Receipt, error)
}

// EventSink publishes domain events to the broker.
type EventSink interface {
	PublishCheckoutInitiated(ctx context.Context, event *models.CheckoutInitiatedEvent) error
	PublishPurchaseConfirmed(ctx context.Context, event *models.PurchaseConfirmedEvent) error
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
}

// AccessCache caches positive entitlements.
type AccessCache interface {
	CacheAccess(ctx context.Context, userID, courseID int64) error
	HasCachedAccess(ctx context.Context, userID, courseID int64) (bool, error)
}
