package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"edupay/internal/models"
	"edupay/internal/payment"
	"edupay/internal/store"
	"edupay/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService initiates checkout sessions against the payment processor.
type CheckoutService struct {
	purchases PurchaseStore
	catalog   CatalogStore
	users     UserStore
	payments  PaymentProvider
	events    EventSink
	baseURL   string
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	purchases PurchaseStore,
	catalog CatalogStore,
	users UserStore,
	payments PaymentProvider,
	events EventSink,
	baseURL string,
) *CheckoutService {
	return &CheckoutService{
		purchases: purchases,
		catalog:   catalog,
		users:     users,
		payments:  payments,
		events:    events,
		baseURL:   baseURL,
		logger:    util.GetLogger(),
	}
}

// CheckoutResult is returned to the browser for redirect.
type CheckoutResult struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// CreateCheckout creates a checkout session for the authenticated subject and
// records a pending purchase correlated by the session id. The purchase row
// is written only after the processor call succeeds, so a processor failure
// leaves no partial state.
func (s *CheckoutService) CreateCheckout(ctx context.Context, subjectID string, courseID int64) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateCheckout")
	defer span.End()

	if subjectID == "" {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetUserBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	course, err := s.catalog.GetCourseByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}

	if !s.payments.Configured() {
		return s.createFallbackCheckout(ctx, user, course)
	}

	sess, err := s.payments.CreateCheckoutSession(ctx, payment.CheckoutParams{
		CourseTitle:       course.Title,
		CourseDescription: course.Description,
		CourseImageURL:    course.ImageURL,
		AmountMinor:       course.PriceMinorUnits(),
		CustomerEmail:     user.Email,
		SuccessURL:        fmt.Sprintf("%s/success?session_id={CHECKOUT_SESSION_ID}&course=%d", s.baseURL, course.ID),
		CancelURL:         fmt.Sprintf("%s/courses/%d?canceled=true", s.baseURL, course.ID),
		Metadata: map[string]string{
			"user_id":   strconv.FormatInt(user.ID, 10),
			"course_id": strconv.FormatInt(course.ID, 10),
		},
	})
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("processor_error").Inc()
		s.logger.Error("Checkout session creation failed",
			zap.Int64("course_id", course.ID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	purchase := &models.Purchase{
		UserID:            user.ID,
		CourseID:          course.ID,
		IsPaid:            false,
		CheckoutSessionID: sess.ID,
	}
	if err := s.purchases.CreatePurchase(ctx, purchase); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	util.CheckoutSessionsCreatedTotal.Inc()
	s.logger.Info("Checkout session created",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("course_id", course.ID),
		zap.String("session_id", sess.ID),
		zap.Int64("amount_minor", course.PriceMinorUnits()))

	event := &models.CheckoutInitiatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCheckoutInitiated,
			Timestamp: time.Now(),
		},
		PurchaseID:        purchase.ID,
		UserID:            user.ID,
		CourseID:          course.ID,
		CheckoutSessionID: sess.ID,
		AmountMinor:       course.PriceMinorUnits(),
	}
	if err := s.events.PublishCheckoutInitiated(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutInitiated event", zap.Error(err))
	}

	return &CheckoutResult{CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

// createFallbackCheckout handles environments without processor credentials:
// the purchase is recorded paid immediately under a reserved pseudo-session id
// and the browser is sent straight to the success page.
func (s *CheckoutService) createFallbackCheckout(ctx context.Context, user *models.User, course *models.Course) (*CheckoutResult, error) {
	sessionID := models.MockSessionPrefix + strconv.FormatInt(time.Now().UnixMilli(), 10)

	purchase := &models.Purchase{
		UserID:            user.ID,
		CourseID:          course.ID,
		IsPaid:            true,
		CheckoutSessionID: sessionID,
	}
	if err := s.purchases.CreatePurchase(ctx, purchase); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	util.PurchasesConfirmedTotal.WithLabelValues(models.ConfirmSourceFallback).Inc()
	s.logger.Warn("Payment processor not configured, created pre-paid purchase",
		zap.Int64("purchase_id", purchase.ID),
		zap.String("session_id", sessionID))

	return &CheckoutResult{
		CheckoutURL: fmt.Sprintf("%s/success?course=%d&session_id=%s", s.baseURL, course.ID, sessionID),
		SessionID:   sessionID,
	}, nil
}
