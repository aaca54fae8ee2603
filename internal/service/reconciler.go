package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edupay/internal/models"
	"edupay/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler converges the two payment confirmation channels (processor
// webhook and browser-redirect verify) onto the entitlement store. Both
// funnel into MarkPaid, a single idempotent mutation keyed by checkout
// session id, so arbitrary interleaving and redelivery are safe.
type Reconciler struct {
	purchases PurchaseStore
	payments  PaymentProvider
	events    EventSink
	logger    *zap.Logger
}

// NewReconciler creates a new payment confirmation reconciler
func NewReconciler(purchases PurchaseStore, payments PaymentProvider, events EventSink) *Reconciler {
	return &Reconciler{
		purchases: purchases,
		payments:  payments,
		events:    events,
		logger:    util.GetLogger(),
	}
}

// MarkPaid flips the purchase matching the session id to paid. Applying it
// again after a successful application is a no-op that still succeeds. A
// PurchaseConfirmed event is published only on the first transition.
func (r *Reconciler) MarkPaid(ctx context.Context, sessionID, source string) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.MarkPaid")
	defer span.End()

	purchase, transitioned, err := r.purchases.MarkPurchasePaidBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark purchase paid: %w", err)
	}
	if purchase == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrPurchaseNotFound)
	}

	if !transitioned {
		util.PurchaseConfirmRedeliveriesTotal.Inc()
		r.logger.Info("Purchase already confirmed",
			zap.Int64("purchase_id", purchase.ID),
			zap.String("session_id", sessionID),
			zap.String("source", source))
		return purchase, nil
	}

	util.PurchasesConfirmedTotal.WithLabelValues(source).Inc()
	r.logger.Info("Purchase confirmed",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int64("user_id", purchase.UserID),
		zap.Int64("course_id", purchase.CourseID),
		zap.String("session_id", sessionID),
		zap.String("source", source))

	event := &models.PurchaseConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePurchaseConfirmed,
			Timestamp: time.Now(),
		},
		PurchaseID:        purchase.ID,
		UserID:            purchase.UserID,
		CourseID:          purchase.CourseID,
		CheckoutSessionID: sessionID,
		Source:            source,
	}
	if err := r.events.PublishPurchaseConfirmed(ctx, event); err != nil {
		r.logger.Error("Failed to publish PurchaseConfirmed event", zap.Error(err))
	}

	return purchase, nil
}

// HandleCheckoutCompleted processes a "checkout completed" webhook event. An
// unknown session id is acknowledged as a no-op: the event may be a redelivery
// for a session this service did not initiate. Any other failure propagates so
// the caller returns an error response and the processor redelivers.
func (r *Reconciler) HandleCheckoutCompleted(ctx context.Context, sessionID string) error {
	ctx, span := util.StartSpan(ctx, "Reconciler.HandleCheckoutCompleted")
	defer span.End()

	_, err := r.MarkPaid(ctx, sessionID, models.ConfirmSourceWebhook)
	if errors.Is(err, ErrPurchaseNotFound) {
		r.logger.Warn("Checkout completed for unknown session",
			zap.String("session_id", sessionID))
		return nil
	}
	return err
}

// VerifySession is the browser-redirect confirmation path. It reports whether
// the session is paid; "not paid" is a legitimate false, not an error. For
// fallback sessions (or when no processor is configured) the matching purchase
// is confirmed directly without consulting the processor.
func (r *Reconciler) VerifySession(ctx context.Context, sessionID string) (bool, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.VerifySession")
	defer span.End()

	if !r.payments.Configured() || strings.HasPrefix(sessionID, models.MockSessionPrefix) {
		_, err := r.MarkPaid(ctx, sessionID, models.ConfirmSourceFallback)
		if errors.Is(err, ErrPurchaseNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}

	status, err := r.payments.RetrieveSession(ctx, sessionID)
	if err != nil {
		r.logger.Warn("Session retrieval failed during verify",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false, nil
	}

	if !status.Paid {
		r.logger.Info("Session not paid",
			zap.String("session_id", sessionID),
			zap.String("payment_status", status.PaymentStatus))
		return false, nil
	}

	_, err = r.MarkPaid(ctx, sessionID, models.ConfirmSourceVerify)
	if errors.Is(err, ErrPurchaseNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
