package service

import (
	"context"
	"fmt"

	"edupay/internal/models"
	"edupay/internal/util"

	"go.uber.org/zap"
)

// EntitlementProjector consumes purchase events from the broker and projects
// them into the access cache, so that the gate answers from redis for freshly
// confirmed purchases. Consumption is at-least-once; the processed_events
// table suppresses duplicates.
type EntitlementProjector struct {
	events EventStore
	cache  AccessCache
	logger *zap.Logger
}

// NewEntitlementProjector creates a new entitlement projector
func NewEntitlementProjector(events EventStore, cache AccessCache) *EntitlementProjector {
	return &EntitlementProjector{
		events: events,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// HandlePurchaseConfirmed warms the access cache for a confirmed purchase.
func (p *EntitlementProjector) HandlePurchaseConfirmed(ctx context.Context, event *models.PurchaseConfirmedEvent) error {
	ctx, span := util.StartSpan(ctx, "EntitlementProjector.HandlePurchaseConfirmed")
	defer span.End()

	processed, err := p.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		p.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := p.cache.CacheAccess(ctx, event.UserID, event.CourseID); err != nil {
		p.logger.Error("Failed to warm access cache",
			zap.Int64("user_id", event.UserID),
			zap.Int64("course_id", event.CourseID),
			zap.Error(err))
	}

	if err := p.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		p.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	p.logger.Info("Entitlement projected",
		zap.Int64("purchase_id", event.PurchaseID),
		zap.Int64("user_id", event.UserID),
		zap.Int64("course_id", event.CourseID),
		zap.String("source", event.Source))
	return nil
}
