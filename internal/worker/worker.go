package worker

import (
	"context"
	"log"

	"edupay/internal/broker"
	"edupay/internal/service"
)

// EntitlementWorker consumes purchase events and projects confirmed
// entitlements into the access cache.
type EntitlementWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewEntitlementWorker creates a new entitlement worker
func NewEntitlementWorker(consumer *broker.Consumer, projector *service.EntitlementProjector) *EntitlementWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPurchaseConfirmed(projector.HandlePurchaseConfirmed)

	return &EntitlementWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *EntitlementWorker) Start(ctx context.Context) error {
	log.Println("Starting entitlement worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *EntitlementWorker) Stop() error {
	log.Println("Stopping entitlement worker...")
	return w.consumer.Close()
}
