package service

import (
	"context"
	"testing"
	"time"

	"edupay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedEvent(eventID string) *models.PurchaseConfirmedEvent {
	return &models.PurchaseConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   eventID,
			EventType: models.EventTypePurchaseConfirmed,
			Timestamp: time.Now(),
		},
		PurchaseID:        1,
		UserID:            1,
		CourseID:          10,
		CheckoutSessionID: "cs_1",
		Source:            models.ConfirmSourceWebhook,
	}
}

func TestProjectorWarmsAccessCache(t *testing.T) {
	cache := newFakeAccessCache()
	p := NewEntitlementProjector(newFakeEventStore(), cache)

	require.NoError(t, p.HandlePurchaseConfirmed(context.Background(), confirmedEvent("evt_1")))

	cached, err := cache.HasCachedAccess(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestProjectorDeduplicatesRedelivery(t *testing.T) {
	cache := newFakeAccessCache()
	p := NewEntitlementProjector(newFakeEventStore(), cache)
	ctx := context.Background()

	require.NoError(t, p.HandlePurchaseConfirmed(ctx, confirmedEvent("evt_1")))
	require.NoError(t, p.HandlePurchaseConfirmed(ctx, confirmedEvent("evt_1")))

	assert.Equal(t, 1, cache.writes)
}
