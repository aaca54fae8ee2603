package service

import (
	"context"
	"strings"
	"testing"

	"edupay/internal/models"
	"edupay/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutFixture(configured bool) (*CheckoutService, *fakePurchaseStore, *fakePayments, *fakeEvents) {
	purchases := newFakePurchaseStore()
	catalog := &fakeCatalogStore{courses: map[int64]*models.Course{
		10: {ID: 10, Title: "Distributed Systems", Description: "From logs to consensus", Price: 49.99},
	}}
	users := newFakeUserStore()
	users.add("subj_1", "alice@example.com", "Alice")
	payments := &fakePayments{
		configured: configured,
		session:    payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"},
	}
	events := &fakeEvents{}
	svc := NewCheckoutService(purchases, catalog, users, payments, events, "http://localhost:3000")
	return svc, purchases, payments, events
}

func TestCreateCheckoutChargesMinorUnits(t *testing.T) {
	svc, purchases, payments, events := checkoutFixture(true)

	result, err := svc.CreateCheckout(context.Background(), "subj_1", 10)

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", result.CheckoutURL)
	assert.Equal(t, int64(4999), payments.lastParams.AmountMinor)

	created := purchases.bySession("cs_test_1")
	require.NotNil(t, created)
	assert.False(t, created.IsPaid)
	assert.Len(t, events.initiated, 1)
}

func TestCreateCheckoutUnauthenticated(t *testing.T) {
	svc, purchases, _, _ := checkoutFixture(true)

	_, err := svc.CreateCheckout(context.Background(), "", 10)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 0, purchases.count())
}

func TestCreateCheckoutUnknownSubject(t *testing.T) {
	svc, _, _, _ := checkoutFixture(true)

	_, err := svc.CreateCheckout(context.Background(), "subj_missing", 10)

	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateCheckoutCourseNotFound(t *testing.T) {
	svc, purchases, _, _ := checkoutFixture(true)

	_, err := svc.CreateCheckout(context.Background(), "subj_1", 999)

	assert.ErrorIs(t, err, ErrCourseNotFound)
	assert.Equal(t, 0, purchases.count())
}

func TestCreateCheckoutProcessorFailureLeavesNoState(t *testing.T) {
	svc, purchases, payments, _ := checkoutFixture(true)
	payments.createErr = assert.AnError

	_, err := svc.CreateCheckout(context.Background(), "subj_1", 10)

	assert.ErrorIs(t, err, ErrCheckoutFailed)
	assert.Equal(t, 0, purchases.count(), "no purchase without a session id")
}

func TestCreateCheckoutFallbackWithoutProcessor(t *testing.T) {
	svc, purchases, _, _ := checkoutFixture(false)

	result, err := svc.CreateCheckout(context.Background(), "subj_1", 10)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.SessionID, models.MockSessionPrefix))
	assert.Contains(t, result.CheckoutURL, "session_id="+result.SessionID)

	created := purchases.bySession(result.SessionID)
	require.NotNil(t, created)
	assert.True(t, created.IsPaid, "fallback purchases are confirmed immediately")
}

// Full purchase flow: initiate checkout at 49.99, deliver the completion
// webhook twice, and confirm the entitlement converges once.
func TestCheckoutThenDuplicateWebhookScenario(t *testing.T) {
	svc, purchases, payments, _ := checkoutFixture(true)
	events := &fakeEvents{}
	r := NewReconciler(purchases, payments, events)
	ctx := context.Background()

	result, err := svc.CreateCheckout(ctx, "subj_1", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4999), payments.lastParams.AmountMinor)
	require.False(t, purchases.bySession(result.SessionID).IsPaid)

	require.NoError(t, r.HandleCheckoutCompleted(ctx, result.SessionID))
	assert.True(t, purchases.bySession(result.SessionID).IsPaid)

	require.NoError(t, r.HandleCheckoutCompleted(ctx, result.SessionID))
	got := purchases.bySession(result.SessionID)
	assert.True(t, got.IsPaid)
	assert.Equal(t, result.SessionID, got.CheckoutSessionID)
	assert.Equal(t, 1, events.confirmedCount())
}
