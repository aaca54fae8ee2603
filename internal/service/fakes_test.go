package service

import (
	"context"
	"fmt"
	"sync"

	"edupay/internal/models"
	"edupay/internal/payment"
	"edupay/internal/store"
)

// In-memory collaborators for exercising the services without Postgres,
// Redis, Kafka, or Stripe.

type fakePurchaseStore struct {
	mu        sync.Mutex
	nextID    int64
	purchases []*models.Purchase
	calls     int
}

func newFakePurchaseStore() *fakePurchaseStore {
	return &fakePurchaseStore{}
}

func (f *fakePurchaseStore) CreatePurchase(_ context.Context, p *models.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	stored := *p
	f.purchases = append(f.purchases, &stored)
	return nil
}

func (f *fakePurchaseStore) GetPurchaseBySessionID(_ context.Context, sessionID string) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.purchases {
		if p.CheckoutSessionID == sessionID && sessionID != "" {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePurchaseStore) MarkPurchasePaidBySessionID(_ context.Context, sessionID string) (*models.Purchase, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.purchases {
		if p.CheckoutSessionID == sessionID && sessionID != "" {
			transitioned := !p.IsPaid
			p.IsPaid = true
			copied := *p
			return &copied, transitioned, nil
		}
	}
	return nil, false, nil
}

func (f *fakePurchaseStore) HasPaidPurchase(_ context.Context, userID, courseID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, p := range f.purchases {
		if p.UserID == userID && p.CourseID == courseID && p.IsPaid {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePurchaseStore) GetPurchasesByUserID(_ context.Context, userID int64) ([]models.PurchaseWithCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PurchaseWithCourse
	for _, p := range f.purchases {
		if p.UserID == userID {
			out = append(out, models.PurchaseWithCourse{Purchase: *p})
		}
	}
	return out, nil
}

func (f *fakePurchaseStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.purchases)
}

func (f *fakePurchaseStore) bySession(sessionID string) *models.Purchase {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.purchases {
		if p.CheckoutSessionID == sessionID {
			copied := *p
			return &copied
		}
	}
	return nil
}

type fakeCatalogStore struct {
	courses map[int64]*models.Course
}

func (f *fakeCatalogStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, fmt.Errorf("course %d: %w", id, store.ErrNotFound)
	}
	copied := *course
	return &copied, nil
}

func (f *fakeCatalogStore) GetCourses(_ context.Context) ([]models.Course, error) {
	var out []models.Course
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (f *fakeUserStore) UpsertUser(_ context.Context, user *models.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.users[user.SubjectID]; ok {
		*user = *existing
		return false, nil
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.SubjectID] = &stored
	return true, nil
}

func (f *fakeUserStore) GetUserBySubject(_ context.Context, subjectID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[subjectID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", subjectID, store.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) add(subjectID, email, name string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user := &models.User{ID: f.nextID, SubjectID: subjectID, Email: email, Name: name}
	f.users[subjectID] = user
	return user
}

type fakeEventStore struct {
	mu        sync.Mutex
	processed map[string]string
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{processed: make(map[string]string)}
}

func (f *fakeEventStore) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.processed[eventID]
	return ok, nil
}

func (f *fakeEventStore) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[eventID] = eventType
	return nil
}

type fakePayments struct {
	mu          sync.Mutex
	configured  bool
	createErr   error
	retrieveErr error
	session     payment.CheckoutSession
	statuses    map[string]*payment.SessionStatus
	lastParams  payment.CheckoutParams
}

func (f *fakePayments) Configured() bool {
	return f.configured
}

func (f *fakePayments) CreateCheckoutSession(_ context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = p
	if f.createErr != nil {
		return nil, f.createErr
	}
	sess := f.session
	return &sess, nil
}

func (f *fakePayments) RetrieveSession(_ context.Context, sessionID string) (*payment.SessionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	status, ok := f.statuses[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session: %s", sessionID)
	}
	copied := *status
	return &copied, nil
}

func (f *fakePayments) RetrieveReceipt(_ context.Context, sessionID string) (*payment.Receipt, error) {
	return &payment.Receipt{SessionID: sessionID}, nil
}

type fakeEvents struct {
	mu         sync.Mutex
	initiated  []*models.CheckoutInitiatedEvent
	confirmed  []*models.PurchaseConfirmedEvent
	registered []*models.UserRegisteredEvent
}

func (f *fakeEvents) PublishCheckoutInitiated(_ context.Context, e *models.CheckoutInitiatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initiated = append(f.initiated, e)
	return nil
}

func (f *fakeEvents) PublishPurchaseConfirmed(_ context.Context, e *models.PurchaseConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, e)
	return nil
}

func (f *fakeEvents) PublishUserRegistered(_ context.Context, e *models.UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, e)
	return nil
}

func (f *fakeEvents) confirmedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmed)
}

type fakeAccessCache struct {
	mu      sync.Mutex
	entries map[string]bool
	writes  int
}

func newFakeAccessCache() *fakeAccessCache {
	return &fakeAccessCache{entries: make(map[string]bool)}
}

func (f *fakeAccessCache) CacheAccess(_ context.Context, userID, courseID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[fmt.Sprintf("%d:%d", userID, courseID)] = true
	f.writes++
	return nil
}

func (f *fakeAccessCache) HasCachedAccess(_ context.Context, userID, courseID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries[fmt.Sprintf("%d:%d", userID, courseID)], nil
}
