package service

import (
	"context"
	"errors"
	"fmt"

	"edupay/internal/models"
	"edupay/internal/store"
	"edupay/internal/util"

	"go.uber.org/zap"
)

// AccessService answers "may this user see this course's content". It is a
// read path only; entitlements are written by the reconciler.
type AccessService struct {
	purchases PurchaseStore
	users     UserStore
	cache     AccessCache
	logger    *zap.Logger
}

// NewAccessService creates a new access service
func NewAccessService(purchases PurchaseStore, users UserStore, cache AccessCache) *AccessService {
	return &AccessService{
		purchases: purchases,
		users:     users,
		cache:     cache,
		logger:    util.GetLogger(),
	}
}

// HasAccess reports whether any paid purchase grants the user the course.
// Positive results are cached; paid access never regresses so cached entries
// need no invalidation.
func (a *AccessService) HasAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	ctx, span := util.StartSpan(ctx, "AccessService.HasAccess")
	defer span.End()

	if a.cache != nil {
		cached, err := a.cache.HasCachedAccess(ctx, userID, courseID)
		if err != nil {
			a.logger.Warn("Access cache lookup failed, falling back to store", zap.Error(err))
		} else if cached {
			util.AccessChecksTotal.WithLabelValues("cache_hit").Inc()
			return true, nil
		}
	}

	paid, err := a.purchases.HasPaidPurchase(ctx, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to check purchases: %w", err)
	}
	if !paid {
		util.AccessChecksTotal.WithLabelValues("denied").Inc()
		return false, nil
	}

	util.AccessChecksTotal.WithLabelValues("granted").Inc()
	if a.cache != nil {
		if err := a.cache.CacheAccess(ctx, userID, courseID); err != nil {
			a.logger.Warn("Failed to cache access", zap.Error(err))
		}
	}
	return true, nil
}

// HasAccessBySubject resolves the caller's identity first. Unauthenticated or
// unknown subjects get false, not an error; this gate drives UI display, not
// content delivery enforcement.
func (a *AccessService) HasAccessBySubject(ctx context.Context, subjectID string, courseID int64) (bool, error) {
	if subjectID == "" {
		return false, nil
	}

	user, err := a.users.GetUserBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve user: %w", err)
	}

	return a.HasAccess(ctx, user.ID, courseID)
}

// ListPurchases returns the subject's purchases with course details, newest
// first. Unauthenticated callers get an empty list.
func (a *AccessService) ListPurchases(ctx context.Context, subjectID string) ([]models.PurchaseWithCourse, error) {
	if subjectID == "" {
		return []models.PurchaseWithCourse{}, nil
	}

	user, err := a.users.GetUserBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []models.PurchaseWithCourse{}, nil
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	purchases, err := a.purchases.GetPurchasesByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	if purchases == nil {
		purchases = []models.PurchaseWithCourse{}
	}
	return purchases, nil
}
