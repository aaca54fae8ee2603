package store

import (
	"context"
	"database/sql"

	"edupay/internal/models"
)

// CreatePurchase creates a new purchase record. CheckoutSessionID may be
// empty only together with IsPaid=true (the offline confirmation path never
// receives a processor session).
func (s *Store) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	query := `
		INSERT INTO purchases (user_id, course_id, is_paid, checkout_session_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		purchase.UserID, purchase.CourseID, purchase.IsPaid, purchase.CheckoutSessionID).
		Scan(&purchase.ID, &purchase.CreatedAt, &purchase.UpdatedAt)
}

// GetPurchaseBySessionID retrieves the purchase correlated with a checkout
// session. Returns nil without error when no record matches.
func (s *Store) GetPurchaseBySessionID(ctx context.Context, sessionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase,
		"SELECT id, user_id, course_id, is_paid, COALESCE(checkout_session_id, '') AS checkout_session_id, created_at, updated_at FROM purchases WHERE checkout_session_id = $1",
		sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// MarkPurchasePaidBySessionID flips is_paid to true on the purchase matching
// the session id. The update is idempotent: re-applying it leaves the row
// unchanged. Returns the updated purchase and whether this call performed the
// false to true transition; purchase is nil when no record matches the session.
func (s *Store) MarkPurchasePaidBySessionID(ctx context.Context, sessionID string) (purchase *models.Purchase, transitioned bool, err error) {
	var p models.Purchase
	var wasPaid bool
	query := `
		UPDATE purchases
		SET is_paid = TRUE, updated_at = NOW()
		WHERE checkout_session_id = $1
		RETURNING id, user_id, course_id, is_paid, COALESCE(checkout_session_id, '') AS checkout_session_id,
		          created_at, updated_at,
		          (SELECT is_paid FROM purchases p2 WHERE p2.checkout_session_id = $1) AS was_paid`

	// The subselect sees the pre-update row inside the same statement, which
	// is how we distinguish the first confirmation from a redelivery.
	err = s.db.QueryRowxContext(ctx, query, sessionID).Scan(
		&p.ID, &p.UserID, &p.CourseID, &p.IsPaid, &p.CheckoutSessionID,
		&p.CreatedAt, &p.UpdatedAt, &wasPaid)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, !wasPaid, nil
}

// HasPaidPurchase reports whether any paid purchase exists for the user and
// course. Repeated checkout attempts leave multiple rows; one paid row is
// sufficient.
func (s *Store) HasPaidPurchase(ctx context.Context, userID, courseID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND course_id = $2 AND is_paid)",
		userID, courseID)
	return exists, err
}

// GetPurchasesByUserID retrieves a user's purchases joined with course details
func (s *Store) GetPurchasesByUserID(ctx context.Context, userID int64) ([]models.PurchaseWithCourse, error) {
	var purchases []models.PurchaseWithCourse
	query := `
		SELECT p.id, p.user_id, p.course_id, p.is_paid,
		       COALESCE(p.checkout_session_id, '') AS checkout_session_id,
		       p.created_at, p.updated_at,
		       c.title AS course_title, c.image_url AS course_image_url, c.price AS course_price
		FROM purchases p
		JOIN courses c ON c.id = p.course_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC`

	err := s.db.SelectContext(ctx, &purchases, query, userID)
	return purchases, err
}
