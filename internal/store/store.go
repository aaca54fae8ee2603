package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"edupay/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is wrapped by lookups that miss; callers branch with errors.Is.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// UpsertUser inserts a user keyed by external subject id. If the subject is
// already known the existing row is returned unchanged; created reports
// whether a new row was written.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) (created bool, err error) {
	query := `
		INSERT INTO users (subject_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_id) DO NOTHING
		RETURNING id, created_at`

	err = s.db.QueryRowxContext(ctx, query, user.SubjectID, user.Email, user.Name).
		Scan(&user.ID, &user.CreatedAt)
	if err == sql.ErrNoRows {
		existing, lookupErr := s.GetUserBySubject(ctx, user.SubjectID)
		if lookupErr != nil {
			return false, lookupErr
		}
		*user = *existing
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUserBySubject retrieves a user by external identity subject id
func (s *Store) GetUserBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE subject_id = $1", subjectID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetCourseByID retrieves a course by ID
func (s *Store) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	err := s.db.GetContext(ctx, &course, "SELECT * FROM courses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetCourses retrieves all courses
func (s *Store) GetCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.db.SelectContext(ctx, &courses, "SELECT * FROM courses ORDER BY id")
	return courses, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
