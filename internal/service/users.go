package service

import (
	"context"
	"fmt"
	"time"

	"edupay/internal/models"
	"edupay/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService maintains the user directory synchronized from the identity
// provider.
type UserService struct {
	users  UserStore
	events EventSink
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserStore, events EventSink) *UserService {
	return &UserService{
		users:  users,
		events: events,
		logger: util.GetLogger(),
	}
}

// UpsertFromIdentityEvent records a user from a "user created" identity
// webhook. Redelivery of the same subject is a no-op returning the existing
// row.
func (u *UserService) UpsertFromIdentityEvent(ctx context.Context, subjectID, email, name string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpsertFromIdentityEvent")
	defer span.End()

	user := &models.User{
		SubjectID: subjectID,
		Email:     email,
		Name:      name,
	}

	created, err := u.users.UpsertUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	if !created {
		u.logger.Info("User already registered", zap.String("subject_id", subjectID))
		return user, nil
	}

	util.UsersRegisteredTotal.Inc()
	u.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("subject_id", subjectID))

	event := &models.UserRegisteredEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeUserRegistered,
			Timestamp: time.Now(),
		},
		UserID:    user.ID,
		SubjectID: subjectID,
		Email:     email,
	}
	if err := u.events.PublishUserRegistered(ctx, event); err != nil {
		u.logger.Error("Failed to publish UserRegistered event", zap.Error(err))
	}

	return user, nil
}
