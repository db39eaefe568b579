package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoclaim/internal/users"

	"gorm.io/gorm"
)

type Repository interface {
	CreateUser(ctx context.Context, user *users.User) error
	GetUserByEmail(ctx context.Context, email string) (*users.User, error)
	GetUserByID(ctx context.Context, id string) (*users.User, error)
	UpdateUserPassword(ctx context.Context, userID string, hashedPassword string) error
	UpdateClaimEmails(ctx context.Context, userID string, enabled bool) error
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(ctx context.Context, user *users.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrUserAlreadyExists
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *repository) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) findOne(ctx context.Context, query string, arg interface{}) (*users.User, error) {
	var user users.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (r *repository) UpdateUserPassword(ctx context.Context, userID string, hashedPassword string) error {
	return r.updateColumn(ctx, userID, "password", hashedPassword)
}

func (r *repository) UpdateClaimEmails(ctx context.Context, userID string, enabled bool) error {
	return r.updateColumn(ctx, userID, "claim_emails", enabled)
}

// RecordLogin leaves updated_at alone so it keeps tracking profile edits.
func (r *repository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to record login: %w", result.Error)
	}
	return nil
}

func (r *repository) updateColumn(ctx context.Context, userID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&users.User{}).
		Where("id = ?", userID).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}
