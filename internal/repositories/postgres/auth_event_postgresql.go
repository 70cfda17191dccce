package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
)

type AuthEventPostgreSQL struct {
	db *gorm.DB
}

func NewAuthEventPostgreSQL(db *gorm.DB) repositories.AuthEventRepository {
	return &AuthEventPostgreSQL{db: db}
}

func (r *AuthEventPostgreSQL) Record(ctx context.Context, event *models.AuthEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record auth event: %w", err)
	}
	return nil
}

func (r *AuthEventPostgreSQL) ListByUser(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []*models.AuthEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}

	return events, nil
}
