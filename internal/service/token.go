package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"postdeck/internal/models"
)

// TokenService is the gorm-backed store for the singleton Canva OAuth token.
// It satisfies canva.TokenStore.
type TokenService struct {
	db *gorm.DB
}

func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db}
}

// Get returns the live token record, or nil when no authorization has
// completed yet.
func (s *TokenService) Get(ctx context.Context) (*models.CanvaToken, error) {
	var token models.CanvaToken
	err := s.db.WithContext(ctx).Order("id").First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load canva token: %w", err)
	}
	return &token, nil
}

// Upsert overwrites the singleton row; a fresh authorization replaces any
// previous token rather than accumulating rows.
func (s *TokenService) Upsert(ctx context.Context, token *models.CanvaToken) error {
	var existing models.CanvaToken
	err := s.db.WithContext(ctx).Order("id").First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// First authorization
	case err != nil:
		return fmt.Errorf("failed to load canva token: %w", err)
	default:
		token.ID = existing.ID
		token.CreatedAt = existing.CreatedAt
	}

	if err := s.db.WithContext(ctx).Save(token).Error; err != nil {
		return fmt.Errorf("failed to save canva token: %w", err)
	}
	return nil
}
