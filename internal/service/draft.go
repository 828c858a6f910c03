package service

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"postdeck/internal/models"
)

type DraftService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewDraftService(db *gorm.DB, logger *zap.Logger) *DraftService {
	return &DraftService{
		db:     db,
		logger: logger,
	}
}

// Create records one generation round with every provider slot filled,
// error placeholders included.
func (s *DraftService) Create(prompt string, outputs models.OutputMap) (*models.Draft, error) {
	draft := &models.Draft{
		Prompt:  prompt,
		Outputs: outputs,
	}

	if err := s.db.Create(draft).Error; err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	s.logger.Info("Draft created",
		zap.Uint("draft_id", draft.ID),
		zap.Int("provider_count", len(outputs)))

	return draft, nil
}

func (s *DraftService) Get(id uint) (*models.Draft, error) {
	var draft models.Draft
	if err := s.db.First(&draft, id).Error; err != nil {
		return nil, fmt.Errorf("draft not found: %w", err)
	}
	return &draft, nil
}

func (s *DraftService) List(limit int) ([]*models.Draft, error) {
	var drafts []*models.Draft
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	return drafts, nil
}

// SetPublishResult is the single mutation a draft receives after creation,
// applied for live and dry-run publishes alike.
func (s *DraftService) SetPublishResult(id uint, selectedModel, finalText, imageURL, postID string, published bool) error {
	updates := map[string]interface{}{
		"selected_model":   selectedModel,
		"final_text":       finalText,
		"image_url":        imageURL,
		"linkedin_post_id": postID,
		"published":        published,
	}

	result := s.db.Model(&models.Draft{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("draft %d not found", id)
	}

	return nil
}
