package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/pkg/logger"
	"gorm.io/gorm"
)

// PublicItem is the argument list of the public_submit_item_by_restaurant_name procedure.
type PublicItem struct {
	RestaurantName string
	ItemType       string
	ItemName       string
	Description    string
	Notes          string
	ImageURLs      []string
}

type SubmissionRepository interface {
	// CreateBatch inserts every row or none.
	CreateBatch(ctx context.Context, submissions []model.Submission) error
	FindByClientID(ctx context.Context, clientID string) ([]model.Submission, error)
	// PublicSubmitItemByRestaurantName resolves the client by restaurant name,
	// creating a lead client when none exists, and inserts one pending submission.
	PublicSubmitItemByRestaurantName(ctx context.Context, item PublicItem) (*model.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) CreateBatch(ctx context.Context, submissions []model.Submission) error {
	logger.Debug("Creating submissions in database", map[string]interface{}{
		"count": len(submissions),
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range submissions {
			if err := tx.Create(&submissions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create submissions in database", err, map[string]interface{}{
			"count": len(submissions),
		})
		return err
	}

	logger.Debug("Submissions created in database", map[string]interface{}{
		"count": len(submissions),
	})
	return nil
}

func (r *submissionRepository) FindByClientID(ctx context.Context, clientID string) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("id ASC").
		Find(&submissions).Error
	if err != nil {
		logger.Error("Failed to find submissions by client ID in database", err, map[string]interface{}{
			"client_id": clientID,
		})
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) PublicSubmitItemByRestaurantName(ctx context.Context, item PublicItem) (*model.Submission, error) {
	logger.Debug("Running public item submission in database", map[string]interface{}{
		"restaurant_name": item.RestaurantName,
		"item_name":       item.ItemName,
		"image_count":     len(item.ImageURLs),
	})

	var created model.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client model.Client
		err := tx.Where("restaurant_name = ?", item.RestaurantName).Order("created_at ASC").First(&client).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			client = model.Client{
				ID:             uuid.New().String(),
				RestaurantName: item.RestaurantName,
				Email:          model.PlaceholderEmail,
				Phone:          model.PlaceholderPhone,
				IsLead:         true,
			}
			if err := tx.Create(&client).Error; err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to find client: %w", err)
		}

		created = model.Submission{
			ClientID:          client.ID,
			RestaurantName:    item.RestaurantName,
			ItemType:          item.ItemType,
			ItemName:          item.ItemName,
			Description:       item.Description,
			SpecialNotes:      item.Notes,
			OriginalImageURLs: model.StringArray(item.ImageURLs),
			Status:            model.SubmissionStatusPending,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		logger.Error("Public item submission failed in database", err, map[string]interface{}{
			"restaurant_name": item.RestaurantName,
		})
		return nil, err
	}

	logger.Debug("Public item submission stored in database", map[string]interface{}{
		"submission_id": created.ID,
		"client_id":     created.ClientID,
	})
	return &created, nil
}
