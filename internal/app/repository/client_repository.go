package repository

import (
	"context"

	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/pkg/logger"
	"gorm.io/gorm"
)

// ClientRepository returns gorm.ErrRecordNotFound from the Find methods when no row matches.
type ClientRepository interface {
	Create(ctx context.Context, client *model.Client) error
	FindByID(ctx context.Context, id string) (*model.Client, error)
	FindByRestaurantName(ctx context.Context, name string) (*model.Client, error)
	FindByAuthUserID(ctx context.Context, authUserID string) (*model.Client, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	logger.Debug("Creating client in database", map[string]interface{}{
		"client_id":       client.ID,
		"restaurant_name": client.RestaurantName,
		"is_lead":         client.IsLead,
	})

	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		logger.Error("Failed to create client in database", err, map[string]interface{}{
			"client_id":       client.ID,
			"restaurant_name": client.RestaurantName,
		})
		return err
	}

	logger.Debug("Client created in database", map[string]interface{}{
		"client_id": client.ID,
	})
	return nil
}

func (r *clientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepository) FindByRestaurantName(ctx context.Context, name string) (*model.Client, error) {
	logger.Debug("Finding client by restaurant name in database", map[string]interface{}{
		"restaurant_name": name,
	})

	var client model.Client
	err := r.db.WithContext(ctx).
		Where("restaurant_name = ?", name).
		Order("created_at ASC").
		First(&client).Error
	if err != nil {
		return nil, err
	}

	logger.Debug("Client found by restaurant name in database", map[string]interface{}{
		"client_id":       client.ID,
		"restaurant_name": name,
	})
	return &client, nil
}

func (r *clientRepository) FindByAuthUserID(ctx context.Context, authUserID string) (*model.Client, error) {
	logger.Debug("Finding client by auth user ID in database", map[string]interface{}{
		"auth_user_id": authUserID,
	})

	var client model.Client
	err := r.db.WithContext(ctx).
		Where("auth_user_id = ?", authUserID).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}
