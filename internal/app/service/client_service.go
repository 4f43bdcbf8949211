package service

import (
	"context"
	"errors"

	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrNotClientOwner = errors.New("client belongs to another user")
)

// ClientOverview is a client with every submission it owns, oldest first.
type ClientOverview struct {
	Client      *model.Client      `json:"client"`
	Submissions []model.Submission `json:"submissions"`
}

type ClientService interface {
	// GetMine returns the client linked to the logged in user.
	GetMine(ctx context.Context, authUserID string) (*ClientOverview, error)
	// GetOwned returns clientID if it is linked to authUserID.
	GetOwned(ctx context.Context, authUserID, clientID string) (*ClientOverview, error)
}

type clientService struct {
	clients     repository.ClientRepository
	submissions repository.SubmissionRepository
}

func NewClientService(clients repository.ClientRepository, submissions repository.SubmissionRepository) ClientService {
	return &clientService{
		clients:     clients,
		submissions: submissions,
	}
}

func (s *clientService) GetMine(ctx context.Context, authUserID string) (*ClientOverview, error) {
	client, err := s.clients.FindByAuthUserID(ctx, authUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return s.overview(ctx, client)
}

func (s *clientService) GetOwned(ctx context.Context, authUserID, clientID string) (*ClientOverview, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if client.AuthUserID == nil || *client.AuthUserID != authUserID {
		logger.Warn("Client requested by a user who does not own it", map[string]interface{}{
			"client_id":    clientID,
			"auth_user_id": authUserID,
		})
		return nil, ErrNotClientOwner
	}
	return s.overview(ctx, client)
}

func (s *clientService) overview(ctx context.Context, client *model.Client) (*ClientOverview, error) {
	submissions, err := s.submissions.FindByClientID(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	return &ClientOverview{Client: client, Submissions: submissions}, nil
}
