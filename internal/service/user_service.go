package service

import (
	"context"
	"strings"

	"github.com/equinex/backend/internal/models"
	"github.com/equinex/backend/internal/storage"
)

// UserService exposes user lookups for the transport layer.
type UserService struct {
	store storage.Store
}

// NewUserService creates a UserService with the given storage backend.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, internal("failed to load user", err)
	}
	if user == nil {
		return nil, notFoundf("user not found")
	}
	return user, nil
}

// Search matches users by name or email substring, excluding the
// caller. Short queries return nothing rather than the whole user table.
func (s *UserService) Search(ctx context.Context, callerID, query string) ([]*models.User, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []*models.User{}, nil
	}

	users, err := s.store.SearchUsers(ctx, query, 10)
	if err != nil {
		return nil, internal("user search failed", err)
	}

	results := make([]*models.User, 0, len(users))
	for _, user := range users {
		if user.ID != callerID {
			results = append(results, user)
		}
	}
	return results, nil
}
