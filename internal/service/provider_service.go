package service

import (
	"context"

	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/repository"
)

const featuredLimit = 12

type ProviderService struct {
	userRepo repository.UserRepository
}

func NewProviderService(userRepo repository.UserRepository) *ProviderService {
	return &ProviderService{userRepo: userRepo}
}

// Featured returns the highlighted providers, best rated first.
func (s *ProviderService) Featured(ctx context.Context) ([]domain.Provider, error) {
	users, err := s.userRepo.ListFeatured(ctx, featuredLimit)
	if err != nil {
		return nil, err
	}

	providers := make([]domain.Provider, 0, len(users))
	for i := range users {
		providers = append(providers, users[i].AsProvider())
	}
	return providers, nil
}
