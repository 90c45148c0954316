package service

import (
	"context"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
)

type ProfileService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *ProfileService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// ListDonations returns the user's donations, newest first.
func (s *ProfileService) ListDonations(ctx context.Context, userID string) ([]domain.Donation, error) {
	return s.Store.Donations().ListDonationsByUser(ctx, userID)
}

// TotalDonated returns how much the user has donated, counting only
// donations that settled as success.
func (s *ProfileService) TotalDonated(ctx context.Context, userID string) (float64, error) {
	return s.Store.Donations().SumSucceededAmountByUser(ctx, userID)
}
