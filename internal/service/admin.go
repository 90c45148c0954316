package service

import (
	"context"

	"github.com/goodbridge/givestack/internal/domain"
	"github.com/goodbridge/givestack/internal/store"
)

const (
	recentUsersLimit     = 10
	recentDonationsLimit = 20
)

type AdminService struct {
	Store store.Store
}

// Dashboard aggregates the headline numbers for the admin view. The total
// amount counts succeeded donations only; pending and failed ones are
// excluded so the figure reflects money actually collected.
type Dashboard struct {
	TotalUsers      int64
	TotalDonations  int64
	TotalAmount     float64
	RecentUsers     []domain.User
	RecentDonations []store.DonationWithDonor
}

func (s *AdminService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var err error

	if d.TotalUsers, err = s.Store.Users().CountUsers(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.TotalDonations, err = s.Store.Donations().CountDonations(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.TotalAmount, err = s.Store.Donations().SumSucceededAmount(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.RecentUsers, err = s.Store.Users().ListRecentUsers(ctx, recentUsersLimit); err != nil {
		return Dashboard{}, err
	}
	if d.RecentDonations, err = s.Store.Donations().ListRecentDonations(ctx, recentDonationsLimit); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
