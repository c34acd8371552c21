package services

import (
	"context"

	"github.com/aryanprajapat98/REMS/internal/policy"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

// StatsRepository reads aggregate counts.
type StatsRepository interface {
	Counts(ctx context.Context) (users, listings, leads int, err error)
}

// DashboardService assembles the admin overview.
type DashboardService struct {
	stats    StatsRepository
	users    UserRepository
	listings ListingRepository
	log      *zap.Logger
}

func NewDashboardService(stats StatsRepository, users UserRepository, listings ListingRepository, log *zap.Logger) *DashboardService {
	return &DashboardService{
		stats:    stats,
		users:    users,
		listings: listings,
		log:      log,
	}
}

// Dashboard returns aggregate counts plus all users and listings. Admin only.
func (s *DashboardService) Dashboard(ctx context.Context, principal *types.Principal) (types.Dashboard, error) {
	if err := authorize(s.log, principal, policy.ActionViewDashboard, policy.Resource{}); err != nil {
		return types.Dashboard{}, err
	}

	usersCount, listingsCount, leadsCount, err := s.stats.Counts(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}
	listings, err := s.listings.ListAll(ctx)
	if err != nil {
		return types.Dashboard{}, err
	}

	return types.Dashboard{
		UsersCount:    usersCount,
		ListingsCount: listingsCount,
		LeadsCount:    leadsCount,
		Users:         users,
		Listings:      listings,
	}, nil
}
