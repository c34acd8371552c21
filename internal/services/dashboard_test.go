package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	s := NewDashboardService(f.db.Stats(), f.db.Users(), f.db.Listings(), zap.NewNop())

	f.createListing(t, f.agent, "Pending", "Kochi", 10)

	dashboard, err := s.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatalf("dashboard failed: %v", err)
	}
	if dashboard.UsersCount != 3 || dashboard.ListingsCount != 1 || dashboard.LeadsCount != 0 {
		t.Fatalf("unexpected counts: %+v", dashboard)
	}
	if len(dashboard.Users) != 3 || len(dashboard.Listings) != 1 {
		t.Fatalf("dashboard should include pending listings and all users: %+v", dashboard)
	}

	if _, err := s.Dashboard(ctx, f.agent); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("agent dashboard: got %v", err)
	}
}
