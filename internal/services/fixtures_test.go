package services

import (
	"context"
	"testing"

	"github.com/aryanprajapat98/REMS/internal/testutil"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

type fixture struct {
	db       *testutil.DB
	images   *testutil.Images
	notifier *testutil.Notifier
	listings *ListingService
	leads    *LeadService
	messages *MessageService
	auth     *AuthService
	admin    *types.Principal
	agent    *types.Principal
	buyer    *types.Principal
}

func newFixture(t *testing.T, autoApprove bool) *fixture {
	t.Helper()

	log := zap.NewNop()
	db := testutil.NewDB()
	images := testutil.NewImages()
	notifier := testutil.NewNotifier()

	f := &fixture{
		db:       db,
		images:   images,
		notifier: notifier,
		listings: NewListingService(db.Listings(), images, autoApprove, log),
		leads:    NewLeadService(db.Leads(), db.Listings(), notifier, log),
		messages: NewMessageService(db.Messages(), db.Listings(), log),
		auth:     NewAuthService(db.Users(), db.Resets(), notifier, log),
	}
	f.admin = f.addUser(t, "Ada Admin", "admin@example.com", types.RoleAdmin)
	f.agent = f.addUser(t, "Alan Agent", "agent@example.com", types.RoleAgent)
	f.buyer = f.addUser(t, "Bea Buyer", "buyer@example.com", types.RoleBuyer)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email string, role types.Role) *types.Principal {
	t.Helper()

	user, err := f.db.Users().Create(context.Background(), types.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &types.Principal{UserID: user.ID, Role: user.Role}
}

func (f *fixture) createListing(t *testing.T, owner *types.Principal, title, location string, price float64) types.Listing {
	t.Helper()

	listing, err := f.listings.Create(context.Background(), owner, ListingInput{
		Title:    title,
		Price:    price,
		Location: location,
	})
	if err != nil {
		t.Fatalf("create listing %q: %v", title, err)
	}
	return listing
}
