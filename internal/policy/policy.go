// Package policy decides which principals may perform which actions.
package policy

import "github.com/aryanprajapat98/REMS/types"

// Action identifies an operation gated by the policy.
type Action string

const (
	ActionViewListing    Action = "view_listing"
	ActionSearchListings Action = "search_listings"
	ActionSubmitLead     Action = "submit_lead"
	ActionCreateListing  Action = "create_listing"
	ActionApproveListing Action = "approve_listing"
	ActionDeleteListing  Action = "delete_listing"
	ActionListLeads      Action = "list_leads"
	ActionSendMessage    Action = "send_message"
	ActionViewThread     Action = "view_thread"
	ActionViewDashboard  Action = "view_dashboard"
)

// Resource describes the target of an action. OwnerID is zero when the
// action has no owned target.
type Resource struct {
	OwnerID int
}

// OwnedBy returns a Resource owned by userID.
func OwnedBy(userID int) Resource {
	return Resource{OwnerID: userID}
}

var anonymousActions = actionSet(
	ActionViewListing,
	ActionSearchListings,
	ActionSubmitLead,
)

var authenticatedActions = actionSet(
	ActionSendMessage,
	ActionViewThread,
)

// roleActions lists what each role may do on top of the anonymous and
// authenticated rights. Ownership-dependent actions are handled in CanPerform.
var roleActions = map[types.Role]map[Action]struct{}{
	types.RoleBuyer: actionSet(),
	types.RoleAgent: actionSet(
		ActionCreateListing,
	),
	types.RoleAdmin: actionSet(
		ActionCreateListing,
		ActionApproveListing,
		ActionDeleteListing,
		ActionListLeads,
		ActionViewDashboard,
	),
}

// CanPerform reports whether principal may perform action on resource.
// A nil principal is an anonymous visitor.
func CanPerform(principal *types.Principal, action Action, resource Resource) bool {
	if has(anonymousActions, action) {
		return true
	}
	if principal == nil || principal.UserID < 1 {
		return false
	}
	allowed, ok := roleActions[principal.Role]
	if !ok {
		return false
	}
	if has(authenticatedActions, action) || has(allowed, action) {
		return true
	}

	// Agents may delete their own listings.
	if action == ActionDeleteListing && principal.Role == types.RoleAgent {
		return resource.OwnerID != 0 && resource.OwnerID == principal.UserID
	}
	return false
}

func actionSet(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, action := range actions {
		set[action] = struct{}{}
	}
	return set
}

func has(set map[Action]struct{}, action Action) bool {
	_, ok := set[action]
	return ok
}

// CanViewListing reports whether principal may see listing. Approved listings
// are public; pending ones are visible to their owner and to admins.
func CanViewListing(principal *types.Principal, listing types.Listing) bool {
	if listing.Approved {
		return true
	}
	if principal == nil {
		return false
	}
	return principal.Role == types.RoleAdmin || principal.UserID == listing.OwnerID
}
