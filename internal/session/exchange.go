package session

import (
	"context"

	"github.com/spec-kit/hospital-auth/internal/domain"
)

// FlowState tracks the exchange state machine.
type FlowState string

const (
	StateStart     FlowState = "START"
	StateResolving FlowState = "RESOLVING"
	StateCommitted FlowState = "COMMITTED"
	StateFailed    FlowState = "FAILED"
)

// UserProfile is the record returned by the profile-lookup collaborator.
type UserProfile struct {
	Role  domain.Role
	Email string
	Name  string
}

// ProfileLookup resolves an exchange token to the account it belongs to.
// A nil error means the profile is valid; every failure class (transport
// error, non-2xx, malformed payload) comes back as a plain error.
type ProfileLookup interface {
	Me(ctx context.Context, token string) (*UserProfile, error)
}

// Routes maps roles to post-exchange destinations. Roles without an entry
// fall back to Default.
type Routes struct {
	SignIn  string
	Default string
	ByRole  map[domain.Role]string
}

// DefaultRoutes matches the dashboard's routing policy: nurses land on their
// own dashboard, everyone else on the general one.
func DefaultRoutes() Routes {
	return Routes{
		SignIn:  "/login",
		Default: "/dashboard",
		ByRole: map[domain.Role]string{
			domain.RoleNurse: "/nurse/dashboard",
		},
	}
}

// Destination returns the route for a role.
func (r Routes) Destination(role domain.Role) string {
	if dest, ok := r.ByRole[role]; ok {
		return dest
	}
	return r.Default
}

// Outcome is the terminal result of one flow run. Route is empty when the
// hosting context was torn down mid-resolution, in which case no redirect
// should happen.
type Outcome struct {
	State FlowState
	Route string
}

// Flow is the one-shot state machine converting an exchange token into a
// committed session. A Flow instance runs at most once and does not retry.
type Flow struct {
	lookup ProfileLookup
	store  Store
	routes Routes
	state  FlowState
}

// NewFlow builds a flow over the given collaborators.
func NewFlow(lookup ProfileLookup, store Store, routes Routes) *Flow {
	return &Flow{lookup: lookup, store: store, routes: routes, state: StateStart}
}

// State returns the flow's current state.
func (f *Flow) State() FlowState {
	return f.state
}

// Run drives the machine to a terminal state. The session is written only
// after a successful resolution and before the route is returned; any
// failure resolves to the sign-in route with no store write.
func (f *Flow) Run(ctx context.Context, exchangeToken string) Outcome {
	if f.state != StateStart {
		return Outcome{State: f.state}
	}

	if exchangeToken == "" {
		f.state = StateFailed
		return Outcome{State: StateFailed, Route: f.routes.SignIn}
	}

	f.state = StateResolving
	profile, err := f.lookup.Me(ctx, exchangeToken)

	// Teardown while resolving: discard the continuation without committing
	// and without redirecting.
	if ctx.Err() != nil {
		f.state = StateFailed
		return Outcome{State: StateFailed}
	}
	if err != nil || profile == nil {
		f.state = StateFailed
		return Outcome{State: StateFailed, Route: f.routes.SignIn}
	}

	f.store.Set(AuthState{
		Role:  profile.Role,
		Email: profile.Email,
		Token: exchangeToken,
		Name:  profile.Name,
	})
	f.state = StateCommitted
	return Outcome{State: StateCommitted, Route: f.routes.Destination(profile.Role)}
}
