// Package navigation decides which view a session state may enter. While
// the session is still settling the guard holds navigation entirely; once
// settled it fails closed: any state that is not positively authenticated
// is routed to sign-in.
package navigation

import (
	"tubedigest/client/session"
)

// Route is a navigation target within the dashboard.
type Route string

const (
	RouteLogin      Route = "/login"
	RouteOnboarding Route = "/onboarding"
	RouteChannels   Route = "/channels"
	RouteDigest     Route = "/digest"
)

// Decision is the guard's verdict for one navigation attempt.
type Decision struct {
	// Pending means the session has not settled yet: render a loading
	// placeholder and navigate nowhere.
	Pending  bool
	Allowed  bool
	Redirect Route
}

// protected lists routes that require an authenticated session.
var protected = map[Route]bool{
	RouteOnboarding: true,
	RouteChannels:   true,
	RouteDigest:     true,
}

// Guard evaluates a navigation attempt against the current session state.
func Guard(state session.State, target Route) Decision {
	if !settled(state.Phase) {
		// Restore or validation still in flight. Redirecting now would
		// bounce a returning user off a page they are about to keep.
		return Decision{Pending: true}
	}

	if !protected[target] {
		// Public route. An authenticated user landing on login is sent on
		// to where they belong instead.
		if target == RouteLogin && state.Authenticated() {
			return Decision{Allowed: false, Redirect: homeFor(state)}
		}
		return Decision{Allowed: true}
	}

	if !state.Authenticated() {
		return Decision{Allowed: false, Redirect: RouteLogin}
	}

	// Authenticated but not onboarded users stay in onboarding until they
	// save a first selection.
	if !state.Onboarded && target != RouteOnboarding && target != RouteChannels {
		return Decision{Allowed: false, Redirect: RouteOnboarding}
	}
	return Decision{Allowed: true}
}

// settled reports whether the session has reached a terminal phase the
// guard may act on.
func settled(p session.Phase) bool {
	switch p {
	case session.PhaseUnknown, session.PhaseRestoring, session.PhaseValidating:
		return false
	}
	return true
}

func homeFor(state session.State) Route {
	if state.Onboarded {
		return RouteDigest
	}
	return RouteOnboarding
}
