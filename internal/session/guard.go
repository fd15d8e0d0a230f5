package session

import "time"

type DecisionKind int

const (
	// DecisionNone renders nothing: resolution has not settled yet and
	// neither the protected view nor a redirect may flash.
	DecisionNone DecisionKind = iota
	// DecisionWait renders a waiting indicator.
	DecisionWait
	// DecisionAllow renders the protected view.
	DecisionAllow
	// DecisionRedirect navigates to Target.
	DecisionRedirect
)

type Decision struct {
	Kind   DecisionKind
	Target string
}

// Guard gates protected views on session state. Grace is the window after
// initialization during which an absent identity still waits instead of
// redirecting, so an in-flight resolution is not raced to the login page.
type Guard struct {
	Session *Session
	Grace   time.Duration

	now func() time.Time
}

func NewGuard(s *Session, grace time.Duration) *Guard {
	return &Guard{Session: s, Grace: grace, now: time.Now}
}

var loginTargets = map[Class]string{
	ClassUser:  "/login",
	ClassAdmin: "/admin/login",
}

var homeTargets = map[Class]string{
	ClassUser:  "/dashboard",
	ClassAdmin: "/admin/dashboard",
}

// Check decides what a view requiring the given identity class may render.
func (g *Guard) Check(required Class) Decision {
	switch g.Session.State() {
	case StateUninitialized:
		return Decision{Kind: DecisionNone}
	case StateResolving:
		return Decision{Kind: DecisionWait}
	}

	var active Class
	var present bool
	if g.Session.User() != nil {
		active, present = ClassUser, true
	} else if g.Session.Admin() != nil {
		active, present = ClassAdmin, true
	}

	if present {
		if active == required {
			return Decision{Kind: DecisionAllow}
		}
		// Wrong identity class: send it home rather than to a login it
		// does not need.
		return Decision{Kind: DecisionRedirect, Target: homeTargets[active]}
	}

	if since, ok := g.Session.initializedSince(); ok && g.Grace > 0 {
		if g.now().Sub(since) < g.Grace {
			return Decision{Kind: DecisionWait}
		}
	}
	return Decision{Kind: DecisionRedirect, Target: loginTargets[required]}
}
