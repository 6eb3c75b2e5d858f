// Package access decides whether a screen may render for the current session.
package access

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/session"
)

// Outcome of a guard evaluation.
type Outcome int

const (
	ShowLoading Outcome = iota
	RedirectLogin
	RedirectDenied
	Render
)

func (o Outcome) String() string {
	switch o {
	case ShowLoading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDenied:
		return "redirect_denied"
	default:
		return "render"
	}
}

// State is everything the decision depends on.
type State struct {
	Loading       bool
	Authenticated bool
	Role          domain.Role
	RequiredRoles []domain.Role
}

// Decision is the result of Decide. Target is set for redirects.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Routes names the redirect targets.
type Routes struct {
	Login  string
	Denied string
}

// DefaultRoutes are used when a Routes field is empty.
var DefaultRoutes = Routes{Login: "/login", Denied: "/unauthorized"}

func (r Routes) withDefaults() Routes {
	if r.Login == "" {
		r.Login = DefaultRoutes.Login
	}
	if r.Denied == "" {
		r.Denied = DefaultRoutes.Denied
	}
	return r
}

// Decide is the pure guard rule.
func Decide(s State, routes Routes) Decision {
	routes = routes.withDefaults()
	switch {
	case s.Loading:
		return Decision{Outcome: ShowLoading}
	case !s.Authenticated:
		return Decision{Outcome: RedirectLogin, Target: routes.Login}
	case len(s.RequiredRoles) > 0 && !slices.Contains(s.RequiredRoles, s.Role):
		return Decision{Outcome: RedirectDenied, Target: routes.Denied}
	default:
		return Decision{Outcome: Render}
	}
}

// Navigator performs redirects.
type Navigator interface {
	Navigate(target string)
}

// SessionSource is the part of the session store the guard watches.
type SessionSource interface {
	Snapshot() session.Snapshot
	Watch(fn func(session.Snapshot)) func()
}

// Guard protects one route. It re-evaluates on every session change and on
// every change of the required roles or loading flag, and navigates only when
// a new decision is a redirect.
type Guard struct {
	src       SessionSource
	routes    Routes
	navigator Navigator
	logger    *zap.Logger

	mu        sync.Mutex
	required  []domain.Role
	loading   bool
	decision  Decision
	evaluated bool
	listeners []func(Decision)
	stop      func()
}

// NewGuard binds a guard for a route requiring one of required (any
// authenticated role when empty) and evaluates it immediately.
func NewGuard(src SessionSource, nav Navigator, routes Routes, logger *zap.Logger, required ...domain.Role) *Guard {
	return newGuard(false, src, nav, routes, logger, required)
}

// NewLoadingGuard is NewGuard for a session that is still being restored.
// Nothing is decided until SetLoading(false).
func NewLoadingGuard(src SessionSource, nav Navigator, routes Routes, logger *zap.Logger, required ...domain.Role) *Guard {
	return newGuard(true, src, nav, routes, logger, required)
}

func newGuard(loading bool, src SessionSource, nav Navigator, routes Routes, logger *zap.Logger, required []domain.Role) *Guard {
	g := &Guard{
		src:       src,
		routes:    routes.withDefaults(),
		navigator: nav,
		logger:    logger.Named("access"),
		required:  slices.Clone(required),
		loading:   loading,
	}
	g.stop = src.Watch(g.evaluate)
	g.evaluate(src.Snapshot())
	return g
}

// OnChange registers fn to run after every change of decision.
func (g *Guard) OnChange(fn func(Decision)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

// SetRequiredRoles replaces the role set and re-evaluates.
func (g *Guard) SetRequiredRoles(roles ...domain.Role) {
	g.mu.Lock()
	g.required = slices.Clone(roles)
	g.mu.Unlock()
	g.evaluate(g.src.Snapshot())
}

// SetLoading toggles the loading flag and re-evaluates.
func (g *Guard) SetLoading(loading bool) {
	g.mu.Lock()
	g.loading = loading
	g.mu.Unlock()
	g.evaluate(g.src.Snapshot())
}

// Decision returns the latest decision.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Allowed reports whether the guarded content may render.
func (g *Guard) Allowed() bool {
	return g.Decision().Outcome == Render
}

// CanAccess reports whether the current session holds one of roles. With no
// roles it only requires authentication.
func (g *Guard) CanAccess(roles ...domain.Role) bool {
	snap := g.src.Snapshot()
	if !snap.Authenticated {
		return false
	}
	return len(roles) == 0 || slices.Contains(roles, snap.Role())
}

// Close stops watching the session.
func (g *Guard) Close() {
	g.mu.Lock()
	stop := g.stop
	g.stop = nil
	g.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (g *Guard) evaluate(snap session.Snapshot) {
	g.mu.Lock()
	d := Decide(State{
		Loading:       g.loading,
		Authenticated: snap.Authenticated,
		Role:          snap.Role(),
		RequiredRoles: g.required,
	}, g.routes)
	changed := !g.evaluated || d != g.decision
	g.decision = d
	g.evaluated = true
	listeners := slices.Clone(g.listeners)
	g.mu.Unlock()

	if !changed {
		return
	}
	g.logger.Debug("access decision", zap.Stringer("outcome", d.Outcome), zap.String("target", d.Target))
	if d.Target != "" && g.navigator != nil {
		g.navigator.Navigate(d.Target)
	}
	for _, fn := range listeners {
		fn(d)
	}
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(target string) { f(target) }
