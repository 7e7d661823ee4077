// Package router maps paths to views and gates them with the navigation
// guard.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrRouteNotFound = errors.New("route not found")

const (
	UsersRoute = "users"
	LoginRoute = "login"
)

type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
}

// IsLogin reports whether r is the login route.
func (r Route) IsLogin() bool { return r.Name == LoginRoute }

// DefaultRoutes are the application's routes: the users view at "/" and the
// public login view at "/login".
func DefaultRoutes() []Route {
	return []Route{
		{Name: UsersRoute, Path: "/", RequiresAuth: true},
		{Name: LoginRoute, Path: "/login"},
	}
}

type Outcome int

const (
	Allowed Outcome = iota
	RedirectedToLogin
	RedirectedToHome
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case RedirectedToLogin:
		return "redirected to login"
	case RedirectedToHome:
		return "redirected to home"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type Decision struct {
	Outcome Outcome
}

// Guard decides a transition to target. Protected routes need
// authentication; an authenticated user is sent home from the login route.
func Guard(target Route, authenticated bool) Decision {
	switch {
	case target.RequiresAuth && !authenticated:
		return Decision{Outcome: RedirectedToLogin}
	case target.IsLogin() && authenticated:
		return Decision{Outcome: RedirectedToHome}
	default:
		return Decision{Outcome: Allowed}
	}
}

// AuthChecker is implemented by the session.
type AuthChecker interface {
	IsAuthenticated() bool
}

// EnterFunc renders a view after the router has switched to it.
type EnterFunc func(ctx context.Context, r Route) error

type Router struct {
	auth   AuthChecker
	routes []Route

	mu      sync.RWMutex
	current Route
	onEnter map[string]EnterFunc
}

func New(auth AuthChecker, routes []Route) *Router {
	return &Router{auth: auth, routes: routes, onEnter: make(map[string]EnterFunc)}
}

// OnEnter registers fn to run each time route name becomes current.
func (r *Router) OnEnter(name string, fn EnterFunc) {
	r.mu.Lock()
	r.onEnter[name] = fn
	r.mu.Unlock()
}

func (r *Router) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Router) Resolve(path string) (Route, error) {
	for _, rt := range r.routes {
		if rt.Path == path {
			return rt, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, path)
}

func (r *Router) byName(name string) (Route, error) {
	for _, rt := range r.routes {
		if rt.Name == name {
			return rt, nil
		}
	}
	return Route{}, fmt.Errorf("%w: %s", ErrRouteNotFound, name)
}

// Navigate resolves path, applies the guard and enters the resulting route.
func (r *Router) Navigate(ctx context.Context, path string) error {
	_, err := r.Go(ctx, path)
	return err
}

// Go is Navigate that also reports the guard decision.
func (r *Router) Go(ctx context.Context, path string) (Decision, error) {
	target, err := r.Resolve(path)
	if err != nil {
		return Decision{}, err
	}

	d := Guard(target, r.auth.IsAuthenticated())
	dest := target
	switch d.Outcome {
	case RedirectedToLogin:
		dest, err = r.byName(LoginRoute)
	case RedirectedToHome:
		dest, err = r.byName(UsersRoute)
	}
	if err != nil {
		return d, err
	}

	r.mu.Lock()
	r.current = dest
	fn := r.onEnter[dest.Name]
	r.mu.Unlock()

	if fn != nil {
		if err := fn(ctx, dest); err != nil {
			return d, fmt.Errorf("enter %s: %w", dest.Name, err)
		}
	}
	return d, nil
}
