package guard

import (
	"slices"
	"sync"

	"kiosco/src-client/token"
)

const (
	// public landing / login page
	LoginPath = "/"
	// default landing for anyone authenticated
	HomePath = "/inicio"
)

// role → paths that role may navigate to; immutable after process start
var routeAccessTable = map[token.Role][]string{
	token.ROLE_ADMIN:  {"/inicio", "/productos", "/pagina", "/estadisticas", "/usuarios"},
	token.ROLE_KIOSCO: {"/inicio"},
}

// AllowedPaths for a role. Roles missing from the table fall back to admin.
func AllowedPaths(role token.Role) []string {
	if paths, ok := routeAccessTable[role]; ok {
		return paths
	}
	return routeAccessTable[token.ROLE_ADMIN]
}

// Page is what the current page declares about itself.
type Page struct {
	RequiresAuth bool
	// explicit allow-list; empty means the route table alone decides
	AllowedRoles []token.Role
	// where a public-only page sends an already-authenticated visitor;
	// empty means HomePath
	RedirectIfAuthed string
}

type Decision struct {
	Redirect bool
	Target   string
}

var stay = Decision{}

func redirectTo(target string) Decision {
	return Decision{Redirect: true, Target: target}
}

// Evaluate is the pure decision function. Rules apply in order; the first
// match wins.
func Evaluate(authenticated bool, role token.Role, currentPath string, page Page) Decision {
	// auth-only page without a valid session
	if page.RequiresAuth && !authenticated {
		return redirectTo(LoginPath)
	}

	// a page-level allow-list excluding this role sends anyone
	// authenticated home, public page or not
	if authenticated && len(page.AllowedRoles) > 0 && !slices.Contains(page.AllowedRoles, role) {
		return redirectTo(HomePath)
	}

	if authenticated && page.RequiresAuth {
		// the route table enumerates authenticated panel paths only, so it
		// binds auth-declaring pages; public pages fall through to the
		// redirect below
		if !slices.Contains(AllowedPaths(role), currentPath) {
			return redirectTo(HomePath)
		}
		return stay
	}

	// public-only page while authenticated
	if !page.RequiresAuth && authenticated {
		if page.RedirectIfAuthed != "" {
			return redirectTo(page.RedirectIfAuthed)
		}
		return redirectTo(HomePath)
	}

	return stay
}

// Guard wraps Evaluate with the redirect-once flag: after a redirect is
// issued, repeat evaluations are suppressed until the route actually
// changes, so async state updates can't cause redirect loops.
type Guard struct {
	mu         sync.Mutex
	lastPath   string
	redirected bool
}

func (g *Guard) Check(authenticated bool, role token.Role, currentPath string, page Page) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if currentPath != g.lastPath {
		g.lastPath = currentPath
		g.redirected = false
	}
	if g.redirected {
		return stay
	}

	decision := Evaluate(authenticated, role, currentPath, page)
	if decision.Redirect {
		g.redirected = true
	}
	return decision
}
