package guard_test

import (
	"testing"

	"kiosco/src-client/guard"
	"kiosco/src-client/token"
)

func TestEvaluate(t *testing.T) {
	authPage := guard.Page{RequiresAuth: true}

	// case: kiosco role on an admin-only path is sent home
	func() {
		decision := guard.Evaluate(true, token.ROLE_KIOSCO, "/productos", authPage)
		if !decision.Redirect || decision.Target != guard.HomePath {
			t.Error("kiosco at /productos should redirect home, got", decision)
		}
	}()

	// case: admin on the same path stays
	func() {
		decision := guard.Evaluate(true, token.ROLE_ADMIN, "/productos", authPage)
		if decision.Redirect {
			t.Error("admin at /productos should not redirect, got", decision)
		}
	}()

	// case: unauthenticated visitor on an auth page goes to login
	func() {
		decision := guard.Evaluate(false, "", "/inicio", authPage)
		if !decision.Redirect || decision.Target != guard.LoginPath {
			t.Error("unauthenticated visitor should redirect to login, got", decision)
		}
	}()

	// case: scenario from the backend contract, kiosco navigating /usuarios
	func() {
		decision := guard.Evaluate(true, token.ROLE_KIOSCO, "/usuarios", authPage)
		if !decision.Redirect || decision.Target != guard.HomePath {
			t.Error("kiosco at /usuarios should redirect home, got", decision)
		}
	}()

	// case: page-level allow-list beats the route table
	func() {
		adminOnly := guard.Page{
			RequiresAuth: true,
			AllowedRoles: []token.Role{token.ROLE_ADMIN},
		}
		decision := guard.Evaluate(true, token.ROLE_KIOSCO, "/inicio", adminOnly)
		if !decision.Redirect || decision.Target != guard.HomePath {
			t.Error("allow-list should exclude kiosco, got", decision)
		}
	}()

	// case: the allow-list binds public pages too, ahead of RedirectIfAuthed
	func() {
		adminLanding := guard.Page{
			AllowedRoles:     []token.Role{token.ROLE_ADMIN},
			RedirectIfAuthed: "/estadisticas",
		}
		decision := guard.Evaluate(true, token.ROLE_KIOSCO, "/", adminLanding)
		if !decision.Redirect || decision.Target != guard.HomePath {
			t.Error("excluded role on a public page should go home, got", decision)
		}
	}()

	// case: public-only page while authenticated
	func() {
		decision := guard.Evaluate(true, token.ROLE_ADMIN, "/", guard.Page{})
		if !decision.Redirect || decision.Target != guard.HomePath {
			t.Error("authenticated visitor on public page should go home, got", decision)
		}
		decision = guard.Evaluate(true, token.ROLE_ADMIN, "/", guard.Page{RedirectIfAuthed: "/estadisticas"})
		if !decision.Redirect || decision.Target != "/estadisticas" {
			t.Error("caller-supplied destination should win, got", decision)
		}
	}()

	// case: public page while unauthenticated stays put
	func() {
		decision := guard.Evaluate(false, "", "/", guard.Page{})
		if decision.Redirect {
			t.Error("unauthenticated visitor on public page should stay, got", decision)
		}
	}()

	// case: unknown role falls back to the admin table
	func() {
		decision := guard.Evaluate(true, token.Role("repartidor"), "/estadisticas", authPage)
		if decision.Redirect {
			t.Error("unknown role should fall back to admin paths, got", decision)
		}
	}()
}

func TestGuardRedirectsOncePerNavigation(t *testing.T) {
	g := new(guard.Guard)
	authPage := guard.Page{RequiresAuth: true}

	first := g.Check(true, token.ROLE_KIOSCO, "/productos", authPage)
	if !first.Redirect {
		t.Fatal("first evaluation should redirect")
	}

	// same path, async state settled: no second redirect
	second := g.Check(true, token.ROLE_KIOSCO, "/productos", authPage)
	if second.Redirect {
		t.Error("repeat evaluation on the same path should not redirect again")
	}

	// the route changed, the guard re-arms
	third := g.Check(true, token.ROLE_KIOSCO, "/usuarios", authPage)
	if !third.Redirect || third.Target != guard.HomePath {
		t.Error("new path should be evaluated fresh, got", third)
	}

	// landing somewhere legal clears the flag too
	fourth := g.Check(true, token.ROLE_KIOSCO, "/inicio", authPage)
	if fourth.Redirect {
		t.Error("kiosco at /inicio should stay, got", fourth)
	}
}
