package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	echo "github.com/labstack/echo/v4"

	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
	"github.com/DivyanshuTiwari-1/makeupai/internal/session"
)

type fakeIntrospector struct {
	identity *model.Identity
	err      error
	calls    int
}

func (f *fakeIntrospector) Introspect(context.Context, string) (*model.Identity, error) {
	f.calls++
	return f.identity, f.err
}

type fakeLimiter struct {
	allow bool
	calls int
}

func (f *fakeLimiter) Allow(context.Context, string, int) bool {
	f.calls++
	return f.allow
}

func newGateRouter(intro *fakeIntrospector, lim *fakeLimiter) *echo.Echo {
	e := echo.New()
	e.Use(AuthGate(AuthGateConfig{
		Resolver:  session.NewResolver(intro, "sb-access-token"),
		Limiter:   lim,
		PageLimit: 100,
		APILimit:  10,
	}))
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/*", handler)
	e.POST("/*", handler)
	return e
}

func doRequest(e *echo.Echo, method, path string, withSession bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if withSession {
		req.AddCookie(&http.Cookie{Name: "sb-access-token", Value: "token"})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGateBypassedSkipsLimiterAndResolver(t *testing.T) {
	intro := &fakeIntrospector{identity: &model.Identity{ID: "u1", Email: "u1@example.com"}}
	lim := &fakeLimiter{allow: true}
	e := newGateRouter(intro, lim)

	rec := doRequest(e, http.MethodGet, "/healthz", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if lim.calls != 0 {
		t.Fatalf("bypassed path should not touch the limiter, got %d calls", lim.calls)
	}
	if intro.calls != 0 {
		t.Fatalf("bypassed path should not resolve identity, got %d calls", intro.calls)
	}
}

func TestGatePublicForwardsWithoutSession(t *testing.T) {
	intro := &fakeIntrospector{}
	lim := &fakeLimiter{allow: false} // would reject if consulted
	e := newGateRouter(intro, lim)

	rec := doRequest(e, http.MethodPost, "/api/stripe/webhook", false)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if lim.calls != 0 || intro.calls != 0 {
		t.Fatal("public path should pass untouched")
	}
}

func TestGateRateLimitRejects(t *testing.T) {
	intro := &fakeIntrospector{identity: &model.Identity{ID: "u1"}}
	lim := &fakeLimiter{allow: false}
	e := newGateRouter(intro, lim)

	rec := doRequest(e, http.MethodGet, "/api/user/credits", true)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if intro.calls != 0 {
		t.Fatal("rate-limited request should be rejected before identity resolution")
	}
}

func TestGateProtectedAPIWithoutSessionIs401(t *testing.T) {
	e := newGateRouter(&fakeIntrospector{}, &fakeLimiter{allow: true})

	rec := doRequest(e, http.MethodGet, "/api/user/credits", false)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Fatalf("API caller must never be redirected, got Location %q", loc)
	}
}

func TestGateProtectedPageWithoutSessionRedirects(t *testing.T) {
	e := newGateRouter(&fakeIntrospector{}, &fakeLimiter{allow: true})

	rec := doRequest(e, http.MethodGet, "/dashboard/settings", false)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if loc.Path != "/login" {
		t.Fatalf("expected redirect to /login, got %s", loc.Path)
	}
	if got := loc.Query().Get("redirect"); got != "/dashboard/settings" {
		t.Fatalf("expected redirect param to preserve the original path, got %q", got)
	}
}

func TestGateProviderErrorFailsClosed(t *testing.T) {
	intro := &fakeIntrospector{err: errors.New("provider unreachable")}
	e := newGateRouter(intro, &fakeLimiter{allow: true})

	rec := doRequest(e, http.MethodGet, "/api/generate", true)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when the provider fails, got %d", rec.Code)
	}
}

func TestGateAttachesIdentity(t *testing.T) {
	intro := &fakeIntrospector{identity: &model.Identity{ID: "u1", Email: "u1@example.com"}}
	e := echo.New()
	e.Use(AuthGate(AuthGateConfig{
		Resolver:  session.NewResolver(intro, "sb-access-token"),
		Limiter:   &fakeLimiter{allow: true},
		PageLimit: 100,
		APILimit:  10,
	}))
	e.GET("/api/user/credits", func(c echo.Context) error {
		id, ok := IdentityFromCtx(c)
		if !ok {
			t.Fatal("identity missing from context on a protected route")
		}
		if id.ID != "u1" {
			t.Fatalf("unexpected identity %+v", id)
		}
		if c.Request().Header.Get(HeaderUserID) != "u1" {
			t.Fatal("x-user-id header not set")
		}
		if c.Request().Header.Get(HeaderUserEmail) != "u1@example.com" {
			t.Fatal("x-user-email header not set")
		}
		return c.NoContent(http.StatusOK)
	})

	rec := doRequest(e, http.MethodGet, "/api/user/credits", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
