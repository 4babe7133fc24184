package middleware

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want RouteClass
	}{
		{"/_next/static/chunk.js", RouteBypassed},
		{"/static/logo.png", RouteBypassed},
		{"/assets/style.css", RouteBypassed},
		{"/auth/v1/token", RouteBypassed},
		{"/favicon.ico", RouteBypassed},
		{"/images/hero.webp", RouteBypassed},
		{"/healthz", RouteBypassed},
		{"/metrics", RouteBypassed},

		{"/", RoutePublic},
		{"/login", RoutePublic},
		{"/signup", RoutePublic},
		{"/auth/callback", RoutePublic},
		{"/api/stripe/webhook", RoutePublic},

		{"/dashboard", RouteProtected},
		{"/dashboard/settings", RouteProtected},
		{"/generate", RouteProtected},
		{"/history", RouteProtected},
		{"/api/generate", RouteProtected},
		{"/api/history", RouteProtected},
		{"/api/user/credits", RouteProtected},
		{"/api/stripe/checkout", RouteProtected},

		// default-deny: unknown paths are protected
		{"/admin", RouteProtected},
		{"/api/unknown", RouteProtected},
		{"/loginx", RouteProtected},
	}

	for _, tc := range cases {
		if got := Classify(tc.path); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestIsAPIPath(t *testing.T) {
	if !IsAPIPath("/api/generate") {
		t.Fatal("expected /api/generate to be an API path")
	}
	if IsAPIPath("/dashboard") {
		t.Fatal("expected /dashboard to be a page path")
	}
}
