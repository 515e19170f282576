package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		authenticated bool
		want          GateDecision
	}{
		{
			name:          "root allowed when signed out",
			path:          "/",
			authenticated: false,
			want:          GateAllow,
		},
		{
			name:          "root allowed when signed in",
			path:          "/",
			authenticated: true,
			want:          GateAllow,
		},
		{
			name:          "sign-in allowed when signed out",
			path:          "/sign-in",
			authenticated: false,
			want:          GateAllow,
		},
		{
			name:          "sign-in redirects to dashboard when signed in",
			path:          "/sign-in",
			authenticated: true,
			want:          GateRedirectToDashboard,
		},
		{
			name:          "sign-up redirects to dashboard when signed in",
			path:          "/sign-up",
			authenticated: true,
			want:          GateRedirectToDashboard,
		},
		{
			name:          "forgot-password allowed when signed out",
			path:          "/forgot-password",
			authenticated: false,
			want:          GateAllow,
		},
		{
			name:          "dashboard redirects to sign-in when signed out",
			path:          "/dashboard",
			authenticated: false,
			want:          GateRedirectToSignIn,
		},
		{
			name:          "dashboard allowed when signed in",
			path:          "/dashboard",
			authenticated: true,
			want:          GateAllow,
		},
		{
			name:          "course page redirects to sign-in when signed out",
			path:          "/courses/42",
			authenticated: false,
			want:          GateRedirectToSignIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.path, tt.authenticated)
			assert.Equal(t, tt.want, got)
		})
	}
}
