package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/btrade/btrade-backend/internal/pkg/auth"
)

// GateDecision is the outcome of the session gate for a page request.
type GateDecision int

const (
	GateAllow GateDecision = iota
	GateRedirectToSignIn
	GateRedirectToDashboard
)

const (
	SessionCookieName   = "btrade_session"
	SessionCookieMaxAge = 24 * 60 * 60 // seconds

	signInPath    = "/sign-in"
	dashboardPath = "/dashboard"
)

// publicOnlyPaths are reachable without a session. A signed-in user landing
// on one of them (except the root) is sent to the dashboard instead.
var publicOnlyPaths = map[string]bool{
	"/":                true,
	"/sign-in":         true,
	"/sign-up":         true,
	"/forgot-password": true,
	"/reset-password":  true,
}

// Decide resolves where a page request should go. The root path is always
// allowed regardless of session state.
func Decide(path string, authenticated bool) GateDecision {
	if path == "/" {
		return GateAllow
	}
	if publicOnlyPaths[path] {
		if authenticated {
			return GateRedirectToDashboard
		}
		return GateAllow
	}
	if !authenticated {
		return GateRedirectToSignIn
	}
	return GateAllow
}

// SessionGate guards browser page routes. The session is a cookie holding
// the access token; any token validation failure counts as signed out.
func SessionGate(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticated := false
		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			if _, err := jwtService.ValidateAndExtractClaims(cookie); err == nil {
				authenticated = true
			}
		}

		switch Decide(c.Request.URL.Path, authenticated) {
		case GateRedirectToSignIn:
			c.Redirect(http.StatusSeeOther, signInPath)
			c.Abort()
		case GateRedirectToDashboard:
			c.Redirect(http.StatusSeeOther, dashboardPath)
			c.Abort()
		default:
			c.Next()
		}
	}
}
