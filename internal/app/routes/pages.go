package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/btrade/btrade-backend/internal/middleware"
	"github.com/btrade/btrade-backend/internal/pkg/auth"
)

const webDistDir = "web/dist"

// pagePaths are the browser routes served through the session gate. The
// gate redirects signed-out users away from protected pages and signed-in
// users away from the auth pages.
var pagePaths = []string{
	"/",
	"/sign-in",
	"/sign-up",
	"/forgot-password",
	"/reset-password",
	"/dashboard",
	"/courses-page",
}

// SetupPageRoutes serves the single-page frontend behind the session gate.
// When no built frontend is present (API-only deployments) the page routes
// are skipped entirely.
func SetupPageRoutes(router *gin.Engine, jwtService *auth.JWTService) {
	index := filepath.Join(webDistDir, "index.html")
	if _, err := os.Stat(index); os.IsNotExist(err) {
		return
	}

	gate := middleware.SessionGate(jwtService)
	serveIndex := func(c *gin.Context) {
		c.File(index)
	}

	for _, path := range pagePaths {
		router.GET(path, gate, serveIndex)
	}

	router.Static("/assets", filepath.Join(webDistDir, "assets"))

	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			gate(c)
			if !c.IsAborted() {
				serveIndex(c)
			}
			return
		}
		c.Status(http.StatusNotFound)
	})
}
