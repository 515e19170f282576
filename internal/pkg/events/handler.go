package events

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/btrade/btrade-backend/internal/app/models"
)

// Handler upgrades admin connections to WebSocket and registers them with
// the hub
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection upgrades the HTTP connection to a WebSocket for the
// enrollment event stream. Admin role is required.
func (h *Handler) HandleConnection(c *gin.Context) {
	// Get user ID from context (set by auth middleware)
	userIDInterface, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in context",
		})
		return
	}

	userID, ok := userIDInterface.(int64)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Invalid user ID format",
		})
		return
	}

	roleInterface, _ := c.Get("userRole")
	role, ok := roleInterface.(models.RoleType)
	if !ok || role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Admin role required",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		logger: h.logger,
	}
	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("Enrollment event stream established")
}
