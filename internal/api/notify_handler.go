package api

import (
	"errors"
	"net/http"
	"strconv"

	"shopflow/internal/hub"
	"shopflow/internal/models"
	"shopflow/internal/service"

	"github.com/gin-gonic/gin"
)

// NotifyHandler exposes notification creation, history reads and the
// websocket endpoint.
type NotifyHandler struct {
	notifications *service.NotificationService
	ws            *hub.Handler
}

// NewNotifyHandler creates a new notification handler
func NewNotifyHandler(notifications *service.NotificationService, ws *hub.Handler) *NotifyHandler {
	return &NotifyHandler{notifications: notifications, ws: ws}
}

// SetupRoutes sets up HTTP routes
func (h *NotifyHandler) SetupRoutes(router *gin.Engine) {
	RegisterBase(router)

	router.GET("/ws", h.ws.Serve)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/notifications", h.createNotification)
		v1.GET("/notifications/:userId", h.listNotifications)
	}
}

// createNotification handles direct notification requests
func (h *NotifyHandler) createNotification(c *gin.Context) {
	var msg models.NotificationRequestMessage

	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	n, err := h.notifications.CreateFromRequest(c.Request.Context(), &msg)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create notification",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, n)
}

// listNotifications returns a user's recent notifications
func (h *NotifyHandler) listNotifications(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	items, err := h.notifications.RecentNotifications(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load notifications",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items})
}
