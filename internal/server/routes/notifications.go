package routes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"workhub/internal/notify"
)

type NotificationRoutes struct {
	server ServerInterface
}

func NewNotificationRoutes(server ServerInterface) *NotificationRoutes {
	return &NotificationRoutes{server: server}
}

func (nr *NotificationRoutes) RegisterRoutes(r *gin.Engine) {
	// Create middleware instance
	middleware := NewMiddleware(nr.server)

	// Notification routes
	r.GET("/notifications", middleware.AuthMiddleware(), nr.getNotificationsHandler)
	r.GET("/notifications/unread-count", middleware.AuthMiddleware(), nr.unreadCountHandler)
	r.POST("/notifications/:id/read", middleware.AuthMiddleware(), nr.markNotificationAsReadHandler)
	r.POST("/notifications/:id/unread", middleware.AuthMiddleware(), nr.markNotificationAsUnreadHandler)
	r.DELETE("/notifications/:id", middleware.AuthMiddleware(), nr.deleteNotificationHandler)
}

// getNotificationsHandler returns the newest notifications of the caller
func (nr *NotificationRoutes) getNotificationsHandler(c *gin.Context) {
	account := currentAccount(c)

	// Get limit from query parameter, default to 50
	limitStr := c.DefaultQuery("limit", strconv.Itoa(notify.DefaultLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = notify.DefaultLimit
	}

	notifications, err := nr.server.GetServices().Inbox.List(c.Request.Context(), account.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (nr *NotificationRoutes) unreadCountHandler(c *gin.Context) {
	account := currentAccount(c)

	count, err := nr.server.GetServices().Inbox.UnreadCount(c.Request.Context(), account.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// markNotificationAsReadHandler marks a specific notification as read
func (nr *NotificationRoutes) markNotificationAsReadHandler(c *gin.Context) {
	nr.setRead(c, true)
}

func (nr *NotificationRoutes) markNotificationAsUnreadHandler(c *gin.Context) {
	nr.setRead(c, false)
}

func (nr *NotificationRoutes) setRead(c *gin.Context, read bool) {
	account := currentAccount(c)
	notificationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := nr.server.GetServices().Inbox.SetRead(c.Request.Context(), account.ID, notificationID, read); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification updated"})
}

func (nr *NotificationRoutes) deleteNotificationHandler(c *gin.Context) {
	account := currentAccount(c)
	notificationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := nr.server.GetServices().Inbox.Delete(c.Request.Context(), account.ID, notificationID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
