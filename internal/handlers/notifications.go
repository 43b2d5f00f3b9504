package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/middlewares"
	"github.com/zarathustragosling/project-management/internal/models"
)

// NotificationList shows the current user's notifications, newest first.
func (h *Handlers) NotificationList(c *gin.Context) {
	user := currentUser(c)

	var notifications []models.Notification
	err := h.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		log.Printf("Failed to load notifications for user %d: %v", user.ID, err)
		internalError(c)
		return
	}

	render(c, "notifications", gin.H{"notifications": notifications})
}

// MarkNotificationRead marks one of the caller's notifications as read.
// Re-marking a read notification succeeds without effect.
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	user := currentUser(c)

	notificationID, ok := paramID(c, "notificationID")
	if !ok {
		return
	}

	var notification models.Notification
	err := h.db.First(&notification, notificationID).Error
	if err == gorm.ErrRecordNotFound {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c)
		return
	}
	if notification.UserID != user.ID {
		forbidden(c, "Это не ваше уведомление")
		return
	}

	if !notification.IsRead {
		if err := h.db.Model(&notification).Update("is_read", true).Error; err != nil {
			log.Printf("Failed to mark notification %d read: %v", notification.ID, err)
			internalError(c)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllNotificationsRead clears the caller's unread pile in one statement.
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	user := currentUser(c)

	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Update("is_read", true).Error
	if err != nil {
		log.Printf("Failed to mark notifications read for user %d: %v", user.ID, err)
		internalError(c)
		return
	}

	if middlewares.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	redirectWithNotice(c, "/notifications", "Все уведомления прочитаны")
}

// UnreadCount feeds the navbar badge. Anonymous callers get zero, not an
// error, so the badge poll never breaks the login page.
func (h *Handlers) UnreadCount(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"count": 0})
		return
	}

	var count int64
	err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Count(&count).Error
	if err != nil {
		log.Printf("Failed to count notifications for user %d: %v", user.ID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
