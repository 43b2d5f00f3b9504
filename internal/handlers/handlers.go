package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zarathustragosling/project-management/internal/config"
	"github.com/zarathustragosling/project-management/internal/middlewares"
	"github.com/zarathustragosling/project-management/internal/models"
	"github.com/zarathustragosling/project-management/internal/services"
	"gorm.io/gorm"
)

type Handlers struct {
	db            *gorm.DB
	config        *config.Config
	notifications *services.NotificationService
	reports       *services.ReportService
}

func New(db *gorm.DB, cfg *config.Config, notifications *services.NotificationService, reports *services.ReportService) *Handlers {
	return &Handlers{
		db:            db,
		config:        cfg,
		notifications: notifications,
		reports:       reports,
	}
}

// allowedExtensions is the upload allow-list shared by comment attachments
// and profile avatars.
var allowedExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "xls": true, "xlsx": true,
	"txt": true, "jpeg": true, "png": true,
}

// render hands a view name and its data bag to the response layer. What gets
// rendered out of it is not this package's concern.
func render(c *gin.Context, view string, data gin.H) {
	c.JSON(http.StatusOK, gin.H{"view": view, "data": data})
}

// redirectWithNotice finishes a browser form flow: a 303 carrying a flash
// notice. AJAX callers get the same outcome as JSON.
func redirectWithNotice(c *gin.Context, location, notice string) {
	if middlewares.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  notice,
			"redirect": location,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, location+"?notice="+url.QueryEscape(notice))
}

// redirectWithError is redirectWithNotice for user-correctable failures:
// the form is redisplayed with an inline notice, never a 500.
func redirectWithError(c *gin.Context, location, notice string) {
	if middlewares.WantsJSON(c) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error":   notice,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, location+"?error="+url.QueryEscape(notice))
}

func currentUser(c *gin.Context) *models.User {
	user, _ := middlewares.CurrentUser(c)
	return user
}

// paramID parses a numeric path parameter, answering 404 on garbage.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": "Not found",
		"code":  "NOT_FOUND",
	})
}

func forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{
		"error": message,
		"code":  "FORBIDDEN",
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": message,
		"code":  "INVALID_REQUEST",
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal error",
		"code":  "INTERNAL_ERROR",
	})
}

// firstOrNotFound loads an entity by id, answering 404 when it is missing.
func firstOrNotFound[T any](c *gin.Context, db *gorm.DB, id uint) (*T, bool) {
	var entity T
	err := db.First(&entity, id).Error
	if err == gorm.ErrRecordNotFound {
		notFound(c)
		return nil, false
	}
	if err != nil {
		internalError(c)
		return nil, false
	}
	return &entity, true
}
