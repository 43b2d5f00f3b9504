package handlers

import (
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zarathustragosling/project-management/internal/models"
	"github.com/zarathustragosling/project-management/internal/services"
)

// Home is the landing page: the team feed, the five tasks closest to their
// deadlines and the member list. Anonymous visitors get the empty page.
func (h *Handlers) Home(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		render(c, "home", gin.H{})
		return
	}
	if user.TeamID == nil && !user.IsAdmin {
		c.Redirect(http.StatusSeeOther, "/team/select")
		return
	}

	var feed []models.Comment
	err := h.db.Preload("Author").
		Where("type = ?", models.CommentFeed).
		Order("created_at DESC").Limit(10).Find(&feed).Error
	if err != nil {
		log.Printf("Failed to load feed: %v", err)
	}

	data := gin.H{"feed": feedPayload(feed)}

	if user.TeamID != nil {
		var recentTasks []models.Task
		err = h.db.Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("projects.team_id = ?", *user.TeamID).
			Order("deadline ASC").Limit(5).Find(&recentTasks).Error
		if err != nil {
			log.Printf("Failed to load recent tasks: %v", err)
		}

		var members []models.User
		if err := h.db.Preload("Role").Where("team_id = ?", *user.TeamID).Find(&members).Error; err != nil {
			log.Printf("Failed to load team members: %v", err)
		}

		data["recent_tasks"] = recentTasks
		data["team_members"] = members
	}

	render(c, "home", data)
}

func feedPayload(feed []models.Comment) []gin.H {
	payload := make([]gin.H, 0, len(feed))
	for _, comment := range feed {
		payload = append(payload, gin.H{
			"id":           comment.ID,
			"content":      comment.Content,
			"content_html": services.RenderMentions(comment.Content),
			"author":       comment.Author.Username,
			"created_at":   comment.CreatedAt,
		})
	}
	return payload
}

// Dashboard lists the tasks assigned to and created by the current user.
func (h *Handlers) Dashboard(c *gin.Context) {
	user := currentUser(c)

	var assigned, created []models.Task
	if err := h.db.Preload("Project").Where("assigned_to = ?", user.ID).
		Order("created_at DESC").Find(&assigned).Error; err != nil {
		log.Printf("Failed to load assigned tasks: %v", err)
	}
	if err := h.db.Preload("Project").Where("created_by = ?", user.ID).
		Order("created_at DESC").Find(&created).Error; err != nil {
		log.Printf("Failed to load created tasks: %v", err)
	}

	render(c, "dashboard", gin.H{
		"assigned_tasks": assigned,
		"created_tasks":  created,
	})
}

// EditProfilePage shows the profile form.
func (h *Handlers) EditProfilePage(c *gin.Context) {
	render(c, "edit_profile", gin.H{"user": currentUser(c)})
}

// UpdateProfile changes username, description and avatar.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user := currentUser(c)

	if username := c.PostForm("username"); username != "" {
		user.Username = username
	}
	if description := c.PostForm("description"); description != "" {
		user.Description = description
	}

	if file, err := c.FormFile("avatar"); err == nil && file != nil {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
		if !allowedExtensions[ext] {
			redirectWithError(c, "/user/edit_profile", "Недопустимый формат файла")
			return
		}
		filename := filepath.Base(file.Filename)
		dst := filepath.Join(h.config.UploadDir, filename)
		if err := c.SaveUploadedFile(file, dst); err != nil {
			log.Printf("Failed to save avatar: %v", err)
			redirectWithError(c, "/user/edit_profile", "Не удалось сохранить файл")
			return
		}
		user.Avatar = "/static/uploads/" + filename
	}

	if err := h.db.Save(user).Error; err != nil {
		log.Printf("Failed to update profile for user %d: %v", user.ID, err)
		redirectWithError(c, "/user/edit_profile", "Не удалось обновить профиль")
		return
	}

	redirectWithNotice(c, "/user/dashboard", "Профиль обновлен!")
}

// ViewProfile shows another user's profile. Team scoping is enforced by the
// access gate on the route.
func (h *Handlers) ViewProfile(c *gin.Context) {
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.Preload("Role").First(&user, userID).Error; err != nil {
		notFound(c)
		return
	}

	render(c, "profile", gin.H{"user": user})
}

// ChangePassword verifies the old password before setting the new one.
func (h *Handlers) ChangePassword(c *gin.Context) {
	user := currentUser(c)
	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")

	if newPassword == "" {
		redirectWithError(c, "/user/dashboard", "Новый пароль не может быть пустым")
		return
	}
	if !user.CheckPassword(oldPassword) {
		redirectWithError(c, "/user/dashboard", "Старый пароль неверный")
		return
	}

	if err := user.SetPassword(newPassword); err != nil {
		internalError(c)
		return
	}
	if err := h.db.Save(user).Error; err != nil {
		log.Printf("Failed to change password for user %d: %v", user.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/user/dashboard", "Пароль успешно изменен")
}
