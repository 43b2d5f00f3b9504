package handlers

import (
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/middlewares"
	"github.com/zarathustragosling/project-management/internal/models"
	"github.com/zarathustragosling/project-management/internal/services"
)

// AddComment posts a comment (optionally a reply) on a task, with file
// attachments.
func (h *Handlers) AddComment(c *gin.Context) {
	user := currentUser(c)

	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}
	task, ok := firstOrNotFound[models.Task](c, h.db, taskID)
	if !ok {
		return
	}

	taskPath := "/task/" + uitoa(task.ID)

	content := strings.TrimSpace(c.PostForm("content"))
	if content == "" {
		redirectWithError(c, taskPath, "Комментарий не может быть пустым")
		return
	}

	comment := models.Comment{
		Content: content,
		Type:    models.CommentTask,
		TaskID:  &task.ID,
		UserID:  user.ID,
	}

	if raw := c.PostForm("parent_id"); raw != "" {
		parentID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			redirectWithError(c, taskPath, "Некорректный родительский комментарий")
			return
		}
		var parent models.Comment
		if err := h.db.First(&parent, uint(parentID)).Error; err != nil {
			redirectWithError(c, taskPath, "Родительский комментарий не найден")
			return
		}
		if parent.TaskID == nil || *parent.TaskID != task.ID {
			redirectWithError(c, taskPath, "Родительский комментарий относится к другой задаче")
			return
		}
		id := uint(parentID)
		comment.ParentID = &id
	}

	form, _ := c.MultipartForm()
	var files []*multipart.FileHeader
	if form != nil {
		for _, file := range form.File["attachments"] {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
			if !allowedExtensions[ext] {
				redirectWithError(c, taskPath, "Недопустимый формат файла: "+file.Filename)
				return
			}
			files = append(files, file)
		}
	}

	if err := h.db.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		redirectWithError(c, taskPath, "Не удалось добавить комментарий")
		return
	}

	for _, file := range files {
		h.saveAttachment(c, &comment, file)
	}

	if middlewares.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"comment_id":   comment.ID,
			"content_html": services.RenderMentions(comment.Content),
		})
		return
	}
	redirectWithNotice(c, taskPath, "Комментарий добавлен!")
}

// saveAttachment writes the upload to disk before recording the row; a disk
// failure is logged and the comment survives without that file.
func (h *Handlers) saveAttachment(c *gin.Context, comment *models.Comment, file *multipart.FileHeader) {
	filename := filepath.Base(file.Filename)
	stored := uitoa(comment.ID) + "_" + filename
	dst := filepath.Join(h.config.UploadDir, stored)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Printf("Failed to save attachment %s: %v", filename, err)
		return
	}
	attachment := models.CommentAttachment{
		Filename:  filename,
		Filepath:  stored,
		CommentID: comment.ID,
	}
	if err := h.db.Create(&attachment).Error; err != nil {
		log.Printf("Failed to record attachment %s: %v", filename, err)
	}
}

// EditComment lets the author amend their own comment.
func (h *Handlers) EditComment(c *gin.Context) {
	user := currentUser(c)

	commentID, ok := paramID(c, "commentID")
	if !ok {
		return
	}
	comment, ok := firstOrNotFound[models.Comment](c, h.db, commentID)
	if !ok {
		return
	}
	if comment.UserID != user.ID {
		forbidden(c, "Вы можете редактировать только свои комментарии")
		return
	}

	content := strings.TrimSpace(c.PostForm("content"))
	if content == "" {
		badRequest(c, "Комментарий не может быть пустым")
		return
	}

	comment.Content = content
	if err := h.db.Save(comment).Error; err != nil {
		log.Printf("Failed to update comment %d: %v", comment.ID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"content_html": services.RenderMentions(comment.Content),
	})
}

// RenderComment returns one comment as render data, used to refresh a single
// card after an AJAX edit.
func (h *Handlers) RenderComment(c *gin.Context) {
	commentID, ok := paramID(c, "commentID")
	if !ok {
		return
	}

	var comment models.Comment
	err := h.db.Preload("Author").Preload("Attachments").
		Preload("Replies").Preload("Replies.Author").
		First(&comment, commentID).Error
	if err == gorm.ErrRecordNotFound {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c)
		return
	}

	render(c, "comment", gin.H{
		"comment":      comment,
		"content_html": services.RenderMentions(comment.Content),
	})
}

// PostFeed publishes a message to the team feed.
func (h *Handlers) PostFeed(c *gin.Context) {
	user := currentUser(c)

	content := strings.TrimSpace(c.PostForm("content"))
	if content == "" {
		redirectWithError(c, "/user/", "Сообщение не может быть пустым")
		return
	}

	comment := models.Comment{
		Content: content,
		Type:    models.CommentFeed,
		UserID:  user.ID,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		log.Printf("Failed to post to feed: %v", err)
		redirectWithError(c, "/user/", "Не удалось опубликовать сообщение")
		return
	}

	redirectWithNotice(c, "/user/", "Сообщение опубликовано!")
}

// MarkSolution marks a comment as the task's solution. At most one comment
// per task carries the flag; marking a second one moves it.
func (h *Handlers) MarkSolution(c *gin.Context) {
	h.setSolution(c, true)
}

// UnmarkSolution withdraws the solution flag.
func (h *Handlers) UnmarkSolution(c *gin.Context) {
	h.setSolution(c, false)
}

func (h *Handlers) setSolution(c *gin.Context, mark bool) {
	user := currentUser(c)

	commentID, ok := paramID(c, "commentID")
	if !ok {
		return
	}
	comment, ok := firstOrNotFound[models.Comment](c, h.db, commentID)
	if !ok {
		return
	}
	if comment.TaskID == nil {
		badRequest(c, "Комментарий не относится к задаче")
		return
	}

	task, ok := firstOrNotFound[models.Task](c, h.db, *comment.TaskID)
	if !ok {
		return
	}
	if !(user.IsAdmin || user.IsTeamLead() || task.CreatedBy == user.ID) {
		forbidden(c, "Отмечать решение может только автор задачи или тимлид")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comment{}).Where("task_id = ?", task.ID).
			Update("is_solution", false).Error; err != nil {
			return err
		}
		if !mark {
			return nil
		}
		return tx.Model(comment).Update("is_solution", true).Error
	})
	if err != nil {
		log.Printf("Failed to update solution for task %d: %v", task.ID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "is_solution": mark})
}

// DeleteComment removes a comment and its attachments. Replies are kept and
// promoted to top level. Deleting the solution leaves the task without one.
func (h *Handlers) DeleteComment(c *gin.Context) {
	user := currentUser(c)

	commentID, ok := paramID(c, "commentID")
	if !ok {
		return
	}
	comment, ok := firstOrNotFound[models.Comment](c, h.db, commentID)
	if !ok {
		return
	}
	if !(comment.UserID == user.ID || user.IsTeamLead() || user.IsAdmin) {
		forbidden(c, "Вы можете удалять только свои комментарии")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", comment.ID).
			Delete(&models.CommentAttachment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", comment.ID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(comment).Error
	})
	if err != nil {
		log.Printf("Failed to delete comment %d: %v", comment.ID, err)
		internalError(c)
		return
	}

	if comment.TaskID != nil {
		redirectWithNotice(c, "/task/"+uitoa(*comment.TaskID), "Комментарий удален!")
		return
	}
	redirectWithNotice(c, "/user/", "Комментарий удален!")
}

// AddAttachment attaches a file to an existing comment.
func (h *Handlers) AddAttachment(c *gin.Context) {
	user := currentUser(c)

	commentID, ok := paramID(c, "commentID")
	if !ok {
		return
	}
	comment, ok := firstOrNotFound[models.Comment](c, h.db, commentID)
	if !ok {
		return
	}
	if comment.UserID != user.ID {
		forbidden(c, "Вы можете прикреплять файлы только к своим комментариям")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Файл обязателен")
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if !allowedExtensions[ext] {
		badRequest(c, "Недопустимый формат файла")
		return
	}

	filename := filepath.Base(file.Filename)
	stored := uitoa(comment.ID) + "_" + filename
	dst := filepath.Join(h.config.UploadDir, stored)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Printf("Failed to save attachment %s: %v", filename, err)
		internalError(c)
		return
	}

	attachment := models.CommentAttachment{
		Filename:  filename,
		Filepath:  stored,
		CommentID: comment.ID,
	}
	if err := h.db.Create(&attachment).Error; err != nil {
		log.Printf("Failed to record attachment %s: %v", filename, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"filename": attachment.Filename,
		"filepath": attachment.Filepath,
	})
}
