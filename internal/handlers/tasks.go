package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
	"github.com/zarathustragosling/project-management/internal/services"
)

// Kanban renders the project board: active tasks grouped by status column,
// ordered by position within each column.
func (h *Handlers) Kanban(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	var tasks []models.Task
	err := h.db.Preload("AssignedUser").
		Where("project_id = ? AND is_archived = ?", project.ID, false).
		Order("position ASC").
		Find(&tasks).Error
	if err != nil {
		log.Printf("Failed to load tasks for project %d: %v", project.ID, err)
		internalError(c)
		return
	}

	columns := gin.H{}
	for _, status := range []models.TaskStatus{models.StatusToDo, models.StatusInProgress, models.StatusDone} {
		column := make([]models.Task, 0)
		for _, task := range tasks {
			if task.Status == status {
				column = append(column, task)
			}
		}
		columns[string(status)] = column
	}

	render(c, "kanban", gin.H{"project": project, "columns": columns})
}

// CreateTaskPage shows the task creation form for a project.
func (h *Handlers) CreateTaskPage(c *gin.Context) {
	user := currentUser(c)
	if !user.CanCreateTasks() {
		forbidden(c, "У вас нет прав для создания задач")
		return
	}

	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	var members []models.User
	if err := h.db.Where("team_id = ?", project.TeamID).Find(&members).Error; err != nil {
		internalError(c)
		return
	}

	render(c, "create_task", gin.H{"project": project, "users": members})
}

// CreateTask creates a task at the end of its status column.
func (h *Handlers) CreateTask(c *gin.Context) {
	user := currentUser(c)
	if !user.CanCreateTasks() {
		forbidden(c, "У вас нет прав для создания задач")
		return
	}

	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	title := c.PostForm("title")
	if title == "" {
		redirectWithError(c, "/task/create/"+uitoa(project.ID), "Название задачи обязательно")
		return
	}

	status := models.StatusToDo
	if raw := c.PostForm("status"); raw != "" {
		parsed, err := models.ParseTaskStatus(raw)
		if err != nil {
			redirectWithError(c, "/task/create/"+uitoa(project.ID), "Неизвестный статус задачи")
			return
		}
		status = parsed
	}

	priority := c.PostForm("priority")
	if priority == "" {
		priority = models.DefaultPriority
	}

	task := models.Task{
		Title:       title,
		Description: c.PostForm("description"),
		Priority:    priority,
		Status:      status,
		ProjectID:   project.ID,
		CreatedBy:   user.ID,
	}

	if raw := c.PostForm("assigned_to"); raw != "" {
		assigneeID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			redirectWithError(c, "/task/create/"+uitoa(project.ID), "Некорректный исполнитель")
			return
		}
		var assignee models.User
		if err := h.db.First(&assignee, uint(assigneeID)).Error; err != nil {
			redirectWithError(c, "/task/create/"+uitoa(project.ID), "Исполнитель не найден")
			return
		}
		if assignee.TeamID == nil || *assignee.TeamID != project.TeamID {
			redirectWithError(c, "/task/create/"+uitoa(project.ID), "Исполнитель должен состоять в команде проекта")
			return
		}
		id := uint(assigneeID)
		task.AssignedTo = &id
	}

	if raw := c.PostForm("deadline"); raw != "" {
		deadline, err := time.Parse("2006-01-02", raw)
		if err != nil {
			redirectWithError(c, "/task/create/"+uitoa(project.ID), "Некорректный формат даты")
			return
		}
		task.Deadline = &deadline
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		position, err := nextPosition(tx, project.TeamID, task.Status)
		if err != nil {
			return err
		}
		task.Position = position
		return tx.Create(&task).Error
	})
	if err != nil {
		log.Printf("Failed to create task: %v", err)
		redirectWithError(c, "/task/create/"+uitoa(project.ID), "Не удалось создать задачу")
		return
	}

	if task.AssignedTo != nil {
		h.notifications.NotifyTaskAssigned(&task)
	}

	redirectWithNotice(c, "/task/kanban/"+uitoa(project.ID), "Задача создана!")
}

// TaskDetail shows a task with its threaded comments.
func (h *Handlers) TaskDetail(c *gin.Context) {
	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}

	var task models.Task
	err := h.db.Preload("AssignedUser").Preload("Creator").First(&task, taskID).Error
	if err == gorm.ErrRecordNotFound {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c)
		return
	}

	var comments []models.Comment
	err = h.db.Preload("Author").Preload("Attachments").
		Preload("Replies").Preload("Replies.Author").Preload("Replies.Attachments").
		Where("task_id = ? AND parent_id IS NULL", task.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		log.Printf("Failed to load comments for task %d: %v", task.ID, err)
		internalError(c)
		return
	}

	render(c, "task_detail", gin.H{
		"task":         task,
		"status_label": task.Status.Label(),
		"comments":     commentPayload(comments),
	})
}

// commentPayload flattens a comment tree into render data with mentions
// resolved to profile links.
func commentPayload(comments []models.Comment) []gin.H {
	out := make([]gin.H, 0, len(comments))
	for _, comment := range comments {
		out = append(out, gin.H{
			"comment":      comment,
			"content_html": services.RenderMentions(comment.Content),
			"replies":      commentPayload(comment.Replies),
		})
	}
	return out
}

// EditTaskPage shows the task edit form.
func (h *Handlers) EditTaskPage(c *gin.Context) {
	user := currentUser(c)

	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}
	task, ok := firstOrNotFound[models.Task](c, h.db, taskID)
	if !ok {
		return
	}
	if !task.EditableBy(user) {
		forbidden(c, "У вас нет прав для редактирования этой задачи")
		return
	}

	var project models.Project
	if err := h.db.First(&project, task.ProjectID).Error; err != nil {
		internalError(c)
		return
	}
	var members []models.User
	if err := h.db.Where("team_id = ?", project.TeamID).Find(&members).Error; err != nil {
		internalError(c)
		return
	}

	render(c, "edit_task", gin.H{"task": task, "project": project, "users": members})
}

// UpdateTask applies an edit form. A newly assigned user is notified; keeping
// the same assignee on re-save is not a new assignment. A status change sends
// the task to the end of the target column.
func (h *Handlers) UpdateTask(c *gin.Context) {
	user := currentUser(c)

	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}
	task, ok := firstOrNotFound[models.Task](c, h.db, taskID)
	if !ok {
		return
	}
	if !task.EditableBy(user) {
		forbidden(c, "У вас нет прав для редактирования этой задачи")
		return
	}

	editPath := "/task/" + uitoa(task.ID) + "/edit"

	title := c.PostForm("title")
	if title == "" {
		redirectWithError(c, editPath, "Название задачи обязательно")
		return
	}
	task.Title = title
	task.Description = c.PostForm("description")
	if priority := c.PostForm("priority"); priority != "" {
		task.Priority = priority
	}

	oldAssignee := task.AssignedTo
	task.AssignedTo = nil
	if raw := c.PostForm("assigned_to"); raw != "" {
		assigneeID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			redirectWithError(c, editPath, "Некорректный исполнитель")
			return
		}
		var project models.Project
		if err := h.db.First(&project, task.ProjectID).Error; err != nil {
			internalError(c)
			return
		}
		var assignee models.User
		if err := h.db.First(&assignee, uint(assigneeID)).Error; err != nil {
			redirectWithError(c, editPath, "Исполнитель не найден")
			return
		}
		if assignee.TeamID == nil || *assignee.TeamID != project.TeamID {
			redirectWithError(c, editPath, "Исполнитель должен состоять в команде проекта")
			return
		}
		id := uint(assigneeID)
		task.AssignedTo = &id
	}

	task.Deadline = nil
	if raw := c.PostForm("deadline"); raw != "" {
		deadline, err := time.Parse("2006-01-02", raw)
		if err != nil {
			redirectWithError(c, editPath, "Некорректный формат даты")
			return
		}
		task.Deadline = &deadline
	}

	oldStatus := task.Status
	if raw := c.PostForm("status"); raw != "" {
		status, err := models.ParseTaskStatus(raw)
		if err != nil {
			redirectWithError(c, editPath, "Неизвестный статус задачи")
			return
		}
		task.Status = status
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if task.Status != oldStatus {
			teamID, err := taskTeamID(tx, task)
			if err != nil {
				return err
			}
			position, err := nextPosition(tx, teamID, task.Status)
			if err != nil {
				return err
			}
			task.Position = position
		}
		return tx.Save(task).Error
	})
	if err != nil {
		log.Printf("Failed to update task %d: %v", task.ID, err)
		internalError(c)
		return
	}

	if task.AssignedTo != nil && !sameAssignee(oldAssignee, task.AssignedTo) {
		h.notifications.NotifyTaskAssigned(task)
	}

	redirectWithNotice(c, "/task/"+uitoa(task.ID), "Задача обновлена!")
}

// DeleteTask removes a task with its comments and their attachments.
func (h *Handlers) DeleteTask(c *gin.Context) {
	user := currentUser(c)

	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}
	task, ok := firstOrNotFound[models.Task](c, h.db, taskID)
	if !ok {
		return
	}
	if !task.DeletableBy(user) {
		forbidden(c, "У вас нет прав для удаления этой задачи")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("task_id = ?", task.ID).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).
				Delete(&models.CommentAttachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(task).Error
	})
	if err != nil {
		log.Printf("Failed to delete task %d: %v", task.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/task/kanban/"+uitoa(task.ProjectID), "Задача удалена!")
}

// UpdateStatus is the drag-and-drop endpoint behind the board. It accepts a
// status enum name or its display label; anything else is a 400.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	user := currentUser(c)

	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}
	task, ok := firstOrNotFound[models.Task](c, h.db, taskID)
	if !ok {
		return
	}
	if !task.MovableBy(user) {
		forbidden(c, "У вас нет прав для перемещения этой задачи")
		return
	}

	var payload struct {
		Status   string `json:"status"`
		Position *int   `json:"position"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Некорректный запрос")
		return
	}

	status, err := models.ParseTaskStatus(payload.Status)
	if err != nil {
		badRequest(c, "Неизвестный статус задачи")
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if status != task.Status {
			teamID, err := taskTeamID(tx, task)
			if err != nil {
				return err
			}
			position, err := nextPosition(tx, teamID, status)
			if err != nil {
				return err
			}
			task.Status = status
			task.Position = position
		} else if payload.Position != nil {
			task.Position = *payload.Position
		}
		return tx.Save(task).Error
	})
	if err != nil {
		log.Printf("Failed to move task %d: %v", task.ID, err)
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"status":   task.Status,
		"position": task.Position,
	})
}

// ProjectUsers returns the project team's members for assignee pickers.
func (h *Handlers) ProjectUsers(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}
	project, ok := firstOrNotFound[models.Project](c, h.db, projectID)
	if !ok {
		return
	}

	var members []models.User
	if err := h.db.Where("team_id = ?", project.TeamID).Find(&members).Error; err != nil {
		internalError(c)
		return
	}

	out := make([]gin.H, 0, len(members))
	for _, member := range members {
		out = append(out, gin.H{"id": member.ID, "username": member.Username})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// ArchiveTask hides a task from the board. Archiving an archived task is a
// no-op, not an error.
func (h *Handlers) ArchiveTask(c *gin.Context) {
	h.setArchived(c, true, "Задача перенесена в архив")
}

// UnarchiveTask returns a task to the board.
func (h *Handlers) UnarchiveTask(c *gin.Context) {
	h.setArchived(c, false, "Задача восстановлена из архива")
}

func (h *Handlers) setArchived(c *gin.Context, archived bool, notice string) {
	user := currentUser(c)

	taskID, ok := paramID(c, "taskID")
	if !ok {
		return
	}
	task, ok := firstOrNotFound[models.Task](c, h.db, taskID)
	if !ok {
		return
	}
	if !task.ArchivableBy(user) {
		forbidden(c, "У вас нет прав для архивирования этой задачи")
		return
	}

	if task.IsArchived != archived {
		task.IsArchived = archived
		if err := h.db.Save(task).Error; err != nil {
			log.Printf("Failed to archive task %d: %v", task.ID, err)
			internalError(c)
			return
		}
	}

	redirectWithNotice(c, "/task/kanban/"+uitoa(task.ProjectID), notice)
}

// ArchiveList shows the team's archived tasks.
func (h *Handlers) ArchiveList(c *gin.Context) {
	user := currentUser(c)

	query := h.db.Preload("AssignedUser").Preload("Project").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.is_archived = ?", true)
	// Admins reach this page without a team and see everything.
	if user.TeamID != nil {
		query = query.Where("projects.team_id = ?", *user.TeamID)
	}

	var tasks []models.Task
	err := query.Order("tasks.created_at DESC").Find(&tasks).Error
	if err != nil {
		log.Printf("Failed to load archive: %v", err)
		internalError(c)
		return
	}

	render(c, "archive", gin.H{"tasks": tasks})
}

// nextPosition appends to the end of a status column, counted across the
// whole team so the board ordering survives project filters.
func nextPosition(tx *gorm.DB, teamID uint, status models.TaskStatus) (int, error) {
	var max int
	err := tx.Model(&models.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("projects.team_id = ? AND tasks.status = ?", teamID, status).
		Select("COALESCE(MAX(tasks.position), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func taskTeamID(tx *gorm.DB, task *models.Task) (uint, error) {
	var project models.Project
	if err := tx.First(&project, task.ProjectID).Error; err != nil {
		return 0, err
	}
	return project.TeamID, nil
}

func sameAssignee(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
