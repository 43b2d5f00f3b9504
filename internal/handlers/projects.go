package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// ProjectList shows the team's projects with optional name search and
// sorting.
func (h *Handlers) ProjectList(c *gin.Context) {
	user := currentUser(c)

	query := h.db.Model(&models.Project{})
	// Admins reach this page without a team and see everything.
	if user.TeamID != nil {
		query = query.Where("team_id = ?", *user.TeamID)
	}

	q := c.Query("q")
	if q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}

	switch c.DefaultQuery("sort", "newest") {
	case "name":
		query = query.Order("name ASC")
	case "oldest":
		query = query.Order("id ASC")
	default:
		query = query.Order("id DESC")
	}

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		log.Printf("Failed to load projects: %v", err)
		internalError(c)
		return
	}

	render(c, "projects", gin.H{"projects": projects, "q": q})
}

// CreateProjectQuick creates a project straight from the list view.
func (h *Handlers) CreateProjectQuick(c *gin.Context) {
	user := currentUser(c)
	if !user.CanCreateTasks() {
		forbidden(c, "У вас нет прав для создания проектов")
		return
	}

	if user.TeamID == nil {
		redirectWithError(c, "/project/list", "Сначала выберите команду")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		redirectWithError(c, "/project/list", "Название проекта обязательно")
		return
	}

	project := models.Project{
		Name:        name,
		Description: c.PostForm("description"),
		TeamID:      *user.TeamID,
	}
	if err := h.db.Create(&project).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		redirectWithError(c, "/project/list", "Не удалось создать проект")
		return
	}

	redirectWithNotice(c, "/project/list", "Проект создан!")
}

// ProjectDetail shows one project with its tasks. Team scoping is enforced
// by the access gate on the route.
func (h *Handlers) ProjectDetail(c *gin.Context) {
	projectID, ok := paramID(c, "projectID")
	if !ok {
		return
	}

	var project models.Project
	err := h.db.Preload("Tasks").Preload("Tasks.AssignedUser").First(&project, projectID).Error
	if err == gorm.ErrRecordNotFound {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c)
		return
	}

	render(c, "project_detail", gin.H{"project": project})
}

// CreateProjectPage shows the project creation form.
func (h *Handlers) CreateProjectPage(c *gin.Context) {
	team, ok := h.currentTeam(c)
	if !ok {
		return
	}
	render(c, "create_project", gin.H{"teams": []models.Team{*team}})
}

// CreateProject creates a project in the current user's team.
func (h *Handlers) CreateProject(c *gin.Context) {
	user := currentUser(c)
	if !user.CanCreateTasks() {
		forbidden(c, "У вас нет прав для создания проектов")
		return
	}

	name := c.PostForm("name")
	if name == "" || user.TeamID == nil {
		redirectWithError(c, "/project/create", "Название проекта и команда обязательны")
		return
	}

	project := models.Project{
		Name:        name,
		Description: c.PostForm("description"),
		TeamID:      *user.TeamID,
	}
	if err := h.db.Create(&project).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		redirectWithError(c, "/project/create", "Не удалось создать проект")
		return
	}

	redirectWithNotice(c, "/project/list", "Проект создан!")
}

// DeleteProject removes a project and everything under it: tasks with their
// comments and attachments, and reports. One transaction, no orphans.
func (h *Handlers) DeleteProject(c *gin.Context) {
	user := currentUser(c)
	if !user.CanCreateTasks() {
		forbidden(c, "У вас нет прав для удаления проектов")
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

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&models.Task{}).Where("project_id = ?", project.ID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			var commentIDs []uint
			if err := tx.Model(&models.Comment{}).Where("task_id IN ?", taskIDs).
				Pluck("id", &commentIDs).Error; err != nil {
				return err
			}
			if len(commentIDs) > 0 {
				if err := tx.Where("comment_id IN ?", commentIDs).
					Delete(&models.CommentAttachment{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Report{}).Error; err != nil {
			return err
		}

		return tx.Delete(project).Error
	})
	if err != nil {
		log.Printf("Failed to delete project %d: %v", project.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/project/list", "Проект и все связанные задачи и отчеты успешно удалены!")
}
