package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// AdminDeleteUser removes a user account. Their tasks and comments stay
// behind, but sessions and notifications go with them.
func (h *Handlers) AdminDeleteUser(c *gin.Context) {
	admin := currentUser(c)

	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}
	if userID == admin.ID {
		badRequest(c, "Нельзя удалить собственную учетную запись")
		return
	}
	user, ok := firstOrNotFound[models.User](c, h.db, userID)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("assigned_to = ?", user.ID).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		log.Printf("Failed to delete user %d: %v", user.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/user/", "Пользователь удален")
}

// AdminDeleteTeam dissolves a team: members are detached, projects and
// everything under them are removed.
func (h *Handlers) AdminDeleteTeam(c *gin.Context) {
	teamID, ok := paramID(c, "teamID")
	if !ok {
		return
	}
	team, ok := firstOrNotFound[models.Team](c, h.db, teamID)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("team_id = ?", team.ID).
			Updates(map[string]any{"team_id": nil, "role_id": nil}).Error; err != nil {
			return err
		}

		var projectIDs []uint
		if err := tx.Model(&models.Project{}).Where("team_id = ?", team.ID).
			Pluck("id", &projectIDs).Error; err != nil {
			return err
		}
		if len(projectIDs) > 0 {
			var taskIDs []uint
			if err := tx.Model(&models.Task{}).Where("project_id IN ?", projectIDs).
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
				if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Task{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Report{}).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id = ?", team.ID).Delete(&models.Project{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(team).Error
	})
	if err != nil {
		log.Printf("Failed to delete team %d: %v", team.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/user/", "Команда удалена")
}
