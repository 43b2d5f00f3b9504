package middlewares

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// TeamAccess verifies that every team-scoped resource named in the request
// path belongs to the acting user's team. Rule order: admin bypass, teamless
// redirect, then per-resource ownership. Pure predicate, no side effects.
func (am *AuthMiddleware) TeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			// RequireAuth runs first on these routes; reaching here without a
			// user means the route is miswired.
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "AUTHENTICATION_REQUIRED",
			})
			c.Abort()
			return
		}

		if user.IsAdmin {
			c.Next()
			return
		}

		if user.TeamID == nil {
			redirectToTeamSelect(c)
			return
		}

		if id, ok := paramID(c, "projectID"); ok {
			teamID, err := am.projectTeam(id)
			if !am.checkOwnership(c, user, teamID, err, "project") {
				return
			}
		}

		if id, ok := paramID(c, "taskID"); ok {
			teamID, err := am.taskTeam(id)
			if !am.checkOwnership(c, user, teamID, err, "task") {
				return
			}
		}

		if id, ok := paramID(c, "teamID"); ok {
			if !am.checkOwnership(c, user, id, nil, "team") {
				return
			}
		}

		if id, ok := paramID(c, "userID"); ok {
			teamID, err := am.userTeam(id)
			if !am.checkOwnership(c, user, teamID, err, "user profile") {
				return
			}
		}

		c.Next()
	}
}

// TeamAdmin additionally requires the TeamLead role (or global admin). Used
// for team-membership mutation and invite-code regeneration. A TeamLead may
// only administer their own team.
func (am *AuthMiddleware) TeamAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
				"code":  "AUTHENTICATION_REQUIRED",
			})
			c.Abort()
			return
		}

		if user.IsAdmin {
			c.Next()
			return
		}

		if user.TeamID == nil {
			redirectToTeamSelect(c)
			return
		}

		if !user.IsTeamLead() {
			forbid(c, "You do not have permission to perform this action")
			return
		}

		if id, ok := paramID(c, "teamID"); ok && id != *user.TeamID {
			forbid(c, "You can only manage your own team")
			return
		}

		c.Next()
	}
}

// checkOwnership aborts the request unless the resource's owning team matches
// the user's team. A lookup miss is a 404, a mismatch a 403.
func (am *AuthMiddleware) checkOwnership(c *gin.Context, user *models.User, teamID uint, err error, resource string) bool {
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Not found",
			"code":  "NOT_FOUND",
		})
		c.Abort()
		return false
	}
	if err != nil {
		log.Printf("Failed to resolve owning team of %s: %v", resource, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal error",
			"code":  "INTERNAL_ERROR",
		})
		c.Abort()
		return false
	}

	if teamID != *user.TeamID {
		forbid(c, "You do not have access to this "+resource)
		return false
	}
	return true
}

func (am *AuthMiddleware) projectTeam(projectID uint) (uint, error) {
	var project models.Project
	if err := am.db.Select("id", "team_id").First(&project, projectID).Error; err != nil {
		return 0, err
	}
	return project.TeamID, nil
}

// taskTeam resolves a task's effective team through its project.
func (am *AuthMiddleware) taskTeam(taskID uint) (uint, error) {
	var task models.Task
	if err := am.db.Select("id", "project_id").First(&task, taskID).Error; err != nil {
		return 0, err
	}
	return am.projectTeam(task.ProjectID)
}

func (am *AuthMiddleware) userTeam(userID uint) (uint, error) {
	var user models.User
	if err := am.db.Select("id", "team_id").First(&user, userID).Error; err != nil {
		return 0, err
	}
	if user.TeamID == nil {
		return 0, nil
	}
	return *user.TeamID, nil
}

func paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	if raw == "" {
		return 0, false
	}
	var id uint
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + uint(r-'0')
	}
	return id, true
}

func forbid(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{
		"error": message,
		"code":  "FORBIDDEN",
	})
	c.Abort()
}

// redirectToTeamSelect handles the teamless soft failure: browsers go to the
// team selection page with a warning notice, AJAX clients get 403.
func redirectToTeamSelect(c *gin.Context) {
	if WantsJSON(c) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You are not a member of any team",
			"code":  "TEAM_REQUIRED",
		})
		c.Abort()
		return
	}
	c.Redirect(http.StatusSeeOther, "/team/select?notice=no_team")
	c.Abort()
}
