package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

// TeamDetail shows a team with its members and the assignable role list.
func (h *Handlers) TeamDetail(c *gin.Context) {
	teamID, ok := paramID(c, "teamID")
	if !ok {
		return
	}
	team, ok := firstOrNotFound[models.Team](c, h.db, teamID)
	if !ok {
		return
	}

	var members []models.User
	if err := h.db.Preload("Role").Where("team_id = ?", teamID).Find(&members).Error; err != nil {
		log.Printf("Failed to load members of team %d: %v", teamID, err)
	}

	var roles []models.Role
	if err := h.db.Find(&roles).Error; err != nil {
		log.Printf("Failed to load roles: %v", err)
	}

	render(c, "team_detail", gin.H{
		"team":         team,
		"team_members": members,
		"roles":        roles,
	})
}

// CreateTeamPage shows the team creation form.
func (h *Handlers) CreateTeamPage(c *gin.Context) {
	render(c, "create_team", gin.H{})
}

// CreateTeam creates a team and makes the creator its TeamLead.
func (h *Handlers) CreateTeam(c *gin.Context) {
	user := currentUser(c)
	name := c.PostForm("name")
	if name == "" {
		redirectWithError(c, "/team/create", "Название команды обязательно")
		return
	}

	var count int64
	h.db.Model(&models.Team{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		redirectWithError(c, "/team/create", "Команда с таким именем уже существует")
		return
	}

	team := models.Team{
		Name:        name,
		InviteCode:  models.NewInviteCode(),
		AvatarURL:   c.PostForm("avatar_url"),
		Description: c.PostForm("description"),
	}

	var teamLead models.Role
	if err := h.db.Where("name = ?", models.RoleTeamLead).First(&teamLead).Error; err != nil {
		log.Printf("TeamLead role missing: %v", err)
		internalError(c)
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		user.TeamID = &team.ID
		user.RoleID = &teamLead.ID
		return tx.Save(user).Error
	})
	if err != nil {
		log.Printf("Failed to create team: %v", err)
		redirectWithError(c, "/team/create", "Не удалось создать команду")
		return
	}

	redirectWithNotice(c, teamPath(team.ID), "Команда создана! Код приглашения: "+team.InviteCode)
}

// EditTeamPage shows the settings form for the current user's team.
func (h *Handlers) EditTeamPage(c *gin.Context) {
	team, ok := h.currentTeam(c)
	if !ok {
		return
	}
	render(c, "edit_team", gin.H{"team": team})
}

// UpdateTeam changes name, avatar and description of the current user's team.
func (h *Handlers) UpdateTeam(c *gin.Context) {
	team, ok := h.currentTeam(c)
	if !ok {
		return
	}

	if name := c.PostForm("name"); name != "" && name != team.Name {
		var count int64
		h.db.Model(&models.Team{}).Where("name = ? AND id <> ?", name, team.ID).Count(&count)
		if count > 0 {
			redirectWithError(c, "/team/edit", "Команда с таким именем уже существует")
			return
		}
		team.Name = name
	}
	team.AvatarURL = c.PostForm("avatar_url")
	team.Description = c.PostForm("description")

	if err := h.db.Save(team).Error; err != nil {
		log.Printf("Failed to update team %d: %v", team.ID, err)
		redirectWithError(c, "/team/edit", "Не удалось обновить команду")
		return
	}

	redirectWithNotice(c, teamPath(team.ID), "Настройки команды обновлены!")
}

// SelectTeamPage shows the join-or-create choice for teamless users.
func (h *Handlers) SelectTeamPage(c *gin.Context) {
	render(c, "select_team", gin.H{})
}

// JoinTeamPage shows the invite code form.
func (h *Handlers) JoinTeamPage(c *gin.Context) {
	render(c, "join_team", gin.H{})
}

// JoinTeam joins the current user to the team matching the invite code. The
// joining user gets no role; only team creation grants TeamLead.
func (h *Handlers) JoinTeam(c *gin.Context) {
	user := currentUser(c)
	code := c.PostForm("invite_code")
	if code == "" {
		redirectWithError(c, "/team/join", "Введите код приглашения")
		return
	}

	var team models.Team
	err := h.db.Where("invite_code = ?", code).First(&team).Error
	if err == gorm.ErrRecordNotFound {
		redirectWithError(c, "/team/join", "Неверный код приглашения")
		return
	}
	if err != nil {
		internalError(c)
		return
	}

	user.TeamID = &team.ID
	user.RoleID = nil
	if err := h.db.Save(user).Error; err != nil {
		log.Printf("Failed to join user %d to team %d: %v", user.ID, team.ID, err)
		internalError(c)
		return
	}

	h.notifications.NotifyTeamMemberJoined(user, &team)

	redirectWithNotice(c, teamPath(team.ID), "Вы успешно присоединились к команде!")
}

// LeaveTeam removes the current user from their team.
func (h *Handlers) LeaveTeam(c *gin.Context) {
	user := currentUser(c)
	if user.TeamID == nil {
		redirectWithError(c, "/user/", "Вы не состоите в команде")
		return
	}

	team, ok := firstOrNotFound[models.Team](c, h.db, *user.TeamID)
	if !ok {
		return
	}

	// Notify first: the fan-out excludes the actor, who at this moment is
	// still a member.
	h.notifications.NotifyTeamMemberLeft(user, team)

	user.TeamID = nil
	user.RoleID = nil
	if err := h.db.Save(user).Error; err != nil {
		log.Printf("Failed to remove user %d from team: %v", user.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, "/user/", "Вы вышли из команды")
}

// RefreshInviteCode regenerates the invite code, invalidating the old one.
// Route is behind the team-admin gate.
func (h *Handlers) RefreshInviteCode(c *gin.Context) {
	team, ok := h.currentTeam(c)
	if !ok {
		return
	}

	team.InviteCode = models.NewInviteCode()
	if err := h.db.Save(team).Error; err != nil {
		log.Printf("Failed to refresh invite code for team %d: %v", team.ID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, teamPath(team.ID), "Код приглашения обновлен")
}

// AddTeamMember attaches a user to the team or changes their role. Admin and
// TeamLead roles are never assignable this way.
func (h *Handlers) AddTeamMember(c *gin.Context) {
	teamID, ok := paramID(c, "teamID")
	if !ok {
		return
	}

	userID := c.PostForm("user_id")
	if userID == "" {
		redirectWithError(c, teamPath(teamID), "Пользователь не найден")
		return
	}

	var user models.User
	if err := h.db.Where("id = ?", userID).First(&user).Error; err != nil {
		redirectWithError(c, teamPath(teamID), "Пользователь не найден")
		return
	}

	if user.TeamID == nil || *user.TeamID != teamID {
		user.TeamID = &teamID
	}

	if roleID := c.PostForm("role_id"); roleID != "" {
		var role models.Role
		if err := h.db.Where("id = ?", roleID).First(&role).Error; err == nil &&
			role.Name != models.RoleAdmin && role.Name != models.RoleTeamLead {
			user.RoleID = &role.ID
		}
	} else {
		user.RoleID = nil
	}

	if err := h.db.Save(&user).Error; err != nil {
		log.Printf("Failed to update member %d of team %d: %v", user.ID, teamID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, teamPath(teamID), "Роль участника обновлена")
}

// RemoveTeamMember detaches a user from the team. Self-removal goes through
// LeaveTeam instead.
func (h *Handlers) RemoveTeamMember(c *gin.Context) {
	actor := currentUser(c)
	teamID, ok := paramID(c, "teamID")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}

	if userID == actor.ID {
		redirectWithError(c, teamPath(teamID), "Вы не можете удалить себя из команды через этот метод")
		return
	}

	user, ok := firstOrNotFound[models.User](c, h.db, userID)
	if !ok {
		return
	}
	team, ok := firstOrNotFound[models.Team](c, h.db, teamID)
	if !ok {
		return
	}

	h.notifications.NotifyTeamMemberLeft(user, team)

	user.TeamID = nil
	user.RoleID = nil
	if err := h.db.Save(user).Error; err != nil {
		log.Printf("Failed to remove member %d from team %d: %v", userID, teamID, err)
		internalError(c)
		return
	}

	redirectWithNotice(c, teamPath(teamID), "Участник удален из команды")
}

func (h *Handlers) currentTeam(c *gin.Context) (*models.Team, bool) {
	user := currentUser(c)
	if user.TeamID == nil {
		if c.Request.Method == http.MethodGet {
			c.Redirect(http.StatusSeeOther, "/team/select")
			c.Abort()
			return nil, false
		}
		redirectWithError(c, "/user/", "Вы не состоите в команде")
		return nil, false
	}
	return firstOrNotFound[models.Team](c, h.db, *user.TeamID)
}

func teamPath(teamID uint) string {
	return "/team/" + uitoa(teamID)
}

func uitoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
