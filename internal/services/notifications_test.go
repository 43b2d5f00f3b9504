package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/database"
	"github.com/zarathustragosling/project-management/internal/models"
)

func fixtureTeam(t *testing.T, db *gorm.DB, usernames ...string) (*models.Team, []models.User) {
	t.Helper()

	team := &models.Team{Name: "team-" + usernames[0], InviteCode: models.NewInviteCode()}
	require.NoError(t, db.Create(team).Error)

	users := make([]models.User, 0, len(usernames))
	for _, name := range usernames {
		user := models.User{Username: name, Email: name + "@example.com", TeamID: &team.ID}
		require.NoError(t, user.SetPassword("password"))
		require.NoError(t, db.Create(&user).Error)
		users = append(users, user)
	}
	return team, users
}

func fixtureTask(t *testing.T, db *gorm.DB, team *models.Team, creator uint, assignee *uint, deadline *time.Time) *models.Task {
	t.Helper()

	project := &models.Project{Name: "Проект", TeamID: team.ID}
	require.NoError(t, db.Create(project).Error)

	task := &models.Task{
		Title:      "Задача",
		Priority:   models.DefaultPriority,
		Status:     models.StatusToDo,
		ProjectID:  project.ID,
		CreatedBy:  creator,
		AssignedTo: assignee,
		Deadline:   deadline,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestNotifyTaskAssigned(t *testing.T) {
	t.Run("creates one notification for the assignee", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "lead", "worker")
		task := fixtureTask(t, db, team, users[0].ID, &users[1].ID, nil)

		ns.NotifyTaskAssigned(task)

		var notifications []models.Notification
		require.NoError(t, db.Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, users[1].ID, notifications[0].UserID)
		assert.Equal(t, models.NotificationTaskAssigned, notifications[0].Type)
		assert.Contains(t, notifications[0].Message, "Вы назначены ответственным")
		require.NotNil(t, notifications[0].TaskID)
		assert.Equal(t, task.ID, *notifications[0].TaskID)
	})

	t.Run("unassigned task is a no-op", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "lead")
		task := fixtureTask(t, db, team, users[0].ID, nil, nil)

		ns.NotifyTaskAssigned(task)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestTeamFanOut(t *testing.T) {
	t.Run("join notifies everyone except the actor", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "alpha", "beta", "gamma")

		ns.NotifyTeamMemberJoined(&users[2], team)

		var notifications []models.Notification
		require.NoError(t, db.Order("user_id").Find(&notifications).Error)
		require.Len(t, notifications, 2)
		assert.Equal(t, users[0].ID, notifications[0].UserID)
		assert.Equal(t, users[1].ID, notifications[1].UserID)
		for _, n := range notifications {
			assert.Equal(t, models.NotificationTeamMemberJoined, n.Type)
			assert.Contains(t, n.Message, "gamma")
		}
	})

	t.Run("leave notifies remaining members", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "alpha", "beta")

		ns.NotifyTeamMemberLeft(&users[1], team)

		var notifications []models.Notification
		require.NoError(t, db.Find(&notifications).Error)
		require.Len(t, notifications, 1)
		assert.Equal(t, users[0].ID, notifications[0].UserID)
		assert.Equal(t, models.NotificationTeamMemberLeft, notifications[0].Type)
	})
}

func TestSweepUpcomingDeadlines(t *testing.T) {
	t.Run("notifies inside the window, skips outside", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "lead", "worker")

		soon := time.Now().Add(24 * time.Hour)
		far := time.Now().Add(240 * time.Hour)
		fixtureTask(t, db, team, users[0].ID, &users[1].ID, &soon)
		fixtureTask(t, db, team, users[0].ID, &users[1].ID, &far)

		created, err := ns.SweepUpcomingDeadlines()
		require.NoError(t, err)
		assert.Equal(t, 1, created)
	})

	t.Run("skips done and unassigned tasks", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "lead", "worker")

		soon := time.Now().Add(24 * time.Hour)
		done := fixtureTask(t, db, team, users[0].ID, &users[1].ID, &soon)
		require.NoError(t, db.Model(done).Update("status", models.StatusDone).Error)
		fixtureTask(t, db, team, users[0].ID, nil, &soon)

		created, err := ns.SweepUpcomingDeadlines()
		require.NoError(t, err)
		assert.Zero(t, created)
	})

	t.Run("running twice creates nothing new", func(t *testing.T) {
		db := database.CreateTestDB()
		ns := NewNotificationService(db, 72*time.Hour, time.Hour)
		team, users := fixtureTeam(t, db, "lead", "worker")

		soon := time.Now().Add(24 * time.Hour)
		fixtureTask(t, db, team, users[0].ID, &users[1].ID, &soon)

		created, err := ns.SweepUpcomingDeadlines()
		require.NoError(t, err)
		assert.Equal(t, 1, created)

		created, err = ns.SweepUpcomingDeadlines()
		require.NoError(t, err)
		assert.Zero(t, created)

		var count int64
		require.NoError(t, db.Model(&models.Notification{}).
			Where("type = ?", models.NotificationTaskDeadline).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}
