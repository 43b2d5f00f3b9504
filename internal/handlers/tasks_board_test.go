package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarathustragosling/project-management/internal/models"
)

func TestUpdateStatus(t *testing.T) {
	t.Run("unknown status is a 400", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/status",
			token: app.login(t, lead), json: `{"status":"ARCHIVED"}`,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var reloaded models.Task
		require.NoError(t, app.db.First(&reloaded, task.ID).Error)
		assert.Equal(t, models.StatusToDo, reloaded.Status)
	})

	t.Run("moved tasks land at the end of the target column", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		first := app.createTask(t, project, lead)
		second := app.createTask(t, project, lead)
		token := app.login(t, lead)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(first.ID) + "/status",
			token: token, json: `{"status":"IN_PROGRESS"}`,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.do(t, request{
			method: "POST", path: "/task/" + itoa(second.ID) + "/status",
			token: token, json: `{"status":"IN_PROGRESS"}`,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var movedFirst, movedSecond models.Task
		require.NoError(t, app.db.First(&movedFirst, first.ID).Error)
		require.NoError(t, app.db.First(&movedSecond, second.ID).Error)
		assert.Equal(t, models.StatusInProgress, movedFirst.Status)
		assert.Equal(t, models.StatusInProgress, movedSecond.Status)
		assert.Equal(t, movedFirst.Position+1, movedSecond.Position)
	})

	t.Run("display labels are accepted", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/status",
			token: app.login(t, lead), json: `{"status":"Done"}`,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var reloaded models.Task
		require.NoError(t, app.db.First(&reloaded, task.ID).Error)
		assert.Equal(t, models.StatusDone, reloaded.Status)
	})

	t.Run("assignee may move, bystander may not", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		assignee := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		bystander := app.createUser(t, "bystander", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		require.NoError(t, app.db.Model(task).Update("assigned_to", assignee.ID).Error)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/status",
			token: app.login(t, bystander), json: `{"status":"DONE"}`,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/status",
			token: app.login(t, assignee), json: `{"status":"DONE"}`,
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestUpdateTaskAssignment(t *testing.T) {
	editForm := func(task *models.Task, assignee string) url.Values {
		form := url.Values{}
		form.Set("title", task.Title)
		form.Set("priority", task.Priority)
		form.Set("status", string(task.Status))
		if assignee != "" {
			form.Set("assigned_to", assignee)
		}
		return form
	}

	t.Run("new assignee is notified exactly once", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		token := app.login(t, lead)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/edit",
			token: token, form: editForm(task, itoa(worker.ID)), ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		require.NoError(t, app.db.Model(&models.Notification{}).
			Where("type = ? AND user_id = ?", models.NotificationTaskAssigned, worker.ID).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("re-saving with the same assignee creates no new notification", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		token := app.login(t, lead)

		form := editForm(task, itoa(worker.ID))
		for i := 0; i < 2; i++ {
			w := app.do(t, request{
				method: "POST", path: "/task/" + itoa(task.ID) + "/edit",
				token: token, form: form, ajax: true,
			})
			require.Equal(t, http.StatusOK, w.Code)
		}

		var count int64
		require.NoError(t, app.db.Model(&models.Notification{}).
			Where("type = ?", models.NotificationTaskAssigned).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("clearing the assignee notifies nobody", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		require.NoError(t, app.db.Model(task).Update("assigned_to", worker.ID).Error)
		token := app.login(t, lead)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/edit",
			token: token, form: editForm(task, ""), ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		require.NoError(t, app.db.Model(&models.Notification{}).Count(&count).Error)
		assert.Zero(t, count)

		var reloaded models.Task
		require.NoError(t, app.db.First(&reloaded, task.ID).Error)
		assert.Nil(t, reloaded.AssignedTo)
	})
}

func TestArchiveTask(t *testing.T) {
	t.Run("archive and restore are idempotent", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		require.NoError(t, app.db.Model(task).Update("status", models.StatusInProgress).Error)
		token := app.login(t, lead)

		for i := 0; i < 2; i++ {
			w := app.do(t, request{
				method: "POST", path: "/task/" + itoa(task.ID) + "/archive",
				token: token, ajax: true,
			})
			require.Equal(t, http.StatusOK, w.Code)
		}

		var reloaded models.Task
		require.NoError(t, app.db.First(&reloaded, task.ID).Error)
		assert.True(t, reloaded.IsArchived)
		// Archival does not touch status
		assert.Equal(t, models.StatusInProgress, reloaded.Status)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/unarchive",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, app.db.First(&reloaded, task.ID).Error)
		assert.False(t, reloaded.IsArchived)
	})

	t.Run("executor cannot archive another's task", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		executor := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)

		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/archive",
			token: app.login(t, executor), ajax: true,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestDeleteTaskCascades(t *testing.T) {
	app := newTestApp(t)
	team := app.createTeam(t, "Alpha")
	lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
	project := app.createProject(t, "Проект", team.ID)
	task := app.createTask(t, project, lead)

	comment := &models.Comment{Content: "тест", Type: models.CommentTask, TaskID: &task.ID, UserID: lead.ID}
	require.NoError(t, app.db.Create(comment).Error)
	attachment := &models.CommentAttachment{Filename: "f.txt", Filepath: "f.txt", CommentID: comment.ID}
	require.NoError(t, app.db.Create(attachment).Error)

	w := app.do(t, request{
		method: "POST", path: "/task/" + itoa(task.ID) + "/delete",
		token: app.login(t, lead), ajax: true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var tasks, comments, attachments int64
	require.NoError(t, app.db.Model(&models.Task{}).Count(&tasks).Error)
	require.NoError(t, app.db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, app.db.Model(&models.CommentAttachment{}).Count(&attachments).Error)
	assert.Zero(t, tasks)
	assert.Zero(t, comments)
	assert.Zero(t, attachments)
}
