package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarathustragosling/project-management/internal/models"
)

func (app *testApp) createComment(t *testing.T, task *models.Task, author *models.User, content string) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Content: content,
		Type:    models.CommentTask,
		TaskID:  &task.ID,
		UserID:  author.ID,
	}
	require.NoError(t, app.db.Create(comment).Error)
	return comment
}

func (app *testApp) solutionCount(t *testing.T, taskID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, app.db.Model(&models.Comment{}).
		Where("task_id = ? AND is_solution = ?", taskID, true).Count(&count).Error)
	return count
}

func TestAddComment(t *testing.T) {
	t.Run("posts a comment on the task", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)

		form := url.Values{}
		form.Set("content", "Первый комментарий <@1:admin>")
		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/comments",
			token: app.login(t, lead), form: form, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/user/profile/1")

		var count int64
		require.NoError(t, app.db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("rejects an empty comment", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)

		form := url.Values{}
		form.Set("content", "   ")
		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/comments",
			token: app.login(t, lead), form: form, ajax: true,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("reply must target the same task", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		otherTask := app.createTask(t, project, lead)
		foreign := app.createComment(t, otherTask, lead, "чужой")

		form := url.Values{}
		form.Set("content", "ответ")
		form.Set("parent_id", itoa(foreign.ID))
		w := app.do(t, request{
			method: "POST", path: "/task/" + itoa(task.ID) + "/comments",
			token: app.login(t, lead), form: form, ajax: true,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSolutionFlag(t *testing.T) {
	t.Run("at most one solution, marking another moves the flag", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		first := app.createComment(t, task, worker, "вариант 1")
		second := app.createComment(t, task, worker, "вариант 2")
		token := app.login(t, lead)

		w := app.do(t, request{
			method: "POST", path: "/comment/" + itoa(first.ID) + "/solution",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, app.solutionCount(t, task.ID))

		w = app.do(t, request{
			method: "POST", path: "/comment/" + itoa(second.ID) + "/solution",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, app.solutionCount(t, task.ID))

		var reloadedFirst, reloadedSecond models.Comment
		require.NoError(t, app.db.First(&reloadedFirst, first.ID).Error)
		require.NoError(t, app.db.First(&reloadedSecond, second.ID).Error)
		assert.False(t, reloadedFirst.IsSolution)
		assert.True(t, reloadedSecond.IsSolution)
	})

	t.Run("unmark clears the flag", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		comment := app.createComment(t, task, lead, "решение")
		token := app.login(t, lead)

		w := app.do(t, request{
			method: "POST", path: "/comment/" + itoa(comment.ID) + "/solution",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.do(t, request{
			method: "POST", path: "/comment/" + itoa(comment.ID) + "/unsolution",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, app.solutionCount(t, task.ID))
	})

	t.Run("only the task author, lead or admin may mark", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		comment := app.createComment(t, task, worker, "решение")

		w := app.do(t, request{
			method: "POST", path: "/comment/" + itoa(comment.ID) + "/solution",
			token: app.login(t, worker), ajax: true,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("deleting the solution leaves the task without one", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		comment := app.createComment(t, task, lead, "решение")
		token := app.login(t, lead)

		w := app.do(t, request{
			method: "POST", path: "/comment/" + itoa(comment.ID) + "/solution",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = app.do(t, request{
			method: "POST", path: "/comment/" + itoa(comment.ID) + "/delete",
			token: token, ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Zero(t, app.solutionCount(t, task.ID))
	})
}

func TestDeleteComment(t *testing.T) {
	t.Run("author deletes own comment, replies are promoted", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		parent := app.createComment(t, task, worker, "родитель")
		reply := &models.Comment{
			Content: "ответ", Type: models.CommentTask,
			TaskID: &task.ID, UserID: lead.ID, ParentID: &parent.ID,
		}
		require.NoError(t, app.db.Create(reply).Error)

		w := app.do(t, request{
			method: "POST", path: "/comment/" + itoa(parent.ID) + "/delete",
			token: app.login(t, worker), ajax: true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var reloaded models.Comment
		require.NoError(t, app.db.First(&reloaded, reply.ID).Error)
		assert.Nil(t, reloaded.ParentID)
	})

	t.Run("stranger cannot delete another's comment", func(t *testing.T) {
		app := newTestApp(t)
		team := app.createTeam(t, "Alpha")
		lead := app.createUser(t, "lead", &team.ID, models.RoleTeamLead)
		worker := app.createUser(t, "worker", &team.ID, models.RoleExecutor)
		other := app.createUser(t, "other", &team.ID, models.RoleExecutor)
		project := app.createProject(t, "Проект", team.ID)
		task := app.createTask(t, project, lead)
		comment := app.createComment(t, task, worker, "тест")

		w := app.do(t, request{
			method: "POST", path: "/comment/" + itoa(comment.ID) + "/delete",
			token: app.login(t, other), ajax: true,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
