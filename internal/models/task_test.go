package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatus(t *testing.T) {
	t.Run("accepts enum names", func(t *testing.T) {
		for raw, want := range map[string]TaskStatus{
			"TO_DO":       StatusToDo,
			"IN_PROGRESS": StatusInProgress,
			"DONE":        StatusDone,
		} {
			got, err := ParseTaskStatus(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("accepts display labels", func(t *testing.T) {
		for raw, want := range map[string]TaskStatus{
			"To Do":       StatusToDo,
			"In Progress": StatusInProgress,
			"Done":        StatusDone,
		} {
			got, err := ParseTaskStatus(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, raw := range []string{"", "todo", "ARCHIVED", "to_do", "done "} {
			_, err := ParseTaskStatus(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestTaskStatusLabel(t *testing.T) {
	assert.Equal(t, "To Do", StatusToDo.Label())
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "Done", StatusDone.Label())
}

func TestTaskPermissions(t *testing.T) {
	teamLead := &User{ID: 1, Role: &Role{Name: RoleTeamLead}}
	creatorRole := &User{ID: 2, Role: &Role{Name: RoleCreator}}
	executor := &User{ID: 3, Role: &Role{Name: RoleExecutor}}
	admin := &User{ID: 4, IsAdmin: true}

	task := &Task{CreatedBy: 2}

	t.Run("edit", func(t *testing.T) {
		assert.True(t, task.EditableBy(teamLead))
		assert.True(t, task.EditableBy(creatorRole))
		assert.True(t, task.EditableBy(admin))
		assert.False(t, task.EditableBy(executor))
	})

	t.Run("delete excludes the creator role unless they authored it", func(t *testing.T) {
		other := &Task{CreatedBy: 1}
		assert.True(t, other.DeletableBy(teamLead))
		assert.True(t, other.DeletableBy(admin))
		assert.False(t, other.DeletableBy(creatorRole))
		assert.False(t, other.DeletableBy(executor))

		assert.True(t, task.DeletableBy(creatorRole))
	})

	t.Run("assignee may move but not edit", func(t *testing.T) {
		assigneeID := executor.ID
		assigned := &Task{CreatedBy: 1, AssignedTo: &assigneeID}
		assert.True(t, assigned.MovableBy(executor))
		assert.False(t, assigned.EditableBy(executor))

		unassigned := &Task{CreatedBy: 1}
		assert.False(t, unassigned.MovableBy(executor))
	})

	t.Run("archive follows delete rights", func(t *testing.T) {
		other := &Task{CreatedBy: 1}
		assert.True(t, other.ArchivableBy(teamLead))
		assert.False(t, other.ArchivableBy(executor))
	})
}

func TestTaskValidate(t *testing.T) {
	task := &Task{Title: "Задача", Priority: DefaultPriority, ProjectID: 1, CreatedBy: 1}
	assert.NoError(t, task.Validate())

	assert.Error(t, (&Task{Priority: DefaultPriority, ProjectID: 1, CreatedBy: 1}).Validate())
	assert.Error(t, (&Task{Title: "x", Priority: DefaultPriority, CreatedBy: 1}).Validate())
}
