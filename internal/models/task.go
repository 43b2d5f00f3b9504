package models

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus is a kanban column.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "TO_DO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// DefaultPriority matches the priority preselected in the task form.
const DefaultPriority = "Средний"

// ParseTaskStatus maps user input to a status. Both the enum name and the
// board's display label are accepted; anything else is an error, never a
// silent fallthrough.
func ParseTaskStatus(value string) (TaskStatus, error) {
	switch value {
	case "TO_DO", "To Do":
		return StatusToDo, nil
	case "IN_PROGRESS", "In Progress":
		return StatusInProgress, nil
	case "DONE", "Done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown task status %q", value)
}

// Label returns the board display label for the status.
func (s TaskStatus) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Task belongs to exactly one project. Its effective team is the project's
// team. Archival is orthogonal to status and does not reset it.
type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Priority    string     `json:"priority" gorm:"size:20;not null;default:Средний"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null"`
	Position    int        `json:"position" gorm:"default:0"`
	IsArchived  bool       `json:"is_archived" gorm:"default:false"`
	ProjectID   uint       `json:"project_id" gorm:"not null;index"`
	Project     Project    `json:"-"`
	AssignedTo  *uint      `json:"assigned_to"`
	AssignedUser *User     `json:"assigned_user,omitempty" gorm:"foreignKey:AssignedTo"`
	CreatedBy   uint       `json:"created_by" gorm:"not null"`
	Creator     User       `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	Deadline    *time.Time `json:"deadline"`
	CreatedAt   time.Time  `json:"created_at"`
	Comments    []Comment  `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
}

// Validate ensures required Task fields are present.
func (t *Task) Validate() error {
	if t.Title == "" {
		return errors.New("title is required")
	}
	if t.Priority == "" {
		return errors.New("priority is required")
	}
	if t.ProjectID == 0 {
		return errors.New("project_id is required")
	}
	if t.CreatedBy == 0 {
		return errors.New("created_by is required")
	}
	return nil
}

// EditableBy reports whether the user may change title, description,
// priority, deadline or assignee.
func (t *Task) EditableBy(u *User) bool {
	return t.CreatedBy == u.ID || u.IsTeamLead() || u.HasRole(RoleCreator) || u.IsAdmin
}

// DeletableBy reports whether the user may delete the task.
func (t *Task) DeletableBy(u *User) bool {
	return t.CreatedBy == u.ID || u.IsTeamLead() || u.IsAdmin
}

// MovableBy reports whether the user may change status or position.
func (t *Task) MovableBy(u *User) bool {
	if t.AssignedTo != nil && *t.AssignedTo == u.ID {
		return true
	}
	return t.EditableBy(u)
}

// ArchivableBy reports whether the user may archive or restore the task.
func (t *Task) ArchivableBy(u *User) bool {
	return t.DeletableBy(u)
}
