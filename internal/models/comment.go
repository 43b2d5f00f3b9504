package models

import (
	"errors"
	"time"
)

// CommentType distinguishes task comments from team-wide feed posts.
type CommentType string

const (
	CommentTask CommentType = "TASK"
	CommentFeed CommentType = "FEED"
)

// Comment is either attached to a task or is a feed post (TaskID nil).
// Threading goes one level deep through ParentID. At most one comment per
// task carries IsSolution at any time.
type Comment struct {
	ID          uint                `json:"id" gorm:"primaryKey"`
	Content     string              `json:"content" gorm:"type:text;not null"`
	Type        CommentType         `json:"type" gorm:"size:10;not null;default:TASK"`
	TaskID      *uint               `json:"task_id" gorm:"index"`
	Task        *Task               `json:"-"`
	UserID      uint                `json:"user_id" gorm:"not null"`
	Author      User                `json:"author,omitempty" gorm:"foreignKey:UserID"`
	ParentID    *uint               `json:"parent_id"`
	Parent      *Comment            `json:"-" gorm:"foreignKey:ParentID"`
	Replies     []Comment           `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
	IsSolution  bool                `json:"is_solution" gorm:"default:false"`
	Attachments []CommentAttachment `json:"attachments,omitempty" gorm:"foreignKey:CommentID"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Validate ensures required Comment fields are present.
func (c *Comment) Validate() error {
	if c.Content == "" {
		return errors.New("content is required")
	}
	if c.UserID == 0 {
		return errors.New("user_id is required")
	}
	if c.Type == CommentTask && c.TaskID == nil {
		return errors.New("task_id is required for task comments")
	}
	return nil
}

// CommentAttachment is a file owned by exactly one comment and removed with it.
type CommentAttachment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Filename  string `json:"filename" gorm:"size:200;not null"`
	Filepath  string `json:"filepath" gorm:"size:300;not null"`
	CommentID uint   `json:"comment_id" gorm:"not null;index"`
}
