package models

import (
	"errors"
	"time"
)

// Report is a generated PDF artifact tied to one project. The row is written
// only after the file itself has been persisted.
type Report struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Filename  string    `json:"filename" gorm:"size:200;not null"`
	Filepath  string    `json:"filepath" gorm:"size:300;not null"`
	ProjectID uint      `json:"project_id" gorm:"not null;index"`
	Project   Project   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate ensures required Report fields are present.
func (r *Report) Validate() error {
	if r.Filename == "" || r.Filepath == "" {
		return errors.New("filename and filepath are required")
	}
	if r.ProjectID == 0 {
		return errors.New("project_id is required")
	}
	return nil
}
