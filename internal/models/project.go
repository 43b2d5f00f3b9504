package models

import (
	"errors"
	"time"
)

// Project belongs to exactly one team. All access checks on tasks resolve
// through this ownership chain.
type Project struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	TeamID      uint      `json:"team_id" gorm:"not null;index"`
	Team        Team      `json:"-"`
	Tasks       []Task    `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
	Reports     []Report  `json:"reports,omitempty" gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate ensures required Project fields are present.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.TeamID == 0 {
		return errors.New("team_id is required")
	}
	return nil
}
