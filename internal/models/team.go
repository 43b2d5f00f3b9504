package models

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Team owns users and projects. The invite code is the only join path for
// non-creators and can be regenerated at any time, invalidating the old one.
type Team struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	InviteCode  string    `json:"invite_code" gorm:"size:32;uniqueIndex;not null"`
	AvatarURL   string    `json:"avatar_url" gorm:"size:300"`
	Description string    `json:"description" gorm:"type:text"`
	Users       []User    `json:"users,omitempty" gorm:"foreignKey:TeamID"`
	Projects    []Project `json:"projects,omitempty" gorm:"foreignKey:TeamID"`
}

// Validate ensures required Team fields are present.
func (t *Team) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// NewInviteCode returns a fresh short invite code.
func NewInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
