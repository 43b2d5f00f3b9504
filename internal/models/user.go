package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account. Team membership and role are both optional: a freshly
// registered user has neither until they create or join a team.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:200;not null"`
	TeamID       *uint     `json:"team_id"`
	RoleID       *uint     `json:"role_id"`
	Role         *Role     `json:"role,omitempty"`
	IsAdmin      bool      `json:"is_admin" gorm:"default:false"`
	Avatar       string    `json:"avatar" gorm:"size:300"`
	Description  string    `json:"description" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate ensures required User fields are present.
func (u *User) Validate() error {
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether the password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HasRole reports whether the user's role carries the given name.
// Requires Role to be preloaded.
func (u *User) HasRole(name string) bool {
	return u.Role != nil && u.Role.Name == name
}

// IsTeamLead reports whether the user leads their team.
func (u *User) IsTeamLead() bool {
	return u.HasRole(RoleTeamLead)
}

// CanCreateTasks reports whether the user holds a creator-capable role.
func (u *User) CanCreateTasks() bool {
	return u.IsAdmin || u.IsTeamLead() || u.HasRole(RoleCreator)
}
