package models

// Role names seeded at startup. Role assignment is optional: a user who joined a
// team through an invite code carries no role until a TeamLead assigns one.
const (
	RoleAdmin    = "Admin"
	RoleTeamLead = "TeamLead"
	RoleCreator  = "Постановщик"
	RoleExecutor = "Исполнитель"
)

// Role determines task-creation and solution-marking capability.
type Role struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:50;uniqueIndex;not null"`
}

// SeededRoles returns the role names every installation must have.
func SeededRoles() []string {
	return []string{RoleAdmin, RoleTeamLead, RoleCreator, RoleExecutor}
}
