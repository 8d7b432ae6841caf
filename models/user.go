package models

import "gorm.io/gorm"

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Name         *string `json:"name,omitempty"`

	// Account status
	IsActive     bool `gorm:"default:true" json:"is_active"`
	TokenVersion int  `gorm:"default:0" json:"-"`

	// Team membership. A user belongs to zero or one team at a time.
	TeamID *uint `gorm:"index" json:"team_id,omitempty"`

	// Default permission flags applied when the user's ShareWithTeam
	// resources are auto-shared into a team on join
	DefaultTeamReadOnly    bool `gorm:"default:false" json:"default_team_read_only"`
	DefaultTeamAllowToggle bool `gorm:"default:false" json:"default_team_allow_toggle"`

	// Relations
	Features     []Feature     `gorm:"foreignKey:UserID" json:"features,omitempty"`
	Environments []Environment `gorm:"foreignKey:UserID" json:"environments,omitempty"`
}

// Sanitize strips credential material before the user is returned to a client
func (u *User) Sanitize() {
	u.PasswordHash = ""
}
