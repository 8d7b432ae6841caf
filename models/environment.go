package models

import "gorm.io/gorm"

// Environment represents a deployment context (e.g. "Production") in which a
// feature's enabled state is tracked independently
type Environment struct {
	gorm.Model
	UserID uint   `gorm:"not null;index;uniqueIndex:idx_environment_owner_name" json:"user_id"`
	Name   string `gorm:"not null;uniqueIndex:idx_environment_owner_name" json:"name"`

	Description   string `json:"description"`
	ShareWithTeam bool   `gorm:"default:false" json:"share_with_team"`

	// Relations
	Owner               User                 `gorm:"foreignKey:UserID" json:"-"`
	FeatureEnvironments []FeatureEnvironment `gorm:"foreignKey:EnvironmentID" json:"-"`
}

// OwnerID returns the id of the owning user
func (e *Environment) OwnerID() uint {
	return e.UserID
}
