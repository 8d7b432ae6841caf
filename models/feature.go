package models

import "gorm.io/gorm"

// Feature represents a named boolean flag, uniquely keyed per owner, with one
// state per environment it is deployed to
type Feature struct {
	gorm.Model
	UserID uint   `gorm:"not null;index;uniqueIndex:idx_feature_owner_name;uniqueIndex:idx_feature_owner_key" json:"user_id"`
	Name   string `gorm:"not null;uniqueIndex:idx_feature_owner_name" json:"name"`
	Key    string `gorm:"not null;uniqueIndex:idx_feature_owner_key" json:"key"`

	Description   string `json:"description"`
	ShareWithTeam bool   `gorm:"default:false" json:"share_with_team"`

	// Relations
	Owner               User                 `gorm:"foreignKey:UserID" json:"-"`
	FeatureEnvironments []FeatureEnvironment `gorm:"foreignKey:FeatureID;constraint:OnDelete:CASCADE" json:"environments,omitempty"`
}

// OwnerID returns the id of the owning user
func (f *Feature) OwnerID() uint {
	return f.UserID
}

// EnvironmentState returns the association for the given environment, if the
// feature is deployed there
func (f *Feature) EnvironmentState(environmentID uint) *FeatureEnvironment {
	for i := range f.FeatureEnvironments {
		if f.FeatureEnvironments[i].EnvironmentID == environmentID {
			return &f.FeatureEnvironments[i]
		}
	}
	return nil
}

// FeatureEnvironment holds the enabled state of one feature in one
// environment. At most one row exists per (feature, environment) pair.
type FeatureEnvironment struct {
	gorm.Model
	FeatureID     uint `gorm:"not null;index;uniqueIndex:idx_feature_environment" json:"feature_id"`
	EnvironmentID uint `gorm:"not null;index;uniqueIndex:idx_feature_environment" json:"environment_id"`
	IsEnabled     bool `gorm:"default:false" json:"is_enabled"`

	// Relations
	Feature     Feature     `json:"-"`
	Environment Environment `json:"environment,omitempty"`
}
