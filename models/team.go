package models

import (
	"time"

	"gorm.io/gorm"
)

// Team represents a sharing group with an owner, members, and a pledged
// subset of the owner's/members' features and environments
type Team struct {
	gorm.Model
	UserID uint   `gorm:"not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`

	Description string `json:"description"`

	// AllCanManage lets any member edit team configuration; InviteOnly
	// requires a redeemed invite code instead of open self-join
	AllCanManage bool `gorm:"default:false" json:"all_can_manage"`
	InviteOnly   bool `gorm:"default:false" json:"invite_only"`

	// Relations
	Owner            User              `gorm:"foreignKey:UserID" json:"owner,omitempty"`
	Members          []User            `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	TeamFeatures     []TeamFeature     `gorm:"foreignKey:TeamID" json:"team_features,omitempty"`
	TeamEnvironments []TeamEnvironment `gorm:"foreignKey:TeamID" json:"team_environments,omitempty"`
	Invites          []TeamInvite      `gorm:"foreignKey:TeamID" json:"-"`
}

// OwnerID returns the id of the owning user
func (t *Team) OwnerID() uint {
	return t.UserID
}

// IsMember reports whether the given user is in the team's member list. The
// owner is not implicitly a member.
func (t *Team) IsMember(userID uint) bool {
	for i := range t.Members {
		if t.Members[i].ID == userID {
			return true
		}
	}
	return false
}

// TeamFeature shares one feature into a team with per-assignment permission
// flags. A feature appears at most once per team.
type TeamFeature struct {
	gorm.Model
	TeamID    uint `gorm:"not null;index;uniqueIndex:idx_team_feature" json:"team_id"`
	FeatureID uint `gorm:"not null;index;uniqueIndex:idx_team_feature" json:"feature_id"`

	IsReadOnly   bool `gorm:"default:false" json:"is_read_only"`
	AllCanToggle bool `gorm:"default:false" json:"all_can_toggle"`

	// Relations
	Team    Team    `json:"-"`
	Feature Feature `json:"feature,omitempty"`
}

// TeamEnvironment shares one environment into a team
type TeamEnvironment struct {
	gorm.Model
	TeamID        uint `gorm:"not null;index;uniqueIndex:idx_team_environment" json:"team_id"`
	EnvironmentID uint `gorm:"not null;index;uniqueIndex:idx_team_environment" json:"environment_id"`

	IsReadOnly bool `gorm:"default:false" json:"is_read_only"`

	// Relations
	Team        Team        `json:"-"`
	Environment Environment `json:"environment,omitempty"`
}

// TeamInvite is a single-use, time-limited code permitting one user to join
// an invite-only team. Immutable once activated.
type TeamInvite struct {
	gorm.Model
	TeamID      uint      `gorm:"not null;index" json:"team_id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	InvitedByID uint      `gorm:"not null" json:"invited_by_id"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`

	ActivatedByUserID *uint      `json:"activated_by_user_id,omitempty"`
	ActivatedAt       *time.Time `json:"activated_at,omitempty"`

	// Relations
	Team      Team `json:"-"`
	InvitedBy User `gorm:"foreignKey:InvitedByID" json:"-"`
}

// IsExpired reports whether the invite's validity window has passed
func (i *TeamInvite) IsExpired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// IsActivated reports whether the invite has already been redeemed
func (i *TeamInvite) IsActivated() bool {
	return i.ActivatedByUserID != nil
}
