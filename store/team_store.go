package store

import (
	"context"

	"gorm.io/gorm"

	"flagnest/models"
)

// TeamStore exposes team persistence. Team reads preload the owner, members
// and both shared-resource collections because the authorization checks run
// post-fetch against the loaded relations.
type TeamStore interface {
	GetTeamByID(ctx context.Context, id uint) (*models.Team, error)
	GetTeamsByOwner(ctx context.Context, ownerID uint) ([]models.Team, error)
	AddTeam(ctx context.Context, team *models.Team) error
	UpdateTeam(ctx context.Context, team *models.Team) error
	RemoveTeam(ctx context.Context, id uint) error

	AddTeamMember(ctx context.Context, teamID, userID uint) error
	RemoveTeamMember(ctx context.Context, userID uint) error

	AddTeamFeature(ctx context.Context, tf *models.TeamFeature) error
	UpdateTeamFeature(ctx context.Context, tf *models.TeamFeature) error
	RemoveTeamFeature(ctx context.Context, teamID, featureID uint) error

	AddTeamEnvironment(ctx context.Context, te *models.TeamEnvironment) error
	UpdateTeamEnvironment(ctx context.Context, te *models.TeamEnvironment) error
	RemoveTeamEnvironment(ctx context.Context, teamID, environmentID uint) error
}

func (s *gormStore) GetTeamByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Preload("Members").
		Preload("TeamFeatures.Feature").
		Preload("TeamEnvironments.Environment").
		First(&team, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &team, nil
}

func (s *gormStore) GetTeamsByOwner(ctx context.Context, ownerID uint) ([]models.Team, error) {
	var teams []models.Team
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *gormStore) AddTeam(ctx context.Context, team *models.Team) error {
	return s.db.WithContext(ctx).Create(team).Error
}

func (s *gormStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	return s.db.WithContext(ctx).Omit("Owner", "Members", "TeamFeatures", "TeamEnvironments", "Invites").Save(team).Error
}

// RemoveTeam deletes the team, its shared-resource rows and invites, and
// detaches all members
func (s *gormStore) RemoveTeam(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamFeature{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamEnvironment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&models.TeamInvite{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("team_id = ?", id).Update("team_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, id).Error
	})
}

func (s *gormStore) AddTeamMember(ctx context.Context, teamID, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("team_id", teamID).Error
}

func (s *gormStore) RemoveTeamMember(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("team_id", nil).Error
}

func (s *gormStore) AddTeamFeature(ctx context.Context, tf *models.TeamFeature) error {
	return s.db.WithContext(ctx).Create(tf).Error
}

func (s *gormStore) UpdateTeamFeature(ctx context.Context, tf *models.TeamFeature) error {
	return s.db.WithContext(ctx).Omit("Team", "Feature").Save(tf).Error
}

func (s *gormStore) RemoveTeamFeature(ctx context.Context, teamID, featureID uint) error {
	return s.db.WithContext(ctx).
		Where("team_id = ? AND feature_id = ?", teamID, featureID).
		Delete(&models.TeamFeature{}).Error
}

func (s *gormStore) AddTeamEnvironment(ctx context.Context, te *models.TeamEnvironment) error {
	return s.db.WithContext(ctx).Create(te).Error
}

func (s *gormStore) UpdateTeamEnvironment(ctx context.Context, te *models.TeamEnvironment) error {
	return s.db.WithContext(ctx).Omit("Team", "Environment").Save(te).Error
}

func (s *gormStore) RemoveTeamEnvironment(ctx context.Context, teamID, environmentID uint) error {
	return s.db.WithContext(ctx).
		Where("team_id = ? AND environment_id = ?", teamID, environmentID).
		Delete(&models.TeamEnvironment{}).Error
}
