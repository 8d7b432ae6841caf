package store

import (
	"context"

	"gorm.io/gorm"

	"flagnest/models"
)

// EnvironmentStore exposes environment persistence. Access-scoped lookups
// take the owner id as an explicit filter.
type EnvironmentStore interface {
	GetEnvironmentByID(ctx context.Context, id uint) (*models.Environment, error)
	GetEnvironmentForOwner(ctx context.Context, id, ownerID uint) (*models.Environment, error)
	GetEnvironmentsByOwner(ctx context.Context, ownerID uint) ([]models.Environment, error)
	AddEnvironment(ctx context.Context, env *models.Environment) error
	UpdateEnvironment(ctx context.Context, env *models.Environment) error
	RemoveEnvironment(ctx context.Context, id uint) error
	IsEnvironmentNameAvailable(ctx context.Context, name string, ownerID, excludeID uint) (bool, error)
}

func (s *gormStore) GetEnvironmentByID(ctx context.Context, id uint) (*models.Environment, error) {
	var env models.Environment
	if err := s.db.WithContext(ctx).First(&env, id).Error; err != nil {
		return nil, translate(err)
	}
	return &env, nil
}

func (s *gormStore) GetEnvironmentForOwner(ctx context.Context, id, ownerID uint) (*models.Environment, error) {
	var env models.Environment
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&env).Error
	if err != nil {
		return nil, translate(err)
	}
	return &env, nil
}

func (s *gormStore) GetEnvironmentsByOwner(ctx context.Context, ownerID uint) ([]models.Environment, error) {
	var envs []models.Environment
	if err := s.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&envs).Error; err != nil {
		return nil, err
	}
	return envs, nil
}

func (s *gormStore) AddEnvironment(ctx context.Context, env *models.Environment) error {
	return s.db.WithContext(ctx).Create(env).Error
}

func (s *gormStore) UpdateEnvironment(ctx context.Context, env *models.Environment) error {
	return s.db.WithContext(ctx).Omit("Owner", "FeatureEnvironments").Save(env).Error
}

// RemoveEnvironment deletes the environment and its feature state rows
func (s *gormStore) RemoveEnvironment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("environment_id = ?", id).Delete(&models.FeatureEnvironment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("environment_id = ?", id).Delete(&models.TeamEnvironment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Environment{}, id).Error
	})
}

func (s *gormStore) IsEnvironmentNameAvailable(ctx context.Context, name string, ownerID, excludeID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.Environment{}).
		Where("name = ? AND user_id = ?", name, ownerID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
