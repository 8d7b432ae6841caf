package store

import (
	"context"

	"gorm.io/gorm"

	"flagnest/models"
)

// FeatureStore exposes feature persistence, including the per-environment
// state rows and the availability checks used at create/update time
type FeatureStore interface {
	GetFeatureByID(ctx context.Context, id uint) (*models.Feature, error)
	GetFeatureForOwner(ctx context.Context, id, ownerID uint) (*models.Feature, error)
	GetFeaturesByOwner(ctx context.Context, ownerID uint) ([]models.Feature, error)
	AddFeature(ctx context.Context, feature *models.Feature) error
	UpdateFeature(ctx context.Context, feature *models.Feature) error
	RemoveFeature(ctx context.Context, id uint) error
	IsFeatureNameAvailable(ctx context.Context, name string, ownerID, excludeID uint) (bool, error)
	IsFeatureKeyAvailable(ctx context.Context, key string, ownerID, excludeID uint) (bool, error)

	GetFeatureState(ctx context.Context, key string, environmentID uint) (*models.FeatureEnvironment, error)
	AddFeatureEnvironment(ctx context.Context, fe *models.FeatureEnvironment) error
	UpdateFeatureEnvironment(ctx context.Context, fe *models.FeatureEnvironment) error
	RemoveFeatureEnvironment(ctx context.Context, featureID, environmentID uint) error
}

func (s *gormStore) GetFeatureByID(ctx context.Context, id uint) (*models.Feature, error) {
	var feature models.Feature
	err := s.db.WithContext(ctx).
		Preload("FeatureEnvironments").
		First(&feature, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &feature, nil
}

func (s *gormStore) GetFeatureForOwner(ctx context.Context, id, ownerID uint) (*models.Feature, error) {
	var feature models.Feature
	err := s.db.WithContext(ctx).
		Preload("FeatureEnvironments").
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&feature).Error
	if err != nil {
		return nil, translate(err)
	}
	return &feature, nil
}

func (s *gormStore) GetFeaturesByOwner(ctx context.Context, ownerID uint) ([]models.Feature, error) {
	var features []models.Feature
	err := s.db.WithContext(ctx).
		Preload("FeatureEnvironments").
		Where("user_id = ?", ownerID).
		Find(&features).Error
	if err != nil {
		return nil, err
	}
	return features, nil
}

func (s *gormStore) AddFeature(ctx context.Context, feature *models.Feature) error {
	return s.db.WithContext(ctx).Create(feature).Error
}

func (s *gormStore) UpdateFeature(ctx context.Context, feature *models.Feature) error {
	return s.db.WithContext(ctx).Omit("Owner", "FeatureEnvironments").Save(feature).Error
}

// RemoveFeature deletes the feature and cascades into its state rows and any
// team associations referencing it
func (s *gormStore) RemoveFeature(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feature_id = ?", id).Delete(&models.FeatureEnvironment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("feature_id = ?", id).Delete(&models.TeamFeature{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Feature{}, id).Error
	})
}

func (s *gormStore) IsFeatureNameAvailable(ctx context.Context, name string, ownerID, excludeID uint) (bool, error) {
	return s.featureColumnAvailable(ctx, "name", name, ownerID, excludeID)
}

func (s *gormStore) IsFeatureKeyAvailable(ctx context.Context, key string, ownerID, excludeID uint) (bool, error) {
	return s.featureColumnAvailable(ctx, "key", key, ownerID, excludeID)
}

func (s *gormStore) featureColumnAvailable(ctx context.Context, column, value string, ownerID, excludeID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.Feature{}).
		Where(column+" = ? AND user_id = ?", value, ownerID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// GetFeatureState resolves the enabled state for a feature key in an
// environment. Used by the unauthenticated runtime evaluation endpoint.
func (s *gormStore) GetFeatureState(ctx context.Context, key string, environmentID uint) (*models.FeatureEnvironment, error) {
	var fe models.FeatureEnvironment
	err := s.db.WithContext(ctx).
		Joins("JOIN features ON features.id = feature_environments.feature_id AND features.deleted_at IS NULL").
		Where("features.key = ? AND feature_environments.environment_id = ?", key, environmentID).
		First(&fe).Error
	if err != nil {
		return nil, translate(err)
	}
	return &fe, nil
}

func (s *gormStore) AddFeatureEnvironment(ctx context.Context, fe *models.FeatureEnvironment) error {
	return s.db.WithContext(ctx).Create(fe).Error
}

func (s *gormStore) UpdateFeatureEnvironment(ctx context.Context, fe *models.FeatureEnvironment) error {
	return s.db.WithContext(ctx).Omit("Feature", "Environment").Save(fe).Error
}

func (s *gormStore) RemoveFeatureEnvironment(ctx context.Context, featureID, environmentID uint) error {
	return s.db.WithContext(ctx).
		Where("feature_id = ? AND environment_id = ?", featureID, environmentID).
		Delete(&models.FeatureEnvironment{}).Error
}
