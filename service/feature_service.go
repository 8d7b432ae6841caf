package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"flagnest/models"
	"flagnest/store"
)

// FeatureService owns the feature lifecycle and the toggle state machine.
type FeatureService struct {
	store store.Store
	log   *logrus.Logger
}

func NewFeatureService(st store.Store, log *logrus.Logger) *FeatureService {
	return &FeatureService{store: st, log: log}
}

type CreateFeatureInput struct {
	Name           string
	Key            string
	Description    string
	ShareWithTeam  bool
	EnvironmentIDs []uint
}

type UpdateFeatureInput struct {
	Name           *string
	Key            *string
	Description    *string
	ShareWithTeam  *bool
	EnvironmentIDs *[]uint
}

// ToggleResult reports the outcome of a toggle operation
type ToggleResult struct {
	IsActive   bool   `json:"is_active"`
	WasChanged bool   `json:"was_changed"`
	Reason     string `json:"reason"`
}

func (s *FeatureService) CreateFeature(ctx context.Context, actorID uint, in CreateFeatureInput) (*models.Feature, error) {
	available, err := s.store.IsFeatureNameAvailable(ctx, in.Name, actorID, 0)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, conflict("Name is already in use")
	}

	available, err = s.store.IsFeatureKeyAvailable(ctx, in.Key, actorID, 0)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, conflict("Key is already in use")
	}

	feature := &models.Feature{
		UserID:        actorID,
		Name:          in.Name,
		Key:           in.Key,
		Description:   in.Description,
		ShareWithTeam: in.ShareWithTeam,
	}
	// New features may only be deployed to environments the actor owns
	for _, envID := range in.EnvironmentIDs {
		if _, err := s.store.GetEnvironmentForOwner(ctx, envID, actorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, notFound("Environment not found")
			}
			return nil, err
		}
		feature.FeatureEnvironments = append(feature.FeatureEnvironments, models.FeatureEnvironment{
			EnvironmentID: envID,
		})
	}

	if err := s.store.AddFeature(ctx, feature); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"feature_id": feature.ID,
		"key":        feature.Key,
		"user_id":    actorID,
	}).Info("feature created")

	return feature, nil
}

func (s *FeatureService) GetFeature(ctx context.Context, actorID, featureID uint) (*models.Feature, error) {
	feature, err := s.store.GetFeatureForOwner(ctx, featureID, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Feature not found")
		}
		return nil, err
	}
	return feature, nil
}

func (s *FeatureService) ListFeatures(ctx context.Context, actorID uint) ([]models.Feature, error) {
	return s.store.GetFeaturesByOwner(ctx, actorID)
}

func (s *FeatureService) UpdateFeature(ctx context.Context, actorID, featureID uint, in UpdateFeatureInput) (*models.Feature, error) {
	feature, err := s.GetFeature(ctx, actorID, featureID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != feature.Name {
		available, err := s.store.IsFeatureNameAvailable(ctx, *in.Name, actorID, feature.ID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, conflict("Name is already in use")
		}
		feature.Name = *in.Name
	}
	if in.Key != nil && *in.Key != feature.Key {
		available, err := s.store.IsFeatureKeyAvailable(ctx, *in.Key, actorID, feature.ID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, conflict("Key is already in use")
		}
		feature.Key = *in.Key
	}
	if in.Description != nil {
		feature.Description = *in.Description
	}
	if in.ShareWithTeam != nil {
		feature.ShareWithTeam = *in.ShareWithTeam
	}

	if err := s.store.UpdateFeature(ctx, feature); err != nil {
		return nil, err
	}

	if in.EnvironmentIDs != nil {
		if err := s.syncFeatureEnvironments(ctx, actorID, feature, *in.EnvironmentIDs); err != nil {
			return nil, err
		}
	}

	return s.GetFeature(ctx, actorID, featureID)
}

// syncFeatureEnvironments reconciles the feature's deployed environments
// against the requested id set: missing associations are created (owner-scoped
// lookup, so foreign environments fail), surplus ones are removed.
func (s *FeatureService) syncFeatureEnvironments(ctx context.Context, actorID uint, feature *models.Feature, requested []uint) error {
	existing := make(map[uint]bool, len(feature.FeatureEnvironments))
	for _, fe := range feature.FeatureEnvironments {
		existing[fe.EnvironmentID] = true
	}
	wanted := make(map[uint]bool, len(requested))
	for _, id := range requested {
		wanted[id] = true
	}

	for _, envID := range requested {
		if existing[envID] {
			continue
		}
		if _, err := s.store.GetEnvironmentForOwner(ctx, envID, actorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return notFound("Environment not found")
			}
			return err
		}
		fe := &models.FeatureEnvironment{FeatureID: feature.ID, EnvironmentID: envID}
		if err := s.store.AddFeatureEnvironment(ctx, fe); err != nil {
			return err
		}
	}
	for envID := range existing {
		if wanted[envID] {
			continue
		}
		if err := s.store.RemoveFeatureEnvironment(ctx, feature.ID, envID); err != nil {
			return err
		}
	}
	return nil
}

func (s *FeatureService) DeleteFeature(ctx context.Context, actorID, featureID uint) error {
	feature, err := s.GetFeature(ctx, actorID, featureID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveFeature(ctx, feature.ID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"feature_id": feature.ID,
		"user_id":    actorID,
	}).Info("feature deleted")

	return nil
}

// Toggle flips the enabled state of a feature in one environment. The feature
// must be owned by the actor and deployed to the environment; both failures
// collapse into the same not-found outcome. The flip itself is unconditional
// and memoryless: repeated toggles alternate state.
func (s *FeatureService) Toggle(ctx context.Context, actorID, featureID, environmentID uint) (ToggleResult, error) {
	feature, err := s.store.GetFeatureForOwner(ctx, featureID, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ToggleResult{Reason: "Feature not found"}, notFound("Feature not found")
		}
		return ToggleResult{}, err
	}

	fe := feature.EnvironmentState(environmentID)
	if fe == nil {
		return ToggleResult{Reason: "Feature not found"}, notFound("Feature not found")
	}

	fe.IsEnabled = !fe.IsEnabled
	if err := s.store.UpdateFeatureEnvironment(ctx, fe); err != nil {
		return ToggleResult{}, err
	}

	s.log.WithFields(logrus.Fields{
		"feature_id":     featureID,
		"environment_id": environmentID,
		"is_enabled":     fe.IsEnabled,
		"user_id":        actorID,
	}).Info("feature toggled")

	return ToggleResult{IsActive: fe.IsEnabled, WasChanged: true, Reason: "Feature toggled"}, nil
}

// GetFeatureState resolves a feature key in an environment for runtime flag
// evaluation. Unauthenticated by design. "Not found" and "found but disabled"
// both report isActive=false; the found flag tells them apart.
func (s *FeatureService) GetFeatureState(ctx context.Context, key string, environmentID uint) (isActive bool, found bool, err error) {
	fe, err := s.store.GetFeatureState(ctx, key, environmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, false, nil
		}
		return false, false, err
	}
	return fe.IsEnabled, true, nil
}
