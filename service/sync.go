package service

import (
	"context"
	"errors"

	"flagnest/models"
	"flagnest/store"
)

// SyncStatus classifies what happened to one requested resource id during a
// sharing sync
type SyncStatus string

const (
	SyncAdded           SyncStatus = "added"
	SyncUpdated         SyncStatus = "updated"
	SyncRemoved         SyncStatus = "removed"
	SyncSkippedNotOwned SyncStatus = "skipped_not_owned"
)

// SyncOutcome is the per-resource result of a sharing sync. Skips are
// reported rather than silent so callers and tests can inspect them.
type SyncOutcome struct {
	ResourceID uint       `json:"resource_id"`
	Status     SyncStatus `json:"status"`
}

func hasSkips(outcomes []SyncOutcome) bool {
	for _, o := range outcomes {
		if o.Status == SyncSkippedNotOwned {
			return true
		}
	}
	return false
}

// syncTeamFeatures reconciles the team's shared features against the
// requested set. Removals always succeed; the association already existed.
// Additions are narrowed to features the acting user owns: an admin can only
// pledge their own resources into the team, never another member's. Survivors
// get their permission flags overwritten from the request.
func (s *TeamService) syncTeamFeatures(ctx context.Context, actorID uint, team *models.Team, requested []TeamFeatureInput) ([]SyncOutcome, error) {
	existing := make(map[uint]*models.TeamFeature, len(team.TeamFeatures))
	for i := range team.TeamFeatures {
		existing[team.TeamFeatures[i].FeatureID] = &team.TeamFeatures[i]
	}
	wanted := make(map[uint]bool, len(requested))
	for _, in := range requested {
		wanted[in.FeatureID] = true
	}

	var outcomes []SyncOutcome
	for id := range existing {
		if wanted[id] {
			continue
		}
		if err := s.store.RemoveTeamFeature(ctx, team.ID, id); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, SyncOutcome{ResourceID: id, Status: SyncRemoved})
	}

	for _, in := range requested {
		if tf, ok := existing[in.FeatureID]; ok {
			tf.IsReadOnly = in.IsReadOnly
			tf.AllCanToggle = in.AllCanToggle
			if err := s.store.UpdateTeamFeature(ctx, tf); err != nil {
				return nil, err
			}
			outcomes = append(outcomes, SyncOutcome{ResourceID: in.FeatureID, Status: SyncUpdated})
			continue
		}

		if _, err := s.store.GetFeatureForOwner(ctx, in.FeatureID, actorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				outcomes = append(outcomes, SyncOutcome{ResourceID: in.FeatureID, Status: SyncSkippedNotOwned})
				continue
			}
			return nil, err
		}
		tf := &models.TeamFeature{
			TeamID:       team.ID,
			FeatureID:    in.FeatureID,
			IsReadOnly:   in.IsReadOnly,
			AllCanToggle: in.AllCanToggle,
		}
		if err := s.store.AddTeamFeature(ctx, tf); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, SyncOutcome{ResourceID: in.FeatureID, Status: SyncAdded})
	}

	return outcomes, nil
}

// syncTeamEnvironments mirrors syncTeamFeatures for shared environments
func (s *TeamService) syncTeamEnvironments(ctx context.Context, actorID uint, team *models.Team, requested []TeamEnvironmentInput) ([]SyncOutcome, error) {
	existing := make(map[uint]*models.TeamEnvironment, len(team.TeamEnvironments))
	for i := range team.TeamEnvironments {
		existing[team.TeamEnvironments[i].EnvironmentID] = &team.TeamEnvironments[i]
	}
	wanted := make(map[uint]bool, len(requested))
	for _, in := range requested {
		wanted[in.EnvironmentID] = true
	}

	var outcomes []SyncOutcome
	for id := range existing {
		if wanted[id] {
			continue
		}
		if err := s.store.RemoveTeamEnvironment(ctx, team.ID, id); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, SyncOutcome{ResourceID: id, Status: SyncRemoved})
	}

	for _, in := range requested {
		if te, ok := existing[in.EnvironmentID]; ok {
			te.IsReadOnly = in.IsReadOnly
			if err := s.store.UpdateTeamEnvironment(ctx, te); err != nil {
				return nil, err
			}
			outcomes = append(outcomes, SyncOutcome{ResourceID: in.EnvironmentID, Status: SyncUpdated})
			continue
		}

		if _, err := s.store.GetEnvironmentForOwner(ctx, in.EnvironmentID, actorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				outcomes = append(outcomes, SyncOutcome{ResourceID: in.EnvironmentID, Status: SyncSkippedNotOwned})
				continue
			}
			return nil, err
		}
		te := &models.TeamEnvironment{
			TeamID:        team.ID,
			EnvironmentID: in.EnvironmentID,
			IsReadOnly:    in.IsReadOnly,
		}
		if err := s.store.AddTeamEnvironment(ctx, te); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, SyncOutcome{ResourceID: in.EnvironmentID, Status: SyncAdded})
	}

	return outcomes, nil
}

// autoShareResources pledges the user's ShareWithTeam-flagged features and
// environments into the team on join, using the user's default flags as the
// initial permission values. Resources already shared are left untouched.
func (s *TeamService) autoShareResources(ctx context.Context, user *models.User, team *models.Team) error {
	features, err := s.store.GetFeaturesByOwner(ctx, user.ID)
	if err != nil {
		return err
	}
	shared := make(map[uint]bool, len(team.TeamFeatures))
	for _, tf := range team.TeamFeatures {
		shared[tf.FeatureID] = true
	}
	for i := range features {
		if !features[i].ShareWithTeam || shared[features[i].ID] {
			continue
		}
		tf := &models.TeamFeature{
			TeamID:       team.ID,
			FeatureID:    features[i].ID,
			IsReadOnly:   user.DefaultTeamReadOnly,
			AllCanToggle: user.DefaultTeamAllowToggle,
		}
		if err := s.store.AddTeamFeature(ctx, tf); err != nil {
			return err
		}
	}

	envs, err := s.store.GetEnvironmentsByOwner(ctx, user.ID)
	if err != nil {
		return err
	}
	sharedEnvs := make(map[uint]bool, len(team.TeamEnvironments))
	for _, te := range team.TeamEnvironments {
		sharedEnvs[te.EnvironmentID] = true
	}
	for i := range envs {
		if !envs[i].ShareWithTeam || sharedEnvs[envs[i].ID] {
			continue
		}
		te := &models.TeamEnvironment{
			TeamID:        team.ID,
			EnvironmentID: envs[i].ID,
			IsReadOnly:    user.DefaultTeamReadOnly,
		}
		if err := s.store.AddTeamEnvironment(ctx, te); err != nil {
			return err
		}
	}

	return nil
}
