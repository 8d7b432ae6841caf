package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"flagnest/models"
	"flagnest/store"
)

// The warning surfaced when a sharing sync completes but some requested
// resources were skipped. This is a soft partial failure: the operation still
// succeeds and nothing is rolled back.
const partialSyncWarning = "Team updated, but some environments or features could not be updated due to the user not having access to them"

// InviteMailer delivers invite codes. Delivery failures are logged, never
// fatal.
type InviteMailer interface {
	SendTeamInvite(toEmail, teamName, code string, expiresAt time.Time) error
}

// TeamService owns team lifecycle, the membership/sharing synchronizer and
// the invite-code lifecycle.
type TeamService struct {
	store  store.Store
	mailer InviteMailer
	log    *logrus.Logger
}

func NewTeamService(st store.Store, mailer InviteMailer, log *logrus.Logger) *TeamService {
	return &TeamService{store: st, mailer: mailer, log: log}
}

type CreateTeamInput struct {
	Name         string
	Description  string
	AllCanManage bool
	InviteOnly   bool
}

type TeamFeatureInput struct {
	FeatureID    uint `json:"feature_id"`
	IsReadOnly   bool `json:"is_read_only"`
	AllCanToggle bool `json:"all_can_toggle"`
}

type TeamEnvironmentInput struct {
	EnvironmentID uint `json:"environment_id"`
	IsReadOnly    bool `json:"is_read_only"`
}

type UpdateTeamInput struct {
	Name         *string
	Description  *string
	AllCanManage *bool
	InviteOnly   *bool
	Features     *[]TeamFeatureInput
	Environments *[]TeamEnvironmentInput
}

func (s *TeamService) CreateTeam(ctx context.Context, actorID uint, in CreateTeamInput) (*models.Team, error) {
	team := &models.Team{
		UserID:       actorID,
		Name:         in.Name,
		Description:  in.Description,
		AllCanManage: in.AllCanManage,
		InviteOnly:   in.InviteOnly,
	}
	if err := s.store.AddTeam(ctx, team); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"user_id": actorID,
	}).Info("team created")

	return team, nil
}

// GetTeam loads a team for viewing. Existence is checked before
// authorization, so a missing team reports not-found while an existing one
// the actor may not see reports forbidden.
func (s *TeamService) GetTeam(ctx context.Context, actorID, teamID uint) (*models.Team, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Team not found")
		}
		return nil, err
	}
	if !CanViewTeam(actorID, team) {
		return nil, forbidden("You don't have permission to view this team")
	}
	return team, nil
}

// ListTeams returns the teams the actor owns plus the one they belong to
func (s *TeamService) ListTeams(ctx context.Context, actorID uint) ([]models.Team, error) {
	teams, err := s.store.GetTeamsByOwner(ctx, actorID)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}
	if user.TeamID != nil {
		member := false
		for _, t := range teams {
			if t.ID == *user.TeamID {
				member = true
				break
			}
		}
		if !member {
			team, err := s.store.GetTeamByID(ctx, *user.TeamID)
			if err == nil {
				teams = append(teams, *team)
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
		}
	}

	return teams, nil
}

// UpdateTeam applies configuration changes and reconciles the shared
// feature/environment sets through the synchronizer. The returned warning is
// empty on a clean sync and carries the soft-partial-failure message when any
// requested resource had to be skipped; the operation still succeeds.
func (s *TeamService) UpdateTeam(ctx context.Context, actorID, teamID uint, in UpdateTeamInput) (*models.Team, string, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", notFound("Team not found")
		}
		return nil, "", err
	}
	if !CanManageTeam(actorID, team) {
		return nil, "", forbidden("You don't have permission to update this team")
	}

	if in.Name != nil {
		team.Name = *in.Name
	}
	if in.Description != nil {
		team.Description = *in.Description
	}
	if in.AllCanManage != nil {
		team.AllCanManage = *in.AllCanManage
	}
	if in.InviteOnly != nil {
		team.InviteOnly = *in.InviteOnly
	}
	if err := s.store.UpdateTeam(ctx, team); err != nil {
		return nil, "", err
	}

	var outcomes []SyncOutcome
	if in.Features != nil {
		fo, err := s.syncTeamFeatures(ctx, actorID, team, *in.Features)
		if err != nil {
			return nil, "", err
		}
		outcomes = append(outcomes, fo...)
	}
	if in.Environments != nil {
		eo, err := s.syncTeamEnvironments(ctx, actorID, team, *in.Environments)
		if err != nil {
			return nil, "", err
		}
		outcomes = append(outcomes, eo...)
	}

	warning := ""
	if hasSkips(outcomes) {
		warning = partialSyncWarning
	}

	updated, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, "", err
	}
	return updated, warning, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, actorID, teamID uint) error {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Team not found")
		}
		return err
	}
	if !CanManageResource(actorID, team) {
		return forbidden("You don't have permission to delete this team")
	}
	if err := s.store.RemoveTeam(ctx, team.ID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"user_id": actorID,
	}).Info("team deleted")

	return nil
}

// JoinTeam adds the actor to an open team. Invite-only teams reject open
// joins; membership is exclusive, so a user already in any team is refused.
// On success the user's ShareWithTeam resources are pledged into the team
// with the user's default permission flags.
func (s *TeamService) JoinTeam(ctx context.Context, actorID, teamID uint) (*models.Team, error) {
	user, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Team not found")
		}
		return nil, err
	}

	if team.InviteOnly {
		return nil, badRequest("Team is invite only")
	}
	if user.TeamID != nil {
		if *user.TeamID == team.ID {
			return nil, conflict("User is already a member of this team")
		}
		return nil, conflict("User is already a member of a team")
	}

	if err := s.store.AddTeamMember(ctx, team.ID, user.ID); err != nil {
		return nil, err
	}
	if err := s.autoShareResources(ctx, user, team); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"user_id": user.ID,
	}).Info("user joined team")

	return s.store.GetTeamByID(ctx, teamID)
}

// LeaveTeam removes the actor from the specific team named in the request.
// Resources the leaving user pledged stay shared until a later sync removes
// them.
func (s *TeamService) LeaveTeam(ctx context.Context, actorID, teamID uint) error {
	user, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("User not found")
		}
		return err
	}

	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Team not found")
		}
		return err
	}

	if user.TeamID == nil || *user.TeamID != team.ID {
		return badRequest("User is not a member of this team")
	}

	if err := s.store.RemoveTeamMember(ctx, user.ID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"user_id": user.ID,
	}).Info("user left team")

	return nil
}

// ToggleTeamFeature flips a feature shared into the team, on behalf of a
// member acting under the team-context permission flags
func (s *TeamService) ToggleTeamFeature(ctx context.Context, actorID, teamID, featureID, environmentID uint) (ToggleResult, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ToggleResult{}, notFound("Team not found")
		}
		return ToggleResult{}, err
	}

	var tf *models.TeamFeature
	for i := range team.TeamFeatures {
		if team.TeamFeatures[i].FeatureID == featureID {
			tf = &team.TeamFeatures[i]
			break
		}
	}
	if tf == nil {
		return ToggleResult{Reason: "Feature not found"}, notFound("Feature not found")
	}

	tf.Team = *team
	if !CanToggleFeatureInTeamContext(actorID, tf) {
		return ToggleResult{}, forbidden("You don't have permission to toggle this feature")
	}

	feature, err := s.store.GetFeatureByID(ctx, featureID)
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
		"team_id":        team.ID,
		"feature_id":     featureID,
		"environment_id": environmentID,
		"is_enabled":     fe.IsEnabled,
		"user_id":        actorID,
	}).Info("team feature toggled")

	return ToggleResult{IsActive: fe.IsEnabled, WasChanged: true, Reason: "Feature toggled"}, nil
}
