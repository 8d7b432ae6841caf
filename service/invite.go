package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"flagnest/models"
	"flagnest/store"
)

const defaultInviteValidityDays = 7

// CreateInvite issues a single-use invite code for the team, valid for the
// given number of days. Only the team owner may create invites. When an
// email address is supplied the code is mailed to it; delivery failures are
// logged and do not fail the operation.
func (s *TeamService) CreateInvite(ctx context.Context, actorID, teamID uint, validityDays int, email string) (*models.TeamInvite, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Team not found")
		}
		return nil, err
	}
	if team.UserID != actorID {
		return nil, forbidden("You don't have permission to invite users to this team")
	}

	if validityDays <= 0 {
		validityDays = defaultInviteValidityDays
	}
	invite := &models.TeamInvite{
		TeamID:      team.ID,
		Code:        uuid.NewString(),
		InvitedByID: actorID,
		ExpiresAt:   time.Now().AddDate(0, 0, validityDays),
	}
	if err := s.store.AddInvite(ctx, invite); err != nil {
		return nil, err
	}

	if email != "" && s.mailer != nil {
		if err := s.mailer.SendTeamInvite(email, team.Name, invite.Code, invite.ExpiresAt); err != nil {
			s.log.WithFields(logrus.Fields{
				"team_id":   team.ID,
				"invite_id": invite.ID,
			}).WithError(err).Warn("failed to send invite email")
		}
	}

	s.log.WithFields(logrus.Fields{
		"team_id":   team.ID,
		"invite_id": invite.ID,
		"user_id":   actorID,
	}).Info("team invite created")

	return invite, nil
}

// ListInvites returns the team's invites, newest first
func (s *TeamService) ListInvites(ctx context.Context, actorID, teamID uint) ([]models.TeamInvite, error) {
	team, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Team not found")
		}
		return nil, err
	}
	if !CanManageTeam(actorID, team) {
		return nil, forbidden("You don't have permission to view this team")
	}
	return s.store.GetInvitesByTeam(ctx, team.ID)
}

// AcceptInvite redeems an invite code for the acting user. Checks run in a
// fixed order: user exists, user belongs to no team, invite exists, invite
// not expired, invite not already used, team exists, user not already a
// member. The activation itself is a conditional update, so two concurrent
// redemptions of the same code cannot both succeed.
func (s *TeamService) AcceptInvite(ctx context.Context, actorID uint, code string) (*models.Team, error) {
	user, err := s.store.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	if user.TeamID != nil {
		return nil, conflict("User is already a member of a team")
	}

	invite, err := s.store.GetInviteByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Team invite not found")
		}
		return nil, err
	}

	now := time.Now()
	if invite.IsExpired(now) {
		return nil, badRequest("Team invite has expired")
	}
	if invite.IsActivated() {
		return nil, badRequest("Team invite has already been used")
	}

	team, err := s.store.GetTeamByID(ctx, invite.TeamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Team not found")
		}
		return nil, err
	}
	if team.IsMember(user.ID) {
		return nil, conflict("User is already a member of this team")
	}

	ok, err := s.store.ActivateInvite(ctx, invite.ID, user.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent redemption
		return nil, badRequest("Team invite has already been used")
	}

	if err := s.store.AddTeamMember(ctx, team.ID, user.ID); err != nil {
		return nil, err
	}
	if err := s.autoShareResources(ctx, user, team); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"team_id":   team.ID,
		"invite_id": invite.ID,
		"user_id":   user.ID,
	}).Info("team invite accepted")

	return s.store.GetTeamByID(ctx, team.ID)
}
