package store

import (
	"context"
	"time"

	"flagnest/models"
)

// InviteStore exposes invite persistence. Activation is a conditional update
// so that a code can never be redeemed twice under concurrent requests.
type InviteStore interface {
	GetInviteByCode(ctx context.Context, code string) (*models.TeamInvite, error)
	GetInvitesByTeam(ctx context.Context, teamID uint) ([]models.TeamInvite, error)
	AddInvite(ctx context.Context, invite *models.TeamInvite) error
	ActivateInvite(ctx context.Context, inviteID, userID uint, at time.Time) (bool, error)
	RemoveExpiredInvites(ctx context.Context, before time.Time) (int64, error)
}

func (s *gormStore) GetInviteByCode(ctx context.Context, code string) (*models.TeamInvite, error) {
	var invite models.TeamInvite
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, translate(err)
	}
	return &invite, nil
}

func (s *gormStore) GetInvitesByTeam(ctx context.Context, teamID uint) ([]models.TeamInvite, error) {
	var invites []models.TeamInvite
	err := s.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (s *gormStore) AddInvite(ctx context.Context, invite *models.TeamInvite) error {
	return s.db.WithContext(ctx).Create(invite).Error
}

// ActivateInvite marks the invite as redeemed. The activated_by_user_id IS
// NULL guard makes redemption single-use: the second of two concurrent calls
// matches zero rows and gets ok=false.
func (s *gormStore) ActivateInvite(ctx context.Context, inviteID, userID uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.TeamInvite{}).
		Where("id = ? AND activated_by_user_id IS NULL", inviteID).
		Updates(map[string]interface{}{
			"activated_by_user_id": userID,
			"activated_at":         at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RemoveExpiredInvites deletes unredeemed invites that expired before the
// given cutoff. Used by the background sweeper only.
func (s *gormStore) RemoveExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ? AND activated_by_user_id IS NULL", before).
		Delete(&models.TeamInvite{})
	return res.RowsAffected, res.Error
}
