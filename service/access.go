package service

import "flagnest/models"

// The ownership resolver. Pure predicates over already-loaded entities: no
// mutation, no errors. Callers translate a false result into a forbidden
// outcome, after existence has been established.

// Owned is any resource with a single owning user
type Owned interface {
	OwnerID() uint
}

// CanManageResource reports whether the actor owns the resource outright.
// Governs feature/environment create/update/delete and team create/delete.
func CanManageResource(actorID uint, res Owned) bool {
	return res.OwnerID() == actorID
}

// CanManageTeam reports whether the actor may edit team configuration: the
// owner always, members only when AllCanManage is set
func CanManageTeam(actorID uint, team *models.Team) bool {
	if team.UserID == actorID {
		return true
	}
	return team.AllCanManage && team.IsMember(actorID)
}

// CanViewTeam matches CanManageTeam. There is no separate read-only viewer
// role; a non-member non-owner is forbidden.
func CanViewTeam(actorID uint, team *models.Team) bool {
	return CanManageTeam(actorID, team)
}

// CanToggleFeatureInTeamContext reports whether the actor may flip a feature
// shared into a team. The feature's owner always may; members need the
// AllCanToggle flag on an assignment that is not read-only. The TeamFeature
// must have its Team (with members) and Feature relations loaded.
func CanToggleFeatureInTeamContext(actorID uint, tf *models.TeamFeature) bool {
	if tf.Feature.UserID == actorID {
		return true
	}
	if tf.IsReadOnly {
		return false
	}
	return tf.AllCanToggle && tf.Team.IsMember(actorID)
}
