package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"flagnest/models"
)

func newTeamFixture(t *testing.T) (*memStore, *TeamService) {
	t.Helper()
	m := newMemStore()
	return m, NewTeamService(m, nil, testLogger())
}

func joinAsMember(t *testing.T, m *memStore, teamID, userID uint) {
	t.Helper()
	require.NoError(t, m.AddTeamMember(context.Background(), teamID, userID))
}

func sharedFeatureIDs(team *models.Team) []uint {
	ids := make([]uint, 0, len(team.TeamFeatures))
	for _, tf := range team.TeamFeatures {
		ids = append(ids, tf.FeatureID)
	}
	return ids
}

func TestGetTeamChecksExistenceBeforeAccess(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	stranger := seedUser(m, "stranger@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)

	_, err := svc.GetTeam(ctx, owner.ID, 999)
	requireServiceError(t, err, CodeNotFound, "Team not found")

	_, err = svc.GetTeam(ctx, stranger.ID, team.ID)
	requireServiceError(t, err, CodeForbidden, "You don't have permission to view this team")

	got, err := svc.GetTeam(ctx, owner.ID, team.ID)
	require.NoError(t, err)
	require.Equal(t, team.ID, got.ID)
}

func TestListTeamsIncludesMembership(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	joinAsMember(t, m, team.ID, member.ID)

	teams, err := svc.ListTeams(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Equal(t, team.ID, teams[0].ID)

	// The owner's own team is not duplicated
	joinAsMember(t, m, team.ID, owner.ID)
	teams, err = svc.ListTeams(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
}

func TestUpdateTeamAuthorization(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	joinAsMember(t, m, team.ID, member.ID)

	name := "Platform"
	_, _, err := svc.UpdateTeam(ctx, member.ID, team.ID, UpdateTeamInput{Name: &name})
	requireServiceError(t, err, CodeForbidden, "You don't have permission to update this team")

	// Owner can open up management to all members
	manage := true
	_, warning, err := svc.UpdateTeam(ctx, owner.ID, team.ID, UpdateTeamInput{AllCanManage: &manage})
	require.NoError(t, err)
	require.Empty(t, warning)

	updated, _, err := svc.UpdateTeam(ctx, member.ID, team.ID, UpdateTeamInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Platform", updated.Name)
}

func TestUpdateTeamSyncIdempotent(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	f1 := seedFeature(m, owner.ID, "Dark mode", "dark-mode", false)
	f2 := seedFeature(m, owner.ID, "Beta search", "beta-search", false)
	env := seedEnvironment(m, owner.ID, "production", false)

	in := UpdateTeamInput{
		Features: &[]TeamFeatureInput{
			{FeatureID: f1.ID, AllCanToggle: true},
			{FeatureID: f2.ID, IsReadOnly: true},
		},
		Environments: &[]TeamEnvironmentInput{{EnvironmentID: env.ID}},
	}

	updated, warning, err := svc.UpdateTeam(ctx, owner.ID, team.ID, in)
	require.NoError(t, err)
	require.Empty(t, warning)
	require.ElementsMatch(t, []uint{f1.ID, f2.ID}, sharedFeatureIDs(updated))
	require.Len(t, updated.TeamEnvironments, 1)

	// Re-applying the same request changes nothing
	again, warning, err := svc.UpdateTeam(ctx, owner.ID, team.ID, in)
	require.NoError(t, err)
	require.Empty(t, warning)
	require.ElementsMatch(t, sharedFeatureIDs(updated), sharedFeatureIDs(again))
	require.Len(t, again.TeamEnvironments, 1)
}

func TestUpdateTeamSyncOverwritesFlags(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	feature := seedFeature(m, owner.ID, "Dark mode", "dark-mode", false)

	_, _, err := svc.UpdateTeam(ctx, owner.ID, team.ID, UpdateTeamInput{
		Features: &[]TeamFeatureInput{{FeatureID: feature.ID, AllCanToggle: true}},
	})
	require.NoError(t, err)

	updated, _, err := svc.UpdateTeam(ctx, owner.ID, team.ID, UpdateTeamInput{
		Features: &[]TeamFeatureInput{{FeatureID: feature.ID, IsReadOnly: true}},
	})
	require.NoError(t, err)
	require.Len(t, updated.TeamFeatures, 1)
	require.True(t, updated.TeamFeatures[0].IsReadOnly)
	require.False(t, updated.TeamFeatures[0].AllCanToggle)
}

func TestUpdateTeamSkipsResourcesActorDoesNotOwn(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	joinAsMember(t, m, team.ID, member.ID)
	own := seedFeature(m, owner.ID, "Dark mode", "dark-mode", false)
	foreign := seedFeature(m, member.ID, "Beta search", "beta-search", false)

	updated, warning, err := svc.UpdateTeam(ctx, owner.ID, team.ID, UpdateTeamInput{
		Features: &[]TeamFeatureInput{
			{FeatureID: own.ID},
			{FeatureID: foreign.ID},
		},
	})
	require.NoError(t, err)
	require.Equal(t, partialSyncWarning, warning)
	require.ElementsMatch(t, []uint{own.ID}, sharedFeatureIDs(updated))
}

func TestUpdateTeamRemovesForeignAssociations(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	joinAsMember(t, m, team.ID, member.ID)
	foreign := seedFeature(m, member.ID, "Beta search", "beta-search", false)
	require.NoError(t, m.AddTeamFeature(ctx, &models.TeamFeature{TeamID: team.ID, FeatureID: foreign.ID}))

	// Removal needs no ownership of the shared resource
	updated, warning, err := svc.UpdateTeam(ctx, owner.ID, team.ID, UpdateTeamInput{
		Features: &[]TeamFeatureInput{},
	})
	require.NoError(t, err)
	require.Empty(t, warning)
	require.Empty(t, updated.TeamFeatures)
}

func TestDeleteTeam(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", true, false)
	joinAsMember(t, m, team.ID, member.ID)

	// AllCanManage does not extend to deletion
	err := svc.DeleteTeam(ctx, member.ID, team.ID)
	requireServiceError(t, err, CodeForbidden, "You don't have permission to delete this team")

	require.NoError(t, svc.DeleteTeam(ctx, owner.ID, team.ID))

	_, err = svc.GetTeam(ctx, owner.ID, team.ID)
	requireServiceError(t, err, CodeNotFound, "Team not found")

	freed, err := m.GetUserByID(ctx, member.ID)
	require.NoError(t, err)
	require.Nil(t, freed.TeamID)
}

func TestJoinTeamInviteOnly(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	user := seedUser(m, "user@example.com")
	team := seedTeam(m, owner.ID, "Core", false, true)

	_, err := svc.JoinTeam(ctx, user.ID, team.ID)
	requireServiceError(t, err, CodeBadRequest, "Team is invite only")
}

func TestJoinTeamMembershipIsExclusive(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	user := seedUser(m, "user@example.com")
	first := seedTeam(m, owner.ID, "Core", false, false)
	second := seedTeam(m, owner.ID, "Platform", false, false)

	_, err := svc.JoinTeam(ctx, user.ID, first.ID)
	require.NoError(t, err)

	_, err = svc.JoinTeam(ctx, user.ID, first.ID)
	requireServiceError(t, err, CodeConflict, "User is already a member of this team")

	_, err = svc.JoinTeam(ctx, user.ID, second.ID)
	requireServiceError(t, err, CodeConflict, "User is already a member of a team")
}

func TestJoinTeamAutoSharesFlaggedResources(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)

	user := &models.User{
		Email:                  "user@example.com",
		PasswordHash:           "hash",
		IsActive:               true,
		DefaultTeamReadOnly:    true,
		DefaultTeamAllowToggle: true,
	}
	require.NoError(t, m.AddUser(ctx, user))
	shared := seedFeature(m, user.ID, "Dark mode", "dark-mode", true)
	seedFeature(m, user.ID, "Beta search", "beta-search", false)
	sharedEnv := seedEnvironment(m, user.ID, "production", true)
	seedEnvironment(m, user.ID, "staging", false)

	joined, err := svc.JoinTeam(ctx, user.ID, team.ID)
	require.NoError(t, err)

	require.ElementsMatch(t, []uint{shared.ID}, sharedFeatureIDs(joined))
	require.True(t, joined.TeamFeatures[0].IsReadOnly)
	require.True(t, joined.TeamFeatures[0].AllCanToggle)
	require.Len(t, joined.TeamEnvironments, 1)
	require.Equal(t, sharedEnv.ID, joined.TeamEnvironments[0].EnvironmentID)
	require.True(t, joined.TeamEnvironments[0].IsReadOnly)
}

func TestLeaveTeam(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	other := seedTeam(m, owner.ID, "Platform", false, false)
	joinAsMember(t, m, team.ID, member.ID)
	feature := seedFeature(m, member.ID, "Dark mode", "dark-mode", false)
	require.NoError(t, m.AddTeamFeature(ctx, &models.TeamFeature{TeamID: team.ID, FeatureID: feature.ID}))

	err := svc.LeaveTeam(ctx, member.ID, other.ID)
	requireServiceError(t, err, CodeBadRequest, "User is not a member of this team")

	require.NoError(t, svc.LeaveTeam(ctx, member.ID, team.ID))

	left, err := m.GetUserByID(ctx, member.ID)
	require.NoError(t, err)
	require.Nil(t, left.TeamID)

	// Leaving does not withdraw previously shared resources
	remaining, err := m.GetTeamByID(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, remaining.TeamFeatures, 1)
}

func TestToggleTeamFeature(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	joinAsMember(t, m, team.ID, member.ID)
	env := seedEnvironment(m, owner.ID, "production", false)
	feature := seedFeature(m, owner.ID, "Dark mode", "dark-mode", false, env.ID)
	require.NoError(t, m.AddTeamFeature(ctx, &models.TeamFeature{
		TeamID:       team.ID,
		FeatureID:    feature.ID,
		AllCanToggle: true,
	}))

	res, err := svc.ToggleTeamFeature(ctx, member.ID, team.ID, feature.ID, env.ID)
	require.NoError(t, err)
	require.True(t, res.IsActive)
	require.True(t, res.WasChanged)
	require.Equal(t, "Feature toggled", res.Reason)
}

func TestToggleTeamFeatureDeniedWithoutToggleFlag(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	member := seedUser(m, "member@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	joinAsMember(t, m, team.ID, member.ID)
	env := seedEnvironment(m, owner.ID, "production", false)
	feature := seedFeature(m, owner.ID, "Dark mode", "dark-mode", false, env.ID)
	require.NoError(t, m.AddTeamFeature(ctx, &models.TeamFeature{
		TeamID:    team.ID,
		FeatureID: feature.ID,
	}))

	_, err := svc.ToggleTeamFeature(ctx, member.ID, team.ID, feature.ID, env.ID)
	requireServiceError(t, err, CodeForbidden, "You don't have permission to toggle this feature")

	// The feature's owner is never blocked by the team flags
	res, err := svc.ToggleTeamFeature(ctx, owner.ID, team.ID, feature.ID, env.ID)
	require.NoError(t, err)
	require.True(t, res.IsActive)
}

func TestToggleTeamFeatureNotShared(t *testing.T) {
	ctx := context.Background()
	m, svc := newTeamFixture(t)
	owner := seedUser(m, "owner@example.com")
	team := seedTeam(m, owner.ID, "Core", false, false)
	env := seedEnvironment(m, owner.ID, "production", false)
	feature := seedFeature(m, owner.ID, "Dark mode", "dark-mode", false, env.ID)

	res, err := svc.ToggleTeamFeature(ctx, owner.ID, team.ID, feature.ID, env.ID)
	requireServiceError(t, err, CodeNotFound, "Feature not found")
	require.False(t, res.WasChanged)
}
