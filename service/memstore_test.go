package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"flagnest/models"
	"flagnest/store"
)

// memStore is an in-memory store.Store used to exercise the services without
// a database. Reads return copies, like rows scanned from a result set.
type memStore struct {
	mu  sync.Mutex
	seq uint

	users        map[uint]models.User
	environments map[uint]models.Environment
	features     map[uint]models.Feature
	featureEnvs  map[uint]models.FeatureEnvironment
	teams        map[uint]models.Team
	teamFeatures map[[2]uint]models.TeamFeature
	teamEnvs     map[[2]uint]models.TeamEnvironment
	invites      map[uint]models.TeamInvite
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[uint]models.User),
		environments: make(map[uint]models.Environment),
		features:     make(map[uint]models.Feature),
		featureEnvs:  make(map[uint]models.FeatureEnvironment),
		teams:        make(map[uint]models.Team),
		teamFeatures: make(map[[2]uint]models.TeamFeature),
		teamEnvs:     make(map[[2]uint]models.TeamEnvironment),
		invites:      make(map[uint]models.TeamInvite),
	}
}

func (m *memStore) nextID() uint {
	m.seq++
	return m.seq
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// --- users ---

func (m *memStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) AddUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = m.nextID()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

// --- environments ---

func (m *memStore) GetEnvironmentByID(_ context.Context, id uint) (*models.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	env, ok := m.environments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &env, nil
}

func (m *memStore) GetEnvironmentForOwner(_ context.Context, id, ownerID uint) (*models.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	env, ok := m.environments[id]
	if !ok || env.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return &env, nil
}

func (m *memStore) GetEnvironmentsByOwner(_ context.Context, ownerID uint) ([]models.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var envs []models.Environment
	for _, env := range m.environments {
		if env.UserID == ownerID {
			envs = append(envs, env)
		}
	}
	return envs, nil
}

func (m *memStore) AddEnvironment(_ context.Context, env *models.Environment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	env.ID = m.nextID()
	m.environments[env.ID] = *env
	return nil
}

func (m *memStore) UpdateEnvironment(_ context.Context, env *models.Environment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.environments[env.ID] = *env
	return nil
}

func (m *memStore) RemoveEnvironment(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.environments, id)
	for feID, fe := range m.featureEnvs {
		if fe.EnvironmentID == id {
			delete(m.featureEnvs, feID)
		}
	}
	for key := range m.teamEnvs {
		if key[1] == id {
			delete(m.teamEnvs, key)
		}
	}
	return nil
}

func (m *memStore) IsEnvironmentNameAvailable(_ context.Context, name string, ownerID, excludeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, env := range m.environments {
		if env.Name == name && env.UserID == ownerID && env.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

// --- features ---

func (m *memStore) loadFeature(id uint) (models.Feature, bool) {
	feature, ok := m.features[id]
	if !ok {
		return models.Feature{}, false
	}
	feature.FeatureEnvironments = nil
	for _, fe := range m.featureEnvs {
		if fe.FeatureID == id {
			feature.FeatureEnvironments = append(feature.FeatureEnvironments, fe)
		}
	}
	return feature, true
}

func (m *memStore) GetFeatureByID(_ context.Context, id uint) (*models.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	feature, ok := m.loadFeature(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &feature, nil
}

func (m *memStore) GetFeatureForOwner(_ context.Context, id, ownerID uint) (*models.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	feature, ok := m.loadFeature(id)
	if !ok || feature.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return &feature, nil
}

func (m *memStore) GetFeaturesByOwner(_ context.Context, ownerID uint) ([]models.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var features []models.Feature
	for id, f := range m.features {
		if f.UserID != ownerID {
			continue
		}
		feature, _ := m.loadFeature(id)
		features = append(features, feature)
	}
	return features, nil
}

func (m *memStore) AddFeature(_ context.Context, feature *models.Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	feature.ID = m.nextID()
	for i := range feature.FeatureEnvironments {
		fe := &feature.FeatureEnvironments[i]
		fe.ID = m.nextID()
		fe.FeatureID = feature.ID
		m.featureEnvs[fe.ID] = *fe
	}
	stored := *feature
	stored.FeatureEnvironments = nil
	m.features[feature.ID] = stored
	return nil
}

func (m *memStore) UpdateFeature(_ context.Context, feature *models.Feature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *feature
	stored.FeatureEnvironments = nil
	m.features[feature.ID] = stored
	return nil
}

func (m *memStore) RemoveFeature(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.features, id)
	for feID, fe := range m.featureEnvs {
		if fe.FeatureID == id {
			delete(m.featureEnvs, feID)
		}
	}
	for key := range m.teamFeatures {
		if key[1] == id {
			delete(m.teamFeatures, key)
		}
	}
	return nil
}

func (m *memStore) IsFeatureNameAvailable(_ context.Context, name string, ownerID, excludeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.features {
		if f.Name == name && f.UserID == ownerID && f.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

func (m *memStore) IsFeatureKeyAvailable(_ context.Context, key string, ownerID, excludeID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.features {
		if f.Key == key && f.UserID == ownerID && f.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

func (m *memStore) GetFeatureState(_ context.Context, key string, environmentID uint) (*models.FeatureEnvironment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fe := range m.featureEnvs {
		if fe.EnvironmentID != environmentID {
			continue
		}
		if f, ok := m.features[fe.FeatureID]; ok && f.Key == key {
			found := fe
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) AddFeatureEnvironment(_ context.Context, fe *models.FeatureEnvironment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fe.ID = m.nextID()
	m.featureEnvs[fe.ID] = *fe
	return nil
}

func (m *memStore) UpdateFeatureEnvironment(_ context.Context, fe *models.FeatureEnvironment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.featureEnvs[fe.ID] = *fe
	return nil
}

func (m *memStore) RemoveFeatureEnvironment(_ context.Context, featureID, environmentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, fe := range m.featureEnvs {
		if fe.FeatureID == featureID && fe.EnvironmentID == environmentID {
			delete(m.featureEnvs, id)
		}
	}
	return nil
}

// --- teams ---

func (m *memStore) loadTeam(id uint) (models.Team, bool) {
	team, ok := m.teams[id]
	if !ok {
		return models.Team{}, false
	}
	if owner, ok := m.users[team.UserID]; ok {
		team.Owner = owner
	}
	team.Members = nil
	for _, user := range m.users {
		if user.TeamID != nil && *user.TeamID == id {
			team.Members = append(team.Members, user)
		}
	}
	team.TeamFeatures = nil
	for key, tf := range m.teamFeatures {
		if key[0] != id {
			continue
		}
		if f, ok := m.features[tf.FeatureID]; ok {
			tf.Feature = f
		}
		team.TeamFeatures = append(team.TeamFeatures, tf)
	}
	team.TeamEnvironments = nil
	for key, te := range m.teamEnvs {
		if key[0] != id {
			continue
		}
		if e, ok := m.environments[te.EnvironmentID]; ok {
			te.Environment = e
		}
		team.TeamEnvironments = append(team.TeamEnvironments, te)
	}
	return team, true
}

func (m *memStore) GetTeamByID(_ context.Context, id uint) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	team, ok := m.loadTeam(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &team, nil
}

func (m *memStore) GetTeamsByOwner(_ context.Context, ownerID uint) ([]models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var teams []models.Team
	for id, t := range m.teams {
		if t.UserID != ownerID {
			continue
		}
		team, _ := m.loadTeam(id)
		teams = append(teams, team)
	}
	return teams, nil
}

func (m *memStore) AddTeam(_ context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	team.ID = m.nextID()
	stored := *team
	stored.Members = nil
	stored.TeamFeatures = nil
	stored.TeamEnvironments = nil
	m.teams[team.ID] = stored
	return nil
}

func (m *memStore) UpdateTeam(_ context.Context, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *team
	stored.Owner = models.User{}
	stored.Members = nil
	stored.TeamFeatures = nil
	stored.TeamEnvironments = nil
	m.teams[team.ID] = stored
	return nil
}

func (m *memStore) RemoveTeam(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teams, id)
	for key := range m.teamFeatures {
		if key[0] == id {
			delete(m.teamFeatures, key)
		}
	}
	for key := range m.teamEnvs {
		if key[0] == id {
			delete(m.teamEnvs, key)
		}
	}
	for inviteID, invite := range m.invites {
		if invite.TeamID == id {
			delete(m.invites, inviteID)
		}
	}
	for userID, user := range m.users {
		if user.TeamID != nil && *user.TeamID == id {
			user.TeamID = nil
			m.users[userID] = user
		}
	}
	return nil
}

func (m *memStore) AddTeamMember(_ context.Context, teamID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	tid := teamID
	user.TeamID = &tid
	m.users[userID] = user
	return nil
}

func (m *memStore) RemoveTeamMember(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.TeamID = nil
	m.users[userID] = user
	return nil
}

func (m *memStore) AddTeamFeature(_ context.Context, tf *models.TeamFeature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tf.ID = m.nextID()
	stored := *tf
	stored.Team = models.Team{}
	stored.Feature = models.Feature{}
	m.teamFeatures[[2]uint{tf.TeamID, tf.FeatureID}] = stored
	return nil
}

func (m *memStore) UpdateTeamFeature(_ context.Context, tf *models.TeamFeature) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *tf
	stored.Team = models.Team{}
	stored.Feature = models.Feature{}
	m.teamFeatures[[2]uint{tf.TeamID, tf.FeatureID}] = stored
	return nil
}

func (m *memStore) RemoveTeamFeature(_ context.Context, teamID, featureID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teamFeatures, [2]uint{teamID, featureID})
	return nil
}

func (m *memStore) AddTeamEnvironment(_ context.Context, te *models.TeamEnvironment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	te.ID = m.nextID()
	stored := *te
	stored.Team = models.Team{}
	stored.Environment = models.Environment{}
	m.teamEnvs[[2]uint{te.TeamID, te.EnvironmentID}] = stored
	return nil
}

func (m *memStore) UpdateTeamEnvironment(_ context.Context, te *models.TeamEnvironment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *te
	stored.Team = models.Team{}
	stored.Environment = models.Environment{}
	m.teamEnvs[[2]uint{te.TeamID, te.EnvironmentID}] = stored
	return nil
}

func (m *memStore) RemoveTeamEnvironment(_ context.Context, teamID, environmentID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teamEnvs, [2]uint{teamID, environmentID})
	return nil
}

// --- invites ---

func (m *memStore) GetInviteByCode(_ context.Context, code string) (*models.TeamInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, invite := range m.invites {
		if invite.Code == code {
			i := invite
			return &i, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetInvitesByTeam(_ context.Context, teamID uint) ([]models.TeamInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var invites []models.TeamInvite
	for _, invite := range m.invites {
		if invite.TeamID == teamID {
			invites = append(invites, invite)
		}
	}
	return invites, nil
}

func (m *memStore) AddInvite(_ context.Context, invite *models.TeamInvite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	invite.ID = m.nextID()
	m.invites[invite.ID] = *invite
	return nil
}

func (m *memStore) ActivateInvite(_ context.Context, inviteID, userID uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invite, ok := m.invites[inviteID]
	if !ok || invite.ActivatedByUserID != nil {
		return false, nil
	}
	uid := userID
	ts := at
	invite.ActivatedByUserID = &uid
	invite.ActivatedAt = &ts
	m.invites[inviteID] = invite
	return true, nil
}

func (m *memStore) RemoveExpiredInvites(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, invite := range m.invites {
		if invite.ActivatedByUserID == nil && invite.ExpiresAt.Before(before) {
			delete(m.invites, id)
			removed++
		}
	}
	return removed, nil
}

// --- fixtures ---

func seedUser(m *memStore, email string) *models.User {
	user := &models.User{Email: email, PasswordHash: "hash", IsActive: true}
	_ = m.AddUser(context.Background(), user)
	return user
}

func seedEnvironment(m *memStore, ownerID uint, name string, share bool) *models.Environment {
	env := &models.Environment{UserID: ownerID, Name: name, ShareWithTeam: share}
	_ = m.AddEnvironment(context.Background(), env)
	return env
}

func seedFeature(m *memStore, ownerID uint, name, key string, share bool, envIDs ...uint) *models.Feature {
	feature := &models.Feature{UserID: ownerID, Name: name, Key: key, ShareWithTeam: share}
	for _, envID := range envIDs {
		feature.FeatureEnvironments = append(feature.FeatureEnvironments, models.FeatureEnvironment{EnvironmentID: envID})
	}
	_ = m.AddFeature(context.Background(), feature)
	return feature
}

func seedTeam(m *memStore, ownerID uint, name string, allCanManage, inviteOnly bool) *models.Team {
	team := &models.Team{UserID: ownerID, Name: name, AllCanManage: allCanManage, InviteOnly: inviteOnly}
	_ = m.AddTeam(context.Background(), team)
	return team
}
