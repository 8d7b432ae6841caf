package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"flagnest/models"
	"flagnest/store"
)

// EnvironmentService owns the environment lifecycle. Environments are
// created, updated and deleted by their owner only.
type EnvironmentService struct {
	store store.Store
	log   *logrus.Logger
}

func NewEnvironmentService(st store.Store, log *logrus.Logger) *EnvironmentService {
	return &EnvironmentService{store: st, log: log}
}

type CreateEnvironmentInput struct {
	Name          string
	Description   string
	ShareWithTeam bool
}

type UpdateEnvironmentInput struct {
	Name          *string
	Description   *string
	ShareWithTeam *bool
}

func (s *EnvironmentService) CreateEnvironment(ctx context.Context, actorID uint, in CreateEnvironmentInput) (*models.Environment, error) {
	available, err := s.store.IsEnvironmentNameAvailable(ctx, in.Name, actorID, 0)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, conflict("Name is already in use")
	}

	env := &models.Environment{
		UserID:        actorID,
		Name:          in.Name,
		Description:   in.Description,
		ShareWithTeam: in.ShareWithTeam,
	}
	if err := s.store.AddEnvironment(ctx, env); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"environment_id": env.ID,
		"user_id":        actorID,
	}).Info("environment created")

	return env, nil
}

func (s *EnvironmentService) GetEnvironment(ctx context.Context, actorID, environmentID uint) (*models.Environment, error) {
	env, err := s.store.GetEnvironmentForOwner(ctx, environmentID, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Environment not found")
		}
		return nil, err
	}
	return env, nil
}

func (s *EnvironmentService) ListEnvironments(ctx context.Context, actorID uint) ([]models.Environment, error) {
	return s.store.GetEnvironmentsByOwner(ctx, actorID)
}

func (s *EnvironmentService) UpdateEnvironment(ctx context.Context, actorID, environmentID uint, in UpdateEnvironmentInput) (*models.Environment, error) {
	env, err := s.GetEnvironment(ctx, actorID, environmentID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != env.Name {
		available, err := s.store.IsEnvironmentNameAvailable(ctx, *in.Name, actorID, env.ID)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, conflict("Name is already in use")
		}
		env.Name = *in.Name
	}
	if in.Description != nil {
		env.Description = *in.Description
	}
	if in.ShareWithTeam != nil {
		env.ShareWithTeam = *in.ShareWithTeam
	}

	if err := s.store.UpdateEnvironment(ctx, env); err != nil {
		return nil, err
	}
	return env, nil
}

func (s *EnvironmentService) DeleteEnvironment(ctx context.Context, actorID, environmentID uint) error {
	env, err := s.GetEnvironment(ctx, actorID, environmentID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveEnvironment(ctx, env.ID); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"environment_id": env.ID,
		"user_id":        actorID,
	}).Info("environment deleted")

	return nil
}
