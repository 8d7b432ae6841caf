// Package store provides repository-style persistence for the flagnest
// aggregates. Interfaces are defined per aggregate so the service layer can
// be tested without a database.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Store aggregates the per-entity repositories
type Store interface {
	UserStore
	EnvironmentStore
	FeatureStore
	TeamStore
	InviteStore
}

type gormStore struct {
	db *gorm.DB
}

// New creates a GORM-backed Store
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// translate maps driver-level not-found errors onto the store sentinel so
// callers never import gorm
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
