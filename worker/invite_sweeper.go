package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"flagnest/store"
)

// InviteSweeper periodically removes expired, never-activated team invites.
// Activated invites are kept as a membership audit trail.
type InviteSweeper struct {
	store    store.InviteStore
	interval time.Duration
	log      *logrus.Logger
}

func NewInviteSweeper(st store.InviteStore, interval time.Duration, log *logrus.Logger) *InviteSweeper {
	return &InviteSweeper{
		store:    st,
		interval: interval,
		log:      log,
	}
}

func (s *InviteSweeper) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	s.log.Info("invite sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("invite sweeper shutting down...")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *InviteSweeper) sweep(ctx context.Context) {
	removed, err := s.store.RemoveExpiredInvites(ctx, time.Now())
	if err != nil {
		s.log.WithError(err).Error("failed to sweep expired invites")
		return
	}
	if removed > 0 {
		s.log.WithFields(logrus.Fields{
			"removed": removed,
		}).Info("expired invites removed")
	}
}
