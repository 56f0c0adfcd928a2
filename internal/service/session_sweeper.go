package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single purge run.
const sweepTimeout = 30 * time.Second

// SessionSweeper periodically deletes expired sessions
type SessionSweeper struct {
	store SessionStore
	cron  *cron.Cron
}

// NewSessionSweeper schedules store.PurgeExpired on schedule, a standard cron
// expression or descriptor such as "@every 1h".
func NewSessionSweeper(store SessionStore, schedule string) (*SessionSweeper, error) {
	s := &SessionSweeper{
		store: store,
		cron:  cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
	if _, err := s.cron.AddFunc(schedule, s.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Sweep runs one purge immediately.
func (s *SessionSweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := s.store.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Error purging expired sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Purged %d expired sessions", n)
	}
}

func (s *SessionSweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep to finish.
func (s *SessionSweeper) Stop() {
	<-s.cron.Stop().Done()
}
