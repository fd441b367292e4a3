package monitoring

import (
	"github.com/avosseberg/gatehouse-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Reaper periodically removes expired sessions from the store.
type Reaper struct {
	sessionSvc services.SessionServiceProvider
	cron       *cron.Cron
}

// NewReaper creates a reaper running on the given cron schedule
// (e.g. "@hourly").
func NewReaper(sessionSvc services.SessionServiceProvider, schedule string) (*Reaper, error) {
	r := &Reaper{
		sessionSvc: sessionSvc,
		cron:       cron.New(),
	}
	if _, err := r.cron.AddFunc(schedule, r.reap); err != nil {
		return nil, err
	}
	return r, nil
}

// Run starts the reaper. It reaps once immediately so a restart does
// not leave stale sessions around until the first tick.
func (r *Reaper) Run() {
	log.Info().Msg("Starting session reaper")
	r.reap()
	r.cron.Start()
}

// Stop halts the reaper and waits for a running job to finish.
func (r *Reaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopped session reaper")
}

func (r *Reaper) reap() {
	removed, err := r.sessionSvc.ReapExpired()
	if err != nil {
		log.Error().Err(err).Msg("Failed to reap expired sessions")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Reaped expired sessions")
	}
}
