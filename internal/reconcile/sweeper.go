package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"washsync-backend/internal/machine"
	"washsync-backend/internal/store"
)

// Expirer releases one machine whose timer has run out.
type Expirer interface {
	Expire(ctx context.Context, machineID int64, now time.Time) error
}

// ExpirerFunc adapts a function to Expirer.
type ExpirerFunc func(ctx context.Context, machineID int64, now time.Time) error

func (f ExpirerFunc) Expire(ctx context.Context, machineID int64, now time.Time) error {
	return f(ctx, machineID, now)
}

// ServiceExpirer expires machines through the machine service.
func ServiceExpirer(svc *machine.Service) Expirer {
	return ExpirerFunc(func(ctx context.Context, machineID int64, now time.Time) error {
		_, err := svc.Expire(ctx, machineID, now)
		return err
	})
}

// Result summarises one sweep.
type Result struct {
	Expired int
	Skipped int
	Failed  int
}

// Sweeper periodically releases machines whose timers have expired.
type Sweeper struct {
	store    store.Store
	expirer  Expirer
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(s store.Store, expirer Expirer, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    s,
		expirer:  expirer,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("[reconcile] starting sweeper, interval %s", s.interval)

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[reconcile] sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce expires every machine that is InUse with a timer at or before
// now. A failure on one machine is logged and does not stop the others.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	now := s.now()
	var res Result

	ids, err := s.store.ListExpiredMachineIDs(ctx, now)
	if err != nil {
		log.Printf("[reconcile] failed to list expired machines: %v", err)
		return res, err
	}
	if len(ids) == 0 {
		return res, nil
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		err := s.expireOne(ctx, id, now)
		switch {
		case err == nil:
			res.Expired++
		case errors.Is(err, machine.ErrNotExpired), errors.Is(err, machine.ErrNotFound):
			res.Skipped++
		default:
			res.Failed++
			log.Printf("[reconcile] failed to expire machine %d: %v", id, err)
		}
	}

	log.Printf("[reconcile] sweep done: %d expired, %d skipped, %d failed", res.Expired, res.Skipped, res.Failed)
	return res, nil
}

func (s *Sweeper) expireOne(ctx context.Context, id int64, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while expiring machine %d: %v", id, r)
		}
	}()
	return s.expirer.Expire(ctx, id, now)
}
