package tasks

import (
	"context"
	"log"
	"time"
)

// Purger deletes completed tasks once they are older than PurgeAfter.
type Purger struct {
	Store    PurgeStore
	Interval time.Duration
	Now      func() time.Time
}

func NewPurger(store PurgeStore, interval time.Duration) *Purger {
	return &Purger{Store: store, Interval: interval, Now: time.Now}
}

func (p *Purger) PurgeOnce(ctx context.Context) (int64, error) {
	cutoff := p.Now().Add(-PurgeAfter).UTC()
	return p.Store.DeleteCompletedBefore(ctx, cutoff)
}

// Run purges immediately and then on every tick until ctx is done.
func (p *Purger) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := p.PurgeOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Printf("[WARN] purge completed tasks failed: %v", err)
		case n > 0:
			log.Printf("purged completed tasks count=%d", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
