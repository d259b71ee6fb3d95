package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RevocationPurger deletes revocation entries created before the cutoff.
type RevocationPurger interface {
	PurgeRevokedTokens(ctx context.Context, before time.Time) (int64, error)
}

const sweepTimeout = 30 * time.Second

// StartRevocationSweep purges entries older than retention every interval
// until ctx is done. The returned channel closes when the loop exits.
func StartRevocationSweep(ctx context.Context, purger RevocationPurger, retention, interval time.Duration, log zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	if purger == nil {
		log.Info().Msg("revocation sweep disabled: backend expires entries itself")
		close(done)
		return done
	}
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				SweepOnce(ctx, purger, retention, log)
			}
		}
	}()
	return done
}

// SweepOnce runs a single purge and returns how many entries were removed.
func SweepOnce(ctx context.Context, purger RevocationPurger, retention time.Duration, log zerolog.Logger) int64 {
	cutoff := time.Now().UTC().Add(-retention)
	tickCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := purger.PurgeRevokedTokens(tickCtx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("revocation sweep failed")
		return 0
	}
	if n > 0 {
		log.Info().Int64("purged", n).Time("cutoff", cutoff).Msg("revocation sweep")
	}
	return n
}
