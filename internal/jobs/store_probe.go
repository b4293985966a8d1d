package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/metrics"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusSetter receives the probe outcome, typically the gRPC health server.
type StatusSetter func(serving bool)

// StartStoreProbe pings the record store once immediately and then on every tick,
// reporting readiness until ctx is cancelled.
func StartStoreProbe(ctx context.Context, interval time.Duration, store Pinger, report StatusSetter, logger zerolog.Logger) {
	if store == nil {
		logger.Warn().Msg("store probe disabled: store not configured")
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := interval / 2
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}

	up := probeStore(ctx, store, timeout, report, logger, true)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				up = probeStore(ctx, store, timeout, report, logger, up)
			}
		}
	}()
}

func probeStore(ctx context.Context, store Pinger, timeout time.Duration, report StatusSetter, logger zerolog.Logger, wasUp bool) bool {
	tickCtx, cancel := context.WithTimeout(ctx, timeout)
	err := store.Ping(tickCtx)
	cancel()

	up := err == nil
	if up {
		metrics.StoreUp.Set(1)
		if !wasUp {
			logger.Info().Msg("store probe recovered")
		}
	} else {
		metrics.StoreUp.Set(0)
		logger.Error().Err(err).Msg("store probe failed")
	}
	if report != nil {
		report(up)
	}
	return up
}
