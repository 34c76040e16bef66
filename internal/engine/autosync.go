package engine

import (
	"context"
	"errors"
	"time"

	terrors "github.com/clearhours/trackd/internal/errors"
)

// StartAutoSync launches the periodic sync loop. Calling it while the loop is
// already running is a no-op.
func (e *Engine) StartAutoSync() {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()

	if e.autoCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.autoCancel = cancel
	e.autoDone = done

	go e.runLoop(ctx, done)

	e.deps.Metrics.SetAutoSyncActive(true)
	e.logger.Info().Dur("interval", e.cfg.SyncInterval).Msg("auto-sync started")
}

// StopAutoSync stops the periodic sync loop and waits for it to exit.
// Calling it when the loop is not running is a no-op.
func (e *Engine) StopAutoSync() {
	e.autoMu.Lock()
	cancel := e.autoCancel
	done := e.autoDone
	e.autoCancel = nil
	e.autoDone = nil
	e.autoMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	e.deps.Metrics.SetAutoSyncActive(false)
	e.logger.Info().Msg("auto-sync stopped")
}

// AutoSyncActive reports whether the periodic loop is running.
func (e *Engine) AutoSyncActive() bool {
	e.autoMu.Lock()
	defer e.autoMu.Unlock()
	return e.autoCancel != nil
}

func (e *Engine) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.RunSyncOnce(ctx); err != nil {
				if errors.Is(err, terrors.ErrSyncInProgress) {
					// A manual sync (or a slow previous tick) holds the
					// guard; this tick is skipped, never queued.
					e.logger.Debug().Msg("sync tick skipped, cycle in flight")
					continue
				}
				e.logger.Error().Err(err).Msg("scheduled sync failed")
			}
		}
	}
}
