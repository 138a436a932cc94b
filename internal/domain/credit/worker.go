package credit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Locker keeps a sweep single-flight across replicas.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Worker periodically zeroes expired balances. Reads and deductions never
// depend on it having run.
type Worker struct {
	service  Service
	locker   Locker
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a new sweep worker. locker may be nil.
func NewWorker(service Service, locker Locker, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &Worker{
		service:  service,
		locker:   locker,
		interval: interval,
		timeout:  30 * time.Second,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Dur("interval", w.interval).Msg("Starting credit sweep worker...")
	go w.loop()
}

// Stop stops the loop and waits for an in-flight sweep to finish
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		log.Info().Msg("Stopping credit sweep worker...")
		close(w.stopCh)
	})
	<-w.doneCh
}

func (w *Worker) loop() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			w.RunOnce(context.Background())
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce performs a single guarded sweep and returns the number of zeroed
// balances. A sweep skipped because another replica holds the lock returns 0.
func (w *Worker) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if w.locker != nil {
		ok, err := w.locker.TryLock(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to acquire credit sweep lock")
			return 0
		}
		if !ok {
			log.Debug().Msg("Credit sweep already running elsewhere, skipping")
			return 0
		}
		defer func() {
			if err := w.locker.Unlock(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to release credit sweep lock")
			}
		}()
	}

	log.Debug().Msg("Starting credit expiry sweep...")

	count, err := w.service.CleanupExpiredCredits(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired credits")
		return 0
	}

	log.Debug().Int64("count", count).Msg("Finished credit expiry sweep")
	return count
}
