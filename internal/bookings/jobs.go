package bookings

import (
	"context"
	"sync"
	"time"

	"eventix/internal/shared/config"
	"eventix/pkg/logger"

	"github.com/google/uuid"
)

// EventCompleter closes out published events whose date has passed
type EventCompleter interface {
	MarkPastEventsCompleted(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// NoShowMarker flags unattended bookings of finished events
type NoShowMarker interface {
	MarkNoShows(ctx context.Context, eventIDs []uuid.UUID) (int64, error)
}

type JobConfig struct {
	LifecycleInterval time.Duration
	BatchSize         int
}

func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		LifecycleInterval: 5 * time.Minute,
		BatchSize:         100,
	}
}

func JobConfigFrom(cfg config.JobsConfig) *JobConfig {
	out := DefaultJobConfig()
	if cfg.LifecycleInterval > 0 {
		out.LifecycleInterval = cfg.LifecycleInterval
	}
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	return out
}

// JobProcessor moves events to completed after they happen and marks the
// bookings nobody checked in for as no-shows
type JobProcessor struct {
	events     EventCompleter
	bookings   NoShowMarker
	eventCache EventCache
	config     *JobConfig
	log        *logger.Logger
	now        func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewJobProcessor(events EventCompleter, bookings NoShowMarker, eventCache EventCache, cfg *JobConfig) *JobProcessor {
	if cfg == nil {
		cfg = DefaultJobConfig()
	}
	return &JobProcessor{
		events:     events,
		bookings:   bookings,
		eventCache: eventCache,
		config:     cfg,
		log:        logger.GetDefault(),
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

func (jp *JobProcessor) Start(ctx context.Context) {
	jp.wg.Add(1)
	go func() {
		defer jp.wg.Done()
		jp.runLifecycle(ctx)
	}()
	jp.log.Info("booking lifecycle job started", "interval", jp.config.LifecycleInterval, "batch_size", jp.config.BatchSize)
}

func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() { close(jp.done) })
	jp.wg.Wait()
	jp.log.Info("booking lifecycle job stopped")
}

func (jp *JobProcessor) runLifecycle(ctx context.Context) {
	ticker := time.NewTicker(jp.config.LifecycleInterval)
	defer ticker.Stop()

	// catch up on anything that finished while the server was down
	jp.processLifecycle(ctx)

	for {
		select {
		case <-ticker.C:
			jp.processLifecycle(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// processLifecycle drains finished events batch by batch and returns how many
// events and bookings it moved
func (jp *JobProcessor) processLifecycle(ctx context.Context) (int, int64) {
	var completedEvents int
	var noShows int64

	for {
		ids, err := jp.events.MarkPastEventsCompleted(ctx, jp.now(), jp.config.BatchSize)
		if err != nil {
			jp.log.ErrorContext(ctx, "failed to complete past events", "error", err)
			break
		}
		if len(ids) == 0 {
			break
		}
		completedEvents += len(ids)

		marked, err := jp.bookings.MarkNoShows(ctx, ids)
		if err != nil {
			jp.log.ErrorContext(ctx, "failed to mark no-show bookings", "events", len(ids), "error", err)
		}
		noShows += marked

		if jp.eventCache != nil {
			for _, id := range ids {
				jp.eventCache.Invalidate(ctx, id)
			}
		}
		if len(ids) < jp.config.BatchSize {
			break
		}
	}

	if completedEvents > 0 {
		jp.log.InfoContext(ctx, "past events completed", "events", completedEvents, "no_shows", noShows)
	}
	return completedEvents, noShows
}
