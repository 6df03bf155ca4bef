package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventix/internal/shared/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchCompleter hands out queued batches of finished event ids
type batchCompleter struct {
	batches [][]uuid.UUID
	err     error
	limits  []int
}

func (c *batchCompleter) MarkPastEventsCompleted(_ context.Context, _ time.Time, limit int) ([]uuid.UUID, error) {
	c.limits = append(c.limits, limit)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.batches) == 0 {
		return nil, nil
	}
	next := c.batches[0]
	c.batches = c.batches[1:]
	return next, nil
}

func TestProcessLifecycleMarksNoShows(t *testing.T) {
	f := newFixture(t)
	user := newUser()
	admin := newAdmin()
	event := f.addEvent(10, 72*time.Hour)

	attended := f.book(t, user, event.ID, 1)
	missed := f.book(t, user, event.ID, 2)
	_, err := f.svc.CheckIn(context.Background(), admin, bookingID(t, attended))
	require.NoError(t, err)

	completer := &batchCompleter{batches: [][]uuid.UUID{{event.ID}}}
	cache := &recordingCache{}
	jobs := NewJobProcessor(completer, f.store, cache, &JobConfig{LifecycleInterval: time.Hour, BatchSize: 50})

	completed, noShows := jobs.processLifecycle(context.Background())
	assert.Equal(t, 1, completed)
	assert.EqualValues(t, 1, noShows)
	assert.Equal(t, []int{50}, completer.limits)
	assert.Equal(t, []uuid.UUID{event.ID}, cache.invalidated)

	assert.Equal(t, BookingStatusNoShow, f.store.booking(bookingID(t, missed)).BookingStatus)
	assert.Equal(t, BookingStatusAttended, f.store.booking(bookingID(t, attended)).BookingStatus)
	f.assertInventoryConsistent(t, event.ID)
}

func TestProcessLifecycleDrainsFullBatches(t *testing.T) {
	first := []uuid.UUID{uuid.New(), uuid.New()}
	second := []uuid.UUID{uuid.New()}
	completer := &batchCompleter{batches: [][]uuid.UUID{first, second}}

	jobs := NewJobProcessor(completer, newMemoryStore(), nil, &JobConfig{LifecycleInterval: time.Hour, BatchSize: 2})
	completed, _ := jobs.processLifecycle(context.Background())

	assert.Equal(t, 3, completed)
	assert.Len(t, completer.limits, 2)
}

func TestProcessLifecycleStopsOnError(t *testing.T) {
	completer := &batchCompleter{err: errors.New("database unavailable")}
	jobs := NewJobProcessor(completer, newMemoryStore(), nil, nil)

	completed, noShows := jobs.processLifecycle(context.Background())
	assert.Zero(t, completed)
	assert.Zero(t, noShows)
	assert.Len(t, completer.limits, 1)
}

func TestJobProcessorStartStop(t *testing.T) {
	completer := &batchCompleter{}
	jobs := NewJobProcessor(completer, newMemoryStore(), nil, &JobConfig{LifecycleInterval: time.Hour, BatchSize: 10})

	jobs.Start(context.Background())
	jobs.Stop()
	jobs.Stop()
}

func TestJobConfigFromDefaults(t *testing.T) {
	cfg := JobConfigFrom(config.JobsConfig{})
	assert.Equal(t, 5*time.Minute, cfg.LifecycleInterval)
	assert.Equal(t, 100, cfg.BatchSize)
}
