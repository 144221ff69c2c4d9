package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"finora/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu   sync.Mutex
	jobs []string
	done chan struct{}
	want int
}

func newRecorder(want int) *recorder {
	return &recorder{done: make(chan struct{}), want: want}
}

func (r *recorder) handle(_ context.Context, job []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, string(job))
	if len(r.jobs) == r.want {
		close(r.done)
	}
	if string(job) == "bad" {
		return errors.New("boom")
	}
	return nil
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for jobs")
	}
}

func TestSameKeyKeepsOrder(t *testing.T) {
	rec := newRecorder(20)
	wp := NewWorkerPool(4, rec.handle)
	wp.Start()
	defer wp.Stop()

	for i := 0; i < 20; i++ {
		require.NoError(t, wp.SubmitKey("user-1", []byte(fmt.Sprintf("%02d", i))))
	}
	rec.wait(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, job := range rec.jobs {
		assert.Equal(t, fmt.Sprintf("%02d", i), job)
	}
}

func TestPartitionIsStable(t *testing.T) {
	wp := NewWorkerPool(8, func(context.Context, []byte) error { return nil })
	p := wp.Partition("user-42")
	for i := 0; i < 10; i++ {
		assert.Equal(t, p, wp.Partition("user-42"))
	}
	assert.GreaterOrEqual(t, p, int32(0))
	assert.Less(t, p, int32(8))
}

func TestSubmitInvalidPartition(t *testing.T) {
	wp := NewWorkerPool(2, func(context.Context, []byte) error { return nil })
	assert.Error(t, wp.Submit([]byte("x"), 5))
	assert.Error(t, wp.Submit([]byte("x"), -1))
	assert.Equal(t, uint64(2), wp.Metrics().MessagesDropped)
}

func TestSubmitAfterStop(t *testing.T) {
	wp := NewWorkerPool(2, func(context.Context, []byte) error { return nil })
	wp.Start()
	wp.Stop()
	assert.ErrorIs(t, wp.SubmitKey("u", []byte("x")), ErrStopped)
}

func TestMetrics(t *testing.T) {
	rec := newRecorder(3)
	wp := NewWorkerPool(1, rec.handle)
	wp.Start()
	defer wp.Stop()

	require.NoError(t, wp.Submit([]byte("ok"), 0))
	require.NoError(t, wp.Submit([]byte("bad"), 0))
	require.NoError(t, wp.Submit([]byte("ok"), 0))
	rec.wait(t)

	// the handler returns before the counters are bumped
	require.Eventually(t, func() bool {
		m := wp.Metrics()
		return m.MessagesProcessed+m.MessagesFailed == 3
	}, time.Second, 5*time.Millisecond)

	rr := httptest.NewRecorder()
	wp.MetricsHandler(rr, httptest.NewRequest("GET", "/internal/metrics", nil))

	var m Metrics
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, uint64(2), m.MessagesProcessed)
	assert.Equal(t, uint64(1), m.MessagesFailed)
	assert.Equal(t, 1, m.ActiveWorkers)
	assert.Equal(t, []uint64{0}, m.BufferLevels)
}

func TestPublishProfileEvent(t *testing.T) {
	got := make(chan models.ProfileEvent, 1)
	wp := NewWorkerPool(2, func(_ context.Context, job []byte) error {
		var ev models.ProfileEvent
		if err := json.Unmarshal(job, &ev); err != nil {
			return err
		}
		got <- ev
		return nil
	})
	wp.Start()
	defer wp.Stop()

	require.NoError(t, wp.PublishProfileEvent(context.Background(), models.ProfileEvent{UserID: "u1", Version: 3}))
	select {
	case ev := <-got:
		assert.Equal(t, "u1", ev.UserID)
		assert.Equal(t, uint64(3), ev.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
