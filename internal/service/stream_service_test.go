package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tracehub/internal/model"
	storemodel "tracehub/pkg/store/mysql/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpdateSource serves scripted update batches to the stream.
type fakeUpdateSource struct {
	mu      sync.Mutex
	updates []*storemodel.JobUpdate
	err     error
}

func (f *fakeUpdateSource) ListAfter(_ context.Context, jobID string, afterSeq int64, _ int) ([]*storemodel.JobUpdate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*storemodel.JobUpdate
	for _, u := range f.updates {
		if u.JobID == jobID && u.Seq > afterSeq {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUpdateSource) SeqBefore(_ context.Context, jobID string, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seq int64
	for _, u := range f.updates {
		if u.JobID == jobID && u.EventTime.Before(since) && u.Seq > seq {
			seq = u.Seq
		}
	}
	return seq, nil
}

func (f *fakeUpdateSource) append(u *storemodel.JobUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
}

func (f *fakeUpdateSource) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newTestStream(source updateSource) *StreamService {
	s := NewStreamService(source)
	s.pollInterval = time.Millisecond
	return s
}

func collect(t *testing.T, events <-chan *model.StreamEvent, n int) []*model.StreamEvent {
	t.Helper()
	var out []*model.StreamEvent
	deadline := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("stream closed after %d of %d events", len(out), n)
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestStreamEmitsUpdatesInOrder(t *testing.T) {
	source := &fakeUpdateSource{}
	now := time.Now().UTC()
	for i := int64(1); i <= 3; i++ {
		source.append(&storemodel.JobUpdate{
			Seq:          i,
			JobID:        "job-1",
			DeviceID:     "dev-1",
			DeviceSerial: "RFCX20AB1CD",
			Status:       "running",
			EventTime:    now,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := newTestStream(source).Subscribe(ctx, "job-1", 0)
	got := collect(t, events, 3)

	for i, ev := range got {
		assert.Equal(t, model.StreamEventUpdate, ev.Type)
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, "dev-1", ev.DeviceID)
		assert.Equal(t, "RFCX20AB1CD", ev.DeviceSerial)
	}

	// The serial must survive into the wire frame, not just the struct.
	frame, err := json.Marshal(got[0])
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"device_serial":"RFCX20AB1CD"`)
}

func TestStreamCursorNeverRepeats(t *testing.T) {
	source := &fakeUpdateSource{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := newTestStream(source).Subscribe(ctx, "job-1", 0)

	// Events arriving while the stream is already polling must each be
	// delivered exactly once, in seq order.
	go func() {
		for i := int64(1); i <= 5; i++ {
			source.append(&storemodel.JobUpdate{
				Seq:       i,
				JobID:     "job-1",
				Status:    "running",
				EventTime: time.Now().UTC(),
			})
			time.Sleep(3 * time.Millisecond)
		}
	}()

	var lastSeq int64
	seen := 0
	deadline := time.After(2 * time.Second)
	for seen < 5 {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed early")
			if ev.Type != model.StreamEventUpdate {
				continue
			}
			assert.Greater(t, ev.Seq, lastSeq, "cursor must be strictly increasing")
			lastSeq = ev.Seq
			seen++
		case <-deadline:
			t.Fatalf("timed out after %d of 5 updates", seen)
		}
	}
}

func TestStreamSkipsReplayedEvents(t *testing.T) {
	source := &fakeUpdateSource{}
	now := time.Now().UTC()
	for i := int64(1); i <= 4; i++ {
		source.append(&storemodel.JobUpdate{
			Seq:       i,
			JobID:     "job-1",
			Status:    "running",
			EventTime: now,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := newTestStream(source).Subscribe(ctx, "job-1", 2)
	got := collect(t, events, 2)
	assert.Equal(t, int64(3), got[0].Seq)
	assert.Equal(t, int64(4), got[1].Seq)
}

func TestStreamClosesAfterIdleHeartbeats(t *testing.T) {
	source := &fakeUpdateSource{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := newTestStream(source).Subscribe(ctx, "job-1", 0)

	heartbeats := 0
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// One heartbeat per empty poll, then the stream closes once
				// the idle budget is spent.
				assert.Equal(t, maxIdleHeartbeats, heartbeats)
				return
			}
			require.Equal(t, model.StreamEventHeartbeat, ev.Type)
			heartbeats++
		case <-deadline:
			t.Fatalf("stream did not close, saw %d heartbeats", heartbeats)
		}
	}
}

func TestStreamEmitsErrorFrameAndCloses(t *testing.T) {
	source := &fakeUpdateSource{}
	source.fail(errors.New("connection refused"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := newTestStream(source).Subscribe(ctx, "job-1", 0)
	got := collect(t, events, 1)
	assert.Equal(t, model.StreamEventError, got[0].Type)
	assert.NotEmpty(t, got[0].Message)

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should close after error frame")
	case <-time.After(time.Second):
		t.Fatal("channel did not close after error frame")
	}
}

func TestStreamStopsOnContextCancel(t *testing.T) {
	source := &fakeUpdateSource{}
	ctx, cancel := context.WithCancel(context.Background())

	events := newTestStream(source).Subscribe(ctx, "job-1", 0)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close on cancel")
		}
	}
}
