package service

import (
	"context"
	"time"

	"tracehub/internal/model"
	"tracehub/pkg/logger"
	storemodel "tracehub/pkg/store/mysql/model"
)

const (
	// streamPollInterval how often the stream polls for new events.
	streamPollInterval = time.Second

	// maxIdleHeartbeats consecutive empty polls before the stream closes on
	// its own. At a one second poll this is about five minutes of silence.
	maxIdleHeartbeats = 60

	streamBatchLimit = 500
)

// updateSource is the slice of the update repository the stream needs.
type updateSource interface {
	ListAfter(ctx context.Context, jobID string, afterSeq int64, limit int) ([]*storemodel.JobUpdate, error)
	SeqBefore(ctx context.Context, jobID string, since time.Time) (int64, error)
}

// StreamService turns the append-only job_updates table into live event
// streams. Each subscriber polls independently with its own cursor; there is
// no fan-out state on the server, so any instance can serve any stream.
type StreamService struct {
	source       updateSource
	pollInterval time.Duration
}

// NewStreamService creates a stream service
func NewStreamService(source updateSource) *StreamService {
	return &StreamService{
		source:       source,
		pollInterval: streamPollInterval,
	}
}

// ResolveSince maps a wall-clock replay point onto a stream cursor. Events
// at or after since are replayed; 0 means replay from the beginning.
func (s *StreamService) ResolveSince(ctx context.Context, jobID string, since time.Time) (int64, error) {
	return s.source.SeqBefore(ctx, jobID, since)
}

// Subscribe streams events for a job starting strictly after sinceSeq. The
// channel closes when ctx is cancelled, after a read error (final frame is an
// error event), or after maxIdleHeartbeats consecutive empty polls. The
// cursor only moves forward, so no event is ever emitted twice.
func (s *StreamService) Subscribe(ctx context.Context, jobID string, sinceSeq int64) <-chan *model.StreamEvent {
	events := make(chan *model.StreamEvent, 64)

	go func() {
		defer close(events)

		cursor := sinceSeq
		idleHeartbeats := 0

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			updates, err := s.source.ListAfter(ctx, jobID, cursor, streamBatchLimit)
			if err != nil {
				logger.WarnCtx(ctx, "stream for job %s stopping: %v", jobID, err)
				s.emit(ctx, events, &model.StreamEvent{
					Type:    model.StreamEventError,
					Message: "failed to read job updates",
				})
				return
			}

			if len(updates) == 0 {
				if !s.emit(ctx, events, &model.StreamEvent{Type: model.StreamEventHeartbeat}) {
					return
				}
				idleHeartbeats++
				if idleHeartbeats >= maxIdleHeartbeats {
					logger.InfoCtx(ctx, "stream for job %s idle after %d heartbeats, closing", jobID, idleHeartbeats)
					return
				}
				continue
			}

			idleHeartbeats = 0
			for _, u := range updates {
				ev := &model.StreamEvent{
					Type:         model.StreamEventUpdate,
					DeviceID:     u.DeviceID,
					DeviceSerial: u.DeviceSerial,
					Status:       u.Status,
					Message:      u.Message,
					TraceID:      u.TraceID,
					Timestamp:    u.EventTime.UTC().Format(time.RFC3339Nano),
					Seq:          u.Seq,
				}
				if !s.emit(ctx, events, ev) {
					return
				}
				cursor = u.Seq
			}
		}
	}()

	return events
}

func (s *StreamService) emit(ctx context.Context, events chan<- *model.StreamEvent, ev *model.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
