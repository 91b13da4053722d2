package analytics

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Event names
const (
	AnimationCreateAttempt = "animation_create_attempt"
	AnimationCreated       = "animation_created"
	AnimationCreationError = "animation_creation_error"
	AnimationFixed         = "animation_fixed"
	AnimationFixFailed     = "animation_fix_failed"
	AnimationShareAttempt  = "animation_share_attempt"
	AnimationShared        = "animation_shared"
	AnimationShareError    = "animation_share_error"
	AnimationLoaded        = "animation_loaded"
	FeedPageVisit          = "feed_page_visit"
	RandomAnimationLoaded  = "random_animation_loaded"
	FeedLoadError          = "feed_load_error"
	MoodSubmitted          = "mood_submitted"
)

// Event is one tracked occurrence.
type Event struct {
	Name     string         `json:"event"`
	Time     time.Time      `json:"time"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Sink receives events on the tracker's worker goroutine.
type Sink interface {
	Write(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Write(e Event) error { return f(e) }

// Counter counts events by name.
type Counter interface {
	RecordEvent(event string)
}

// Tracker queues events and delivers them to its sinks without blocking the
// caller. Events that do not fit the buffer are dropped.
type Tracker struct {
	events chan Event
	sinks  []Sink
	log    *logging.Logger
	now    func() time.Time
	done   chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// New starts a tracker delivering to sinks.
func New(log *logging.Logger, buffer int, sinks ...Sink) *Tracker {
	if buffer <= 0 {
		buffer = 256
	}
	t := &Tracker{
		events: make(chan Event, buffer),
		sinks:  sinks,
		log:    logging.OrNop(log).Named("analytics"),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Track queues an event. It never blocks and never fails.
func (t *Tracker) Track(name string, metadata map[string]any) {
	if t == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.events <- Event{Name: name, Time: t.now(), Metadata: metadata}:
	default:
		t.dropped.Add(1)
	}
}

// Dropped returns how many events did not fit the buffer.
func (t *Tracker) Dropped() int64 {
	return t.dropped.Load()
}

// Close delivers queued events and stops the worker.
func (t *Tracker) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Tracker) run() {
	defer close(t.done)
	for e := range t.events {
		for _, s := range t.sinks {
			if err := s.Write(e); err != nil {
				t.log.Debug("analytics sink failed", zap.String("event", e.Name), zap.Error(err))
			}
		}
	}
}

// LogSink writes events to the logger.
func LogSink(log *logging.Logger) Sink {
	log = logging.OrNop(log).Named("event")
	return SinkFunc(func(e Event) error {
		fields := []zap.Field{zap.String("event", e.Name), zap.Time("at", e.Time)}
		if len(e.Metadata) > 0 {
			fields = append(fields, zap.Any("metadata", e.Metadata))
		}
		log.Info("analytics event", fields...)
		return nil
	})
}

// CounterSink counts events.
func CounterSink(c Counter) Sink {
	return SinkFunc(func(e Event) error {
		c.RecordEvent(e.Name)
		return nil
	})
}

// JSONLinesSink writes one JSON document per event to w.
func JSONLinesSink(w io.Writer) Sink {
	var mu sync.Mutex
	return SinkFunc(func(e Event) error {
		data, err := sonic.Marshal(e)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		_, err = w.Write(append(data, '\n'))
		return err
	})
}
