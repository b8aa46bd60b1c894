package events

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/dmitrijs2005/fheregistry/internal/logging"
)

type Sink interface {
	Publish(ctx context.Context, e MessageCreated) error
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(l logging.Logger) *LogSink {
	return &LogSink{logger: l.With("module", "events")}
}

func (s *LogSink) Publish(ctx context.Context, e MessageCreated) error {
	data, err := e.Encode()
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "MessageCreated",
		"topic", Topic.Hex(),
		"message_id", e.MessageID,
		"sender", e.Sender.Hex(),
		"created_at", e.CreatedAt,
		"data", hex.EncodeToString(data))
	return nil
}

// Multi publishes to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e MessageCreated) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Feed fans events out to in-process subscribers. A subscriber whose
// buffer is full misses the event; Publish never blocks.
type Feed struct {
	mu     sync.Mutex
	subs   map[chan MessageCreated]struct{}
	buffer int
}

func NewFeed(buffer int) *Feed {
	if buffer < 1 {
		buffer = 1
	}
	return &Feed{subs: make(map[chan MessageCreated]struct{}), buffer: buffer}
}

// Subscribe returns a channel of future events and a cancel func that
// closes it.
func (f *Feed) Subscribe() (<-chan MessageCreated, func()) {
	ch := make(chan MessageCreated, f.buffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *Feed) Publish(ctx context.Context, e MessageCreated) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
	return nil
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
