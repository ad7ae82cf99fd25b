package listing

import (
	"context"
	"time"

	"snatcher/internal/logger"
	"snatcher/internal/types"

	"github.com/gorilla/websocket"
)

const (
	readTimeout      = 60 * time.Second
	reconnectBackoff = 3 * time.Second
)

// Sink receives decoded candidates; the engine implements it.
type Sink interface {
	SubmitListing(c types.ListingCandidate)
}

// Scanner consumes a websocket stream of launch events and forwards every
// event that survives schema validation to the sink. Connection drops are
// retried with a fixed backoff until the context is cancelled.
type Scanner struct {
	url  string
	sink Sink
}

func NewScanner(url string, sink Sink) *Scanner {
	return &Scanner{url: url, sink: sink}
}

// Run blocks until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warnf("scanner: stream error: %v, reconnecting in %s", err, reconnectBackoff)
		}
		select {
		case <-time.After(reconnectBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scanner) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Infof("scanner: connected to %s", s.url)

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		candidate, err := Decode(payload)
		if err != nil {
			logger.Warnf("scanner: dropping event: %v", err)
			continue
		}
		s.sink.SubmitListing(candidate)
	}
}
