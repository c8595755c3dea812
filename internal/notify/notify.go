// Package notify signals out-of-process workers that a turn was committed,
// so bot decisions for the next turn can be precomputed.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/valkey-io/valkey-go"
)

// Publisher announces committed turns. Failures never affect the turn.
type Publisher interface {
	TurnCommitted(ctx context.Context, gameID string, turn int) error
}

// Nop discards every signal.
type Nop struct{}

// TurnCommitted does nothing.
func (Nop) TurnCommitted(context.Context, string, int) error { return nil }

// StreamConfig selects the target stream.
type StreamConfig struct {
	Stream string
	MaxLen int64 // Approximate cap on stream length; 0 disables trimming
}

// Stream publishes turn-committed messages with XADD.
type Stream struct {
	client valkey.Client
	logger *slog.Logger
	cfg    StreamConfig
}

// NewStream creates a stream publisher.
func NewStream(client valkey.Client, logger *slog.Logger, cfg StreamConfig) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{client: client, logger: logger.With("component", "notify"), cfg: cfg}
}

// TurnCommitted appends {game_id, turn} to the stream.
func (s *Stream) TurnCommitted(ctx context.Context, gameID string, turn int) error {
	var args []string
	if s.cfg.MaxLen > 0 {
		args = append(args, "MAXLEN", "~", strconv.FormatInt(s.cfg.MaxLen, 10))
	}
	args = append(args, "*", "game_id", gameID, "turn", strconv.Itoa(turn))

	cmd := s.client.B().Arbitrary("XADD").Keys(s.cfg.Stream).Args(args...).Build()
	id, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		return fmt.Errorf("xadd stream=%s: %w", s.cfg.Stream, err)
	}
	s.logger.Debug("turn committed published", "stream", s.cfg.Stream, "id", id, "game_id", gameID, "turn", turn)
	return nil
}
