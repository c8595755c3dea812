package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talgya/star-dominion/internal/gameerr"
)

// Outcome is the result of advancing one game in a batch.
type Outcome struct {
	GameID string
	Result *TurnResult
	Err    error
}

// AdvanceAll advances every active game by one turn, at most limit games at
// a time. Games are independent: one game's failure never stops another,
// and games locked by another writer are skipped.
func (s *Service) AdvanceAll(ctx context.Context, limit int) ([]Outcome, error) {
	games, err := s.ListActiveGames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Outcome, len(games))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, gm := range games {
		g.Go(func() error {
			res, err := s.AdvanceTurn(ctx, gm.ID)
			out[i] = Outcome{GameID: gm.ID, Result: res, Err: err}
			switch {
			case err == nil:
			case gameerr.KindOf(err) == gameerr.KindConflict:
				s.logger.Debug("game busy, skipped", "game_id", gm.ID)
			default:
				s.logger.Error("advance failed", "game_id", gm.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// Worker advances every active game on a fixed interval.
type Worker struct {
	Service     *Service
	Interval    time.Duration // Wall time between turns
	Concurrency int           // Games processed in parallel; 0 means unlimited
	Logger      *slog.Logger
}

// Run blocks, advancing all games once immediately and then on every tick,
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("turn worker started", "interval", w.Interval, "concurrency", w.Concurrency)

	w.cycle(ctx, logger)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.cycle(ctx, logger)
		case <-ctx.Done():
			logger.Info("turn worker stopped")
			return nil
		}
	}
}

func (w *Worker) cycle(ctx context.Context, logger *slog.Logger) {
	start := time.Now()
	outcomes, err := w.Service.AdvanceAll(ctx, w.Concurrency)
	if err != nil {
		logger.Error("list games failed", "error", err)
		return
	}
	advanced, ended := 0, 0
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		advanced++
		if o.Result.Ended() {
			ended++
		}
	}
	logger.Info("worker cycle",
		"games", len(outcomes),
		"advanced", advanced,
		"ended", ended,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}
