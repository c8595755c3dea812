// Package engine runs the turn pipeline and the actions players take
// between turns, on top of a Repository and a per-game lock.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
	"github.com/talgya/star-dominion/internal/lock"
	"github.com/talgya/star-dominion/internal/metrics"
	"github.com/talgya/star-dominion/internal/notify"
	"github.com/talgya/star-dominion/internal/snapshot"
)

// Service is the turn scheduler and action gateway for every game in a
// repository.
type Service struct {
	repo      Repository
	locker    lock.Locker
	snapshots *snapshot.Store
	publisher notify.Publisher
	metrics   *metrics.Collector
	entropy   entropy.Factory
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	inflight sync.WaitGroup // Pending turn signals
}

// Option configures a Service.
type Option func(*Service)

// WithLocker replaces the in-process lock, e.g. with a valkey lock shared
// across processes.
func WithLocker(l lock.Locker) Option { return func(s *Service) { s.locker = l } }

// WithPublisher sets the turn-committed signal.
func WithPublisher(p notify.Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option { return func(s *Service) { s.metrics = m } }

// WithEntropy sets the randomness factory.
func WithEntropy(f entropy.Factory) Option { return func(s *Service) { s.entropy = f } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithClock sets the wall clock used for creation timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDs sets the generator for game, empire and order IDs.
func WithIDs(newID func() string) Option { return func(s *Service) { s.newID = newID } }

// NewService creates a Service over repo.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		locker:    lock.NewLocal(),
		snapshots: snapshot.NewStore(repo),
		publisher: notify.Nop{},
		entropy:   entropy.Seeded,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "engine")
	return s
}

// AdvanceTurn processes the game's current turn: all eight phases on a
// working copy, one atomic commit, then a best-effort snapshot and the
// turn-committed signal. Nothing is written if any phase fails.
func (s *Service) AdvanceTurn(ctx context.Context, gameID string) (*TurnResult, error) {
	start := s.now()
	res, err := s.advance(ctx, gameID)
	s.metrics.ObserveTurn(turnOutcome(err), s.now().Sub(start))
	return res, err
}

func (s *Service) advance(ctx context.Context, gameID string) (*TurnResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	loaded, err := s.repo.LoadState(ctx, gameID)
	if err != nil {
		return nil, wrapRepo("load state", err)
	}
	if loaded.Game.Status != game.StatusActive {
		return nil, gameerr.Validationf("game %s has ended", gameID)
	}
	if loaded.Game.CurrentTurn > loaded.Game.TurnLimit {
		return nil, gameerr.Validationf("game %s is past its turn limit (%d)", gameID, loaded.Game.TurnLimit)
	}

	st := loaded.Clone()
	st.Normalize()
	t := newTurn(st, s.entropy)
	if err := t.run(); err != nil {
		s.logger.Error("turn aborted", "game_id", gameID, "turn", t.num, "phase", gameerr.PhaseOf(err), "error", err)
		return nil, err
	}
	st.Game.CurrentTurn = t.num + 1

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.repo.CommitTurn(ctx, t.writeSet()); err != nil {
		return nil, wrapRepo("commit turn", err)
	}

	res := t.result()
	s.recordOutcome(t)
	logTurnReport(s.logger, st, res)

	if _, err := s.snapshots.Save(ctx, st); err != nil {
		res.SnapshotError = err.Error()
		s.metrics.SnapshotFailed()
		s.logger.Warn("snapshot failed", "game_id", gameID, "turn", t.num, "error", err)
	}
	s.publish(gameID, st.Game.CurrentTurn)
	return res, nil
}

func (s *Service) acquire(ctx context.Context, gameID string) (lock.Release, error) {
	release, err := s.locker.Acquire(ctx, gameID)
	if errors.Is(err, lock.ErrBusy) {
		return nil, gameerr.Conflictf("game %s is being processed by another writer", gameID)
	}
	if err != nil {
		return nil, gameerr.WrapExternal("acquire game lock", err)
	}
	return release, nil
}

// publish signals the next turn without holding up the caller. Close waits
// for signals still in flight.
func (s *Service) publish(gameID string, nextTurn int) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.TurnCommitted(ctx, gameID, nextTurn); err != nil {
			s.logger.Warn("turn signal failed", "game_id", gameID, "turn", nextTurn, "error", err)
		}
	}()
}

// Close waits for pending turn signals. Call it before closing the
// publisher's client.
func (s *Service) Close() error {
	s.inflight.Wait()
	return nil
}

func (s *Service) recordOutcome(t *turn) {
	for _, e := range t.defeated {
		s.metrics.EmpireDefeated(string(e.DefeatType))
	}
	for _, c := range t.combats {
		switch {
		case c.Rejected != "":
			s.metrics.Combat("rejected")
		case c.Victory:
			s.metrics.Combat("victory")
		default:
			s.metrics.Combat("repelled")
		}
	}
	if t.outcome != nil {
		s.metrics.GameWon(string(t.outcome.Type))
	}
}

func turnOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeCommitted
	}
	switch gameerr.KindOf(err) {
	case gameerr.KindValidation, gameerr.KindNotFound:
		return metrics.OutcomeRejected
	case gameerr.KindConflict:
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeFailed
	}
}

// wrapRepo keeps typed repository errors (not found, conflict) and marks
// everything else as a retryable storage failure.
func wrapRepo(message string, err error) error {
	var ge *gameerr.Error
	if errors.As(err, &ge) {
		return err
	}
	return gameerr.WrapExternal(message, err)
}
