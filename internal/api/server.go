// Package api serves games over HTTP. GET endpoints are public; POST
// endpoints require the admin bearer token when one is configured.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/talgya/star-dominion/internal/engine"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
	"github.com/talgya/star-dominion/internal/metrics"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes HTTP requests to the engine service.
type Server struct {
	svc      *engine.Service
	metrics  *metrics.Collector
	db       Pinger
	adminKey string
	log      *slog.Logger
	mux      *chi.Mux
}

// Config holds the optional collaborators of a Server.
type Config struct {
	Metrics  *metrics.Collector
	DB       Pinger
	AdminKey string // Empty leaves POST endpoints open
	Logger   *slog.Logger
}

// New builds the router.
func New(svc *engine.Service, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:      svc,
		metrics:  cfg.Metrics,
		db:       cfg.DB,
		adminKey: cfg.AdminKey,
		log:      logger.With("component", "api"),
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1/games", func(r chi.Router) {
		r.Get("/", s.handleListGames)
		r.With(s.adminOnly).Post("/", s.handleCreateGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Get("/empires/{empireID}/history", s.handleHistory)

			r.Group(func(r chi.Router) {
				r.Use(s.adminOnly)
				r.Post("/turns", s.handleAdvance)
				r.Post("/restore", s.handleRestore)
				r.Post("/empires/{empireID}/builds", s.handleQueueBuild)
				r.Post("/empires/{empireID}/attacks", s.handleQueueAttack)
				r.Post("/empires/{empireID}/wormholes/{connectionID}/stabilize", s.handleStabilize)
				r.Post("/empires/{empireID}/wormholes/{connectionID}/construct", s.handleConstruct)
			})
		})
	})
}

// adminOnly requires the admin bearer token when one is set.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey != "" {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.adminKey {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.svc.ListActiveGames(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if games == nil {
		games = []game.Game{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req engine.NewGame
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	st, err := s.svc.CreateGame(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.GetState(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.svc.History(r.Context(), chi.URLParam(r, "gameID"), chi.URLParam(r, "empireID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.AdvanceTurn(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.RestoreSnapshot(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": snap.GameID,
		"turn":    snap.Turn,
		"version": snap.Version,
	})
}

func (s *Server) handleQueueBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Unit     game.UnitKind `json:"unit"`
		Quantity int64         `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	item, err := s.svc.QueueBuild(r.Context(), chi.URLParam(r, "gameID"), chi.URLParam(r, "empireID"), req.Unit, req.Quantity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleQueueAttack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DefenderID string        `json:"defender_id"`
		Forces     game.Military `json:"forces"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	order, err := s.svc.QueueAttack(r.Context(), chi.URLParam(r, "gameID"), chi.URLParam(r, "empireID"), req.DefenderID, req.Forces)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleStabilize(w http.ResponseWriter, r *http.Request) {
	connID, ok := connectionID(w, r)
	if !ok {
		return
	}
	if err := s.svc.StabilizeWormhole(r.Context(), chi.URLParam(r, "gameID"), chi.URLParam(r, "empireID"), connID); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connection_id": connID, "status": "stabilized"})
}

func (s *Server) handleConstruct(w http.ResponseWriter, r *http.Request) {
	connID, ok := connectionID(w, r)
	if !ok {
		return
	}
	complete, err := s.svc.ConstructWormhole(r.Context(), chi.URLParam(r, "gameID"), chi.URLParam(r, "empireID"), connID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"connection_id": connID, "complete_turn": complete})
}

func connectionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "connectionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid connection id")
		return 0, false
	}
	return id, true
}

// fail maps an engine error to its HTTP status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	body := map[string]any{"error": err.Error(), "kind": gameerr.KindOf(err)}
	if phase := gameerr.PhaseOf(err); phase != "" {
		body["phase"] = phase
	}
	writeJSON(w, status, body)
}

// StatusOf returns the HTTP status for an error kind.
func StatusOf(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch gameerr.KindOf(err) {
	case gameerr.KindValidation:
		return http.StatusBadRequest
	case gameerr.KindNotFound:
		return http.StatusNotFound
	case gameerr.KindConflict:
		return http.StatusConflict
	case gameerr.KindExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
