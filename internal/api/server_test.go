package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/talgya/star-dominion/internal/engine"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
	"github.com/talgya/star-dominion/internal/metrics"
	"github.com/talgya/star-dominion/internal/persistence/memstore"
)

func testServer(t *testing.T, adminKey string) *httptest.Server {
	t.Helper()
	var n atomic.Int64
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	svc := engine.NewService(memstore.New(),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithIDs(func() string { return fmt.Sprintf("id-%04d", n.Add(1)) }),
		engine.WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	srv := httptest.NewServer(New(svc, Config{Metrics: m, AdminKey: adminKey, Logger: logger}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(b, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", path, err, b)
		}
	}
	return resp.StatusCode
}

func createGame(t *testing.T, srv *httptest.Server) *game.State {
	t.Helper()
	var st game.State
	code := do(t, srv, http.MethodPost, "/api/v1/games", `{"name":"Api","empires":4,"seed":7}`, &st)
	if code != http.StatusCreated {
		t.Fatalf("create game: status %d", code)
	}
	return &st
}

func TestGameLifecycle(t *testing.T) {
	srv := testServer(t, "secret")
	st := createGame(t, srv)

	var list struct {
		Games []game.Game `json:"games"`
	}
	if code := do(t, srv, http.MethodGet, "/api/v1/games", "", &list); code != http.StatusOK || len(list.Games) != 1 {
		t.Fatalf("list: %d %+v", code, list)
	}

	var res engine.TurnResult
	if code := do(t, srv, http.MethodPost, "/api/v1/games/"+st.Game.ID+"/turns", "", &res); code != http.StatusOK {
		t.Fatalf("advance: status %d", code)
	}
	if res.Turn != 1 || res.NextTurn != 2 || len(res.Empires) != 4 {
		t.Fatalf("unexpected result %+v", res)
	}

	var got game.State
	if code := do(t, srv, http.MethodGet, "/api/v1/games/"+st.Game.ID, "", &got); code != http.StatusOK {
		t.Fatalf("state: status %d", code)
	}
	if got.Game.CurrentTurn != 2 {
		t.Fatalf("current turn = %d", got.Game.CurrentTurn)
	}

	var snap map[string]any
	if code := do(t, srv, http.MethodPost, "/api/v1/games/"+st.Game.ID+"/restore", "", &snap); code != http.StatusOK {
		t.Fatalf("restore: status %d", code)
	}
	if snap["turn"] != float64(2) {
		t.Fatalf("restored turn = %v", snap["turn"])
	}
}

func TestQueueBuild(t *testing.T) {
	srv := testServer(t, "secret")
	st := createGame(t, srv)
	path := "/api/v1/games/" + st.Game.ID + "/empires/" + st.Empires[0].ID + "/builds"

	var item game.BuildQueueItem
	if code := do(t, srv, http.MethodPost, path, `{"unit":"soldier","quantity":5}`, &item); code != http.StatusCreated {
		t.Fatalf("queue build: status %d", code)
	}
	if item.Quantity != 5 || item.Unit != game.UnitSoldier {
		t.Fatalf("unexpected item %+v", item)
	}
	if code := do(t, srv, http.MethodPost, path, `{"unit":"dreadnought","quantity":5}`, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown unit: status %d, want 400", code)
	}
	if code := do(t, srv, http.MethodPost, path, `{"unit":`, nil); code != http.StatusBadRequest {
		t.Fatalf("bad body: status %d, want 400", code)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := testServer(t, "secret")
	st := createGame(t, srv)

	if code := do(t, srv, http.MethodGet, "/api/v1/games/missing", "", nil); code != http.StatusNotFound {
		t.Fatalf("missing game: status %d", code)
	}
	attack := fmt.Sprintf(`{"defender_id":%q,"forces":{"soldiers":10}}`, st.Empires[1].ID)
	path := "/api/v1/games/" + st.Game.ID + "/empires/" + st.Empires[0].ID + "/attacks"
	if code := do(t, srv, http.MethodPost, path, attack, nil); code != http.StatusBadRequest {
		t.Fatalf("attack during protection: status %d, want 400", code)
	}
	path = "/api/v1/games/" + st.Game.ID + "/empires/" + st.Empires[0].ID + "/wormholes/abc/stabilize"
	if code := do(t, srv, http.MethodPost, path, "", nil); code != http.StatusBadRequest {
		t.Fatalf("bad connection id: status %d", code)
	}
}

func TestAdminKeyRequired(t *testing.T) {
	srv := testServer(t, "secret")
	resp, err := srv.Client().Post(srv.URL+"/api/v1/games", "application/json", bytes.NewBufferString(`{"empires":2}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := testServer(t, "")
	if code := do(t, srv, http.MethodGet, "/healthz", "", nil); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(b), "dominion_turn_duration_seconds") {
		t.Fatalf("metrics exposition missing turn histogram")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{gameerr.Validationf("bad"), http.StatusBadRequest},
		{gameerr.NotFoundf("gone"), http.StatusNotFound},
		{gameerr.Conflictf("busy"), http.StatusConflict},
		{gameerr.WrapExternal("db", io.ErrUnexpectedEOF), http.StatusServiceUnavailable},
		{gameerr.WrapFatal("snapshot", io.ErrUnexpectedEOF), http.StatusInternalServerError},
		{gameerr.Transform("combat", io.ErrUnexpectedEOF), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Fatalf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
