package snapshot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
)

type fakeRepo struct {
	saves    map[string]game.GameSave
	replaced *game.State
	saveErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{saves: make(map[string]game.GameSave)}
}

func (r *fakeRepo) SaveGameSave(_ context.Context, save game.GameSave) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves[save.GameID] = save
	return nil
}

func (r *fakeRepo) GetGameSave(_ context.Context, gameID string) (game.GameSave, error) {
	save, ok := r.saves[gameID]
	if !ok {
		return game.GameSave{}, gameerr.NotFoundf("save for game %s", gameID)
	}
	return save, nil
}

func (r *fakeRepo) ReplaceState(_ context.Context, st *game.State) error {
	r.replaced = st
	return nil
}

func sampleState() *game.State {
	turn := 4
	st := &game.State{
		Game: game.Game{ID: "g1", Name: "Test", Seed: 9, CurrentTurn: 12, TurnLimit: 200, Status: game.StatusActive, ProtectionTurns: 20},
		Empires: []game.Empire{
			{ID: "a", GameID: "g1", Name: "Alpha", Type: game.EmpirePlayer, Population: 10_000, CivilStatus: game.CivilContent,
				Sectors: game.Sectors{Food: 3, Ore: 2}, Military: game.Military{Soldiers: 100}},
			{ID: "b", GameID: "g1", Name: "Beta", Type: game.EmpireBot, Population: 8_000, CivilStatus: game.CivilUnhappy},
		},
		Regions: []galaxy.Region{{ID: 1, GameID: "g1", Name: "Core", Type: galaxy.RegionCore}, {ID: 2, GameID: "g1", Name: "Rim", Type: galaxy.RegionRim}},
		Connections: []galaxy.Connection{{ID: 1, GameID: "g1", FromRegionID: 1, ToRegionID: 2, Type: galaxy.ConnWormhole,
			IsBidirectional: true, ForceMultiplier: 1, WormholeStatus: galaxy.WormholeDiscovered, DiscoveredAtTurn: &turn}},
		Influence: []game.EmpireInfluence{{EmpireID: "a", GameID: "g1", HomeRegionID: 2, PrimaryRegionID: 2, DirectNeighborIDs: []string{"b"}}},
	}
	return st
}

func TestEncodeDecodePreservesState(t *testing.T) {
	st := sampleState()
	payload, err := Encode(Serialize(st))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snap, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Version != Version || snap.GameID != "g1" || snap.Turn != 12 {
		t.Fatalf("unexpected header %+v", snap)
	}
	if !reflect.DeepEqual(snap.State, st) {
		t.Fatalf("state changed through snapshot:\n got %+v\nwant %+v", snap.State, st)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not zstd")); err == nil {
		t.Fatalf("expected error for garbage payload")
	}
}

func TestRestoreReplacesLiveState(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)
	ctx := context.Background()

	save, err := store.Save(ctx, sampleState())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if save.Turn != 12 || len(save.Payload) == 0 {
		t.Fatalf("unexpected save %+v", save)
	}

	snap, err := store.Restore(ctx, "g1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if repo.replaced == nil || repo.replaced.Game.CurrentTurn != 12 {
		t.Fatalf("live state not replaced")
	}
	if snap.State.Empires[0].Name != "Alpha" {
		t.Fatalf("unexpected empire order %+v", snap.State.Empires)
	}
}

func TestRestoreRejectsVersionMismatch(t *testing.T) {
	repo := newFakeRepo()
	store := NewStore(repo)
	ctx := context.Background()

	if _, err := store.Save(ctx, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	save := repo.saves["g1"]
	save.Version = "dominion-snapshot/v0"
	repo.saves["g1"] = save

	_, err := store.Restore(ctx, "g1")
	if gameerr.KindOf(err) != gameerr.KindFatal {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
	if repo.replaced != nil {
		t.Fatalf("live state must not change on a rejected snapshot")
	}
}

func TestRestoreRejectsCorruptPayload(t *testing.T) {
	repo := newFakeRepo()
	repo.saves["g1"] = game.GameSave{GameID: "g1", Version: Version, Turn: 3, Payload: []byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}}
	store := NewStore(repo)

	_, err := store.Restore(context.Background(), "g1")
	if gameerr.KindOf(err) != gameerr.KindFatal {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if repo.replaced != nil {
		t.Fatalf("live state must not change on a rejected snapshot")
	}
}

func TestRestoreMissingSave(t *testing.T) {
	store := NewStore(newFakeRepo())
	_, err := store.Restore(context.Background(), "nope")
	if gameerr.KindOf(err) != gameerr.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestSaveFailureIsExternal(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("disk full")
	_, err := NewStore(repo).Save(context.Background(), sampleState())
	if !gameerr.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
