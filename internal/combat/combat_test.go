package combat

import (
	"testing"

	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

func battlefield(attacker, defender game.Military) *game.State {
	return &game.State{
		Game:    game.Game{ID: "g", ProtectionTurns: 5},
		Regions: []galaxy.Region{{ID: 1, Name: "Aster"}},
		Empires: []game.Empire{
			{ID: "a", Military: attacker, Sectors: game.Sectors{Food: 10}},
			{ID: "d", Military: defender, Sectors: game.Sectors{Food: 12, Ore: 8}},
		},
		Influence: []game.EmpireInfluence{
			{EmpireID: "a", HomeRegionID: 1, PrimaryRegionID: 1},
			{EmpireID: "d", HomeRegionID: 1, PrimaryRegionID: 1},
		},
	}
}

func order(forces game.Military) game.AttackOrder {
	return game.AttackOrder{ID: "o1", AttackerID: "a", DefenderID: "d", Turn: 10, Forces: forces}
}

// even returns a source whose variance draw is exactly 1.0.
func even() entropy.Source { return &entropy.Fixed{Values: []float64{0.5}} }

func TestDecisiveVictoryCapturesTerritory(t *testing.T) {
	st := battlefield(game.Military{Soldiers: 1_000}, game.Military{Soldiers: 100})
	res, err := Resolve(st, st.Galaxy(), order(game.Military{Soldiers: 1_000}), 10, even())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Rejected != "" || !res.Victory || res.Ratio != 10 {
		t.Fatalf("unexpected result %+v", res)
	}
	// 20 sectors at the 15% cap.
	if res.SectorsCaptured != 3 {
		t.Fatalf("captured %d sectors, want 3", res.SectorsCaptured)
	}
	a, _ := st.Empire("a")
	d, _ := st.Empire("d")
	if a.Territory() != 13 || d.Territory() != 17 {
		t.Fatalf("territory a=%d d=%d", a.Territory(), d.Territory())
	}
	if a.Military.Soldiers != 950 || d.Military.Soldiers != 40 {
		t.Fatalf("losses wrong: a=%d d=%d", a.Military.Soldiers, d.Military.Soldiers)
	}
	if d.LastCasualtyRatio != MaxCasualty {
		t.Fatalf("defender casualty ratio = %.2f", d.LastCasualtyRatio)
	}
}

func TestFailedAttackTakesNothing(t *testing.T) {
	st := battlefield(game.Military{Soldiers: 50}, game.Military{Soldiers: 100})
	res, err := Resolve(st, st.Galaxy(), order(game.Military{Soldiers: 50}), 10, even())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Victory || res.SectorsCaptured != 0 {
		t.Fatalf("weaker attacker should not win: %+v", res)
	}
	a, _ := st.Empire("a")
	if a.Military.Soldiers != 30 || a.LastCasualtyRatio != 0.4 {
		t.Fatalf("attacker soldiers=%d ratio=%.2f", a.Military.Soldiers, a.LastCasualtyRatio)
	}
}

func TestIllegalAttackIsRejectedNotFailed(t *testing.T) {
	st := battlefield(game.Military{Soldiers: 1_000}, game.Military{Soldiers: 1})
	res, err := Resolve(st, st.Galaxy(), order(game.Military{Soldiers: 1_000}), 3, even())
	if err != nil {
		t.Fatalf("protection should reject, not error: %v", err)
	}
	if res.Rejected == "" {
		t.Fatalf("expected rejection during protection")
	}
	a, _ := st.Empire("a")
	if a.Military.Soldiers != 1_000 {
		t.Fatalf("rejected order must not cost units")
	}
}

func TestCommittedForcesClampToAvailable(t *testing.T) {
	st := battlefield(game.Military{Soldiers: 10}, game.Military{})
	res, err := Resolve(st, st.Galaxy(), order(game.Military{Soldiers: 5_000}), 10, even())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.AttackPower != 10 || res.Ratio != MaxRatio || !res.Victory {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNoForcesRejected(t *testing.T) {
	st := battlefield(game.Military{CovertAgents: 10}, game.Military{})
	res, _ := Resolve(st, st.Galaxy(), order(game.Military{CovertAgents: 10}), 10, even())
	if res.Rejected != ErrNoForces.Error() {
		t.Fatalf("expected no-forces rejection, got %+v", res)
	}
}

func TestCaptureShareBounds(t *testing.T) {
	prev := 0.0
	for r := 1.0; r < 5; r += 0.1 {
		s := CaptureShare(r)
		if s < MinCapture || s > MaxCapture || s < prev {
			t.Fatalf("share %.3f at ratio %.1f", s, r)
		}
		prev = s
	}
}
