package revolt

import (
	"testing"

	"github.com/talgya/star-dominion/internal/game"
)

func TestEscalation(t *testing.T) {
	e := &game.Empire{
		CivilStatus: game.CivilRevolting,
		Military:    game.Military{Soldiers: 1_000, Carriers: 9},
	}

	out, _ := Apply(e)
	if out.Streak != 1 || e.RevoltPenalty != FirstTurnPenalty || out.Losses != (game.Military{}) {
		t.Fatalf("turn 1: %+v", out)
	}
	if e.Military.Soldiers != 1_000 {
		t.Fatalf("turn 1 unrest must not cost units")
	}

	out, _ = Apply(e)
	if out.Streak != 2 || e.RevoltPenalty != SecondTurnPenalty {
		t.Fatalf("turn 2: %+v", out)
	}
	if e.Military.Soldiers != 900 || e.Military.Carriers != 9 {
		t.Fatalf("turn 2 losses wrong: %+v", e.Military)
	}
	if !e.Alive() {
		t.Fatalf("turn 2 must not defeat")
	}

	out, _ = Apply(e)
	if !out.Defeated || e.Alive() || e.DefeatType != game.DefeatCivilWar || e.RevoltPenalty != 1.0 {
		t.Fatalf("turn 3 must end in civil war: %+v", e)
	}
}

func TestCalmResetsStreak(t *testing.T) {
	e := &game.Empire{CivilStatus: game.CivilRioting, UnrestTurns: 2, RevoltPenalty: SecondTurnPenalty}
	out, changed := Apply(e)
	if !changed || !out.Calmed || e.UnrestTurns != 0 || e.RevoltPenalty != 0 {
		t.Fatalf("leaving revolt should reset: %+v %+v", out, e)
	}
	if _, changed := Apply(e); changed {
		t.Fatalf("calm empire should report no change")
	}
}
