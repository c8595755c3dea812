package victory

import (
	"strings"
	"testing"

	"github.com/talgya/star-dominion/internal/game"
)

func TestEvaluateDefeat(t *testing.T) {
	cases := []struct {
		name   string
		empire game.Empire
		want   game.DefeatType
		ok     bool
	}{
		{
			name:   "no territory with a fortune",
			empire: game.Empire{Resources: game.Resources{Credits: 9_000_000}},
			want:   game.DefeatElimination,
			ok:     true,
		},
		{
			name:   "broke and bleeding",
			empire: game.Empire{Sectors: game.Sectors{Food: 3}, LastNetCredits: -200},
			want:   game.DefeatBankruptcy,
			ok:     true,
		},
		{
			name:   "broke but earning",
			empire: game.Empire{Sectors: game.Sectors{Food: 3}, LastNetCredits: 500},
		},
		{
			name:   "losing money with reserves",
			empire: game.Empire{Sectors: game.Sectors{Food: 3}, Resources: game.Resources{Credits: 10}, LastNetCredits: -200},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := tc.empire
			got, ok := EvaluateDefeat(&e)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("got %q %v, want %q %v", got, ok, tc.want, tc.ok)
			}
			if e.Alive() == tc.ok {
				t.Fatalf("alive = %v after defeat=%v", e.Alive(), tc.ok)
			}
		})
	}
}

func TestNetworth(t *testing.T) {
	e := &game.Empire{
		Sectors:    game.Sectors{Food: 2, Urban: 1},
		Population: 10_000,
		Resources:  game.Resources{Credits: 50_000},
		Military:   game.Military{Soldiers: 100, Carriers: 2},
	}
	want := int64(3*500 + 1_000 + 500 + 100 + 100)
	if got := Networth(e); got != want {
		t.Fatalf("networth = %d, want %d", got, want)
	}
}

func state(turn int, empires ...game.Empire) *game.State {
	st := &game.State{
		Game:    game.Game{ID: "g", ProtectionTurns: 5, TurnLimit: 100, CurrentTurn: turn, Status: game.StatusActive},
		Empires: empires,
	}
	for i := range st.Empires {
		st.Empires[i].Networth = Networth(&st.Empires[i])
	}
	return st
}

func TestVictoryPriority(t *testing.T) {
	cases := []struct {
		name   string
		turn   int
		st     func(turn int) *game.State
		want   game.VictoryType
		winner string
		ended  bool
	}{
		{
			name: "last empire standing",
			turn: 10,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 1}},
					game.Empire{ID: "b", Name: "B", IsEliminated: true})
			},
			want: game.VictoryElimination, winner: "a", ended: true,
		},
		{
			name: "conquest beats economic",
			turn: 10,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 60}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 40}, Resources: game.Resources{Credits: 100_000_000}})
			},
			want: game.VictoryConquest, winner: "a", ended: true,
		},
		{
			name: "defeated empires still count toward conquest",
			turn: 10,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 6}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 4}},
					game.Empire{ID: "c", Name: "C", Sectors: game.Sectors{Food: 10}, IsEliminated: true, DefeatType: game.DefeatCivilWar})
			},
		},
		{
			name: "conquest over all territory",
			turn: 10,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 12}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 4}},
					game.Empire{ID: "c", Name: "C", Sectors: game.Sectors{Food: 4}, IsEliminated: true, DefeatType: game.DefeatCivilWar})
			},
			want: game.VictoryConquest, winner: "a", ended: true,
		},
		{
			name: "economic after protection",
			turn: 10,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 10}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 10}, Resources: game.Resources{Credits: 10_000_000}},
					game.Empire{ID: "c", Name: "C", Sectors: game.Sectors{Food: 10}})
			},
			want: game.VictoryEconomic, winner: "b", ended: true,
		},
		{
			name: "no economic win during protection",
			turn: 5,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 10}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 10}, Resources: game.Resources{Credits: 10_000_000}},
					game.Empire{ID: "c", Name: "C", Sectors: game.Sectors{Food: 10}})
			},
		},
		{
			name: "player defeat",
			turn: 10,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 10}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 10}},
					game.Empire{ID: "p", Name: "P", Type: game.EmpirePlayer, IsEliminated: true, DefeatType: game.DefeatBankruptcy})
			},
			want: game.VictoryDefeat, winner: "a", ended: true,
		},
		{
			name: "turn limit",
			turn: 100,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 10}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 11}})
			},
			want: game.VictoryTurnLimit, winner: "b", ended: true,
		},
		{
			name: "game continues",
			turn: 50,
			st: func(turn int) *game.State {
				return state(turn,
					game.Empire{ID: "a", Name: "A", Sectors: game.Sectors{Food: 10}},
					game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 11}})
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := tc.st(tc.turn)
			out, ended := Evaluate(st, tc.turn)
			if ended != tc.ended {
				t.Fatalf("ended = %v, want %v (%+v)", ended, tc.ended, out)
			}
			if !ended {
				return
			}
			if out.Type != tc.want || out.WinnerEmpireID != tc.winner {
				t.Fatalf("got %s/%s, want %s/%s", out.Type, out.WinnerEmpireID, tc.want, tc.winner)
			}
			Apply(&st.Game, out)
			if st.Game.Status != game.StatusEnded || *st.Game.VictoryType != tc.want || *st.Game.WinnerEmpireID != tc.winner {
				t.Fatalf("game not ended: %+v", st.Game)
			}
		})
	}
}

func TestConquestAnnouncement(t *testing.T) {
	st := state(10,
		game.Empire{ID: "a", Name: "Vel Hegemony", Sectors: game.Sectors{Food: 70}},
		game.Empire{ID: "b", Name: "B", Sectors: game.Sectors{Food: 30}})
	out, _ := Evaluate(st, 10)
	if !strings.Contains(out.Announcement, "Vel Hegemony controls 70% of the galaxy") {
		t.Fatalf("announcement = %q", out.Announcement)
	}
}
