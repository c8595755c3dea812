package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/talgya/star-dominion/internal/civil"
	"github.com/talgya/star-dominion/internal/combat"
	"github.com/talgya/star-dominion/internal/economy"
	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/gameerr"
	"github.com/talgya/star-dominion/internal/influence"
	"github.com/talgya/star-dominion/internal/population"
	"github.com/talgya/star-dominion/internal/revolt"
	"github.com/talgya/star-dominion/internal/victory"
	"github.com/talgya/star-dominion/internal/wormhole"
)

// Phase names, used in transform errors and logs.
const (
	PhaseResources  = "resources"
	PhasePopulation = "population"
	PhaseCivil      = "civil_status"
	PhaseBuild      = "build_queue"
	PhaseWormholes  = "wormholes"
	PhaseCombat     = "combat"
	PhaseRevolt     = "revolt"
	PhaseVictory    = "victory"
)

// turn is the working set of one pipeline run. Phases mutate st, which is a
// clone of the loaded state, and record what happened.
type turn struct {
	num     int
	st      *game.State
	g       *galaxy.Graph
	entropy entropy.Factory

	before  map[string]game.Empire
	ledgers map[string]economy.Ledger

	events    []game.Event
	combats   []combat.Result
	consumed  []string
	history   []game.CivilStatusHistory
	defeated  []*game.Empire
	outcome   *victory.Outcome
	territory bool // Sectors changed hands this turn
}

type phase struct {
	name string
	run  func(t *turn) error
}

// pipeline is the fixed phase order. Each phase finishes for every empire
// before the next one starts.
var pipeline = []phase{
	{PhaseResources, (*turn).resources},
	{PhasePopulation, (*turn).population},
	{PhaseCivil, (*turn).civilStatus},
	{PhaseBuild, (*turn).buildQueue},
	{PhaseWormholes, (*turn).wormholes},
	{PhaseCombat, (*turn).combat},
	{PhaseRevolt, (*turn).revolt},
	{PhaseVictory, (*turn).victory},
}

func newTurn(st *game.State, factory entropy.Factory) *turn {
	t := &turn{
		num:     st.Game.CurrentTurn,
		st:      st,
		g:       st.Galaxy(),
		entropy: factory,
		before:  make(map[string]game.Empire, len(st.Empires)),
		ledgers: make(map[string]economy.Ledger, len(st.Empires)),
	}
	for _, e := range st.Empires {
		t.before[e.ID] = e
	}
	return t
}

// run executes every phase in order. The first failing phase aborts the
// turn with a transform error naming it.
func (t *turn) run() error {
	for _, p := range pipeline {
		if err := p.run(t); err != nil {
			return gameerr.Transform(p.name, err)
		}
	}
	return nil
}

func (t *turn) emit(empireID, category, format string, args ...any) {
	t.events = append(t.events, game.Event{
		Turn:        t.num,
		EmpireID:    empireID,
		Category:    category,
		Description: fmt.Sprintf(format, args...),
	})
}

func (t *turn) resources() error {
	for _, e := range t.st.LiveEmpires() {
		l := economy.Settle(e)
		t.ledgers[e.ID] = l
		if l.Delta.Credits < 0 {
			t.emit(e.ID, game.CategoryEconomy, "%s ran a deficit of %s credits", e.Name, humanize.Comma(-l.Delta.Credits))
		}
	}
	return nil
}

func (t *turn) population() error {
	for _, e := range t.st.LiveEmpires() {
		out, err := population.Apply(e, t.ledgers[e.ID].Production.Food)
		if err != nil {
			return err
		}
		if out.Status == game.PopulationStarvation {
			t.emit(e.ID, game.CategoryPopulation, "%s is starving: population fell from %s to %s",
				e.Name, humanize.Comma(out.Before), humanize.Comma(out.After))
		}
	}
	return nil
}

func (t *turn) civilStatus() error {
	for _, e := range t.st.LiveEmpires() {
		ch, ok := civil.Transition(e)
		if !ok {
			continue
		}
		t.history = append(t.history, game.CivilStatusHistory{
			GameID:   t.st.Game.ID,
			EmpireID: e.ID,
			Turn:     t.num,
			From:     ch.From,
			To:       ch.To,
			Reason:   ch.Reason,
		})
		t.emit(e.ID, game.CategoryCivil, "%s civil status %s -> %s (%s)", e.Name, ch.From, ch.To, ch.Reason)
	}
	return nil
}

func (t *turn) buildQueue() error {
	for _, item := range economy.AdvanceQueue(t.st) {
		t.emit(item.EmpireID, game.CategoryBuild, "%s %s delivered", humanize.Comma(item.Quantity), item.Unit)
	}
	for _, e := range t.st.LiveEmpires() {
		if gained := economy.AdvanceResearch(&e.Resources.ResearchPoints, &e.ResearchLevel); gained > 0 {
			t.emit(e.ID, game.CategoryResearch, "%s reached research level %d", e.Name, e.ResearchLevel)
		}
	}
	return nil
}

func (t *turn) wormholes() error {
	src := t.entropy(t.st.Game.Seed, t.num, entropy.StreamWormhole)
	t.events = append(t.events, wormhole.Process(t.st, t.g, t.num, src)...)
	return influence.RefreshCache(t.st, t.g, t.num)
}

func (t *turn) combat() error {
	src := t.entropy(t.st.Game.Seed, t.num, entropy.StreamCombat)
	var pending []game.AttackOrder
	for _, order := range t.st.Attacks {
		if order.Turn > t.num {
			pending = append(pending, order)
			continue
		}
		res, err := combat.Resolve(t.st, t.g, order, t.num, src)
		if err != nil {
			return fmt.Errorf("order %s: %w", order.ID, err)
		}
		t.consumed = append(t.consumed, order.ID)
		t.combats = append(t.combats, res)
		t.reportCombat(res)
	}
	t.st.Attacks = pending
	if t.territory {
		return influence.RefreshCache(t.st, t.g, t.num)
	}
	return nil
}

func (t *turn) reportCombat(res combat.Result) {
	attacker := t.name(res.AttackerID)
	defender := t.name(res.DefenderID)
	switch {
	case res.Rejected != "":
		t.emit(res.AttackerID, game.CategoryCombat, "Attack on %s called off: %s", defender, res.Rejected)
	case res.Victory:
		t.territory = t.territory || res.SectorsCaptured > 0
		t.emit(res.AttackerID, game.CategoryCombat, "Victory over %s: %d sectors captured", defender, res.SectorsCaptured)
		t.emit(res.DefenderID, game.CategoryCombat, "%s broke through our defenses and took %d sectors", attacker, res.SectorsCaptured)
	default:
		t.emit(res.AttackerID, game.CategoryCombat, "Attack on %s was repelled", defender)
		t.emit(res.DefenderID, game.CategoryCombat, "Repelled an attack by %s", attacker)
	}
}

func (t *turn) revolt() error {
	for _, e := range t.st.LiveEmpires() {
		out, ok := revolt.Apply(e)
		if !ok {
			continue
		}
		switch {
		case out.Defeated:
			t.emit(e.ID, game.CategoryRevolt, "%s collapsed into civil war", e.Name)
		case out.Calmed:
			t.emit(e.ID, game.CategoryRevolt, "Unrest in %s has subsided", e.Name)
		default:
			t.emit(e.ID, game.CategoryRevolt, "%s is in revolt (turn %d): production down %.0f%%",
				e.Name, out.Streak, out.Penalty*100)
		}
	}
	return nil
}

func (t *turn) victory() error {
	for _, e := range t.st.LiveEmpires() {
		if dt, ok := victory.EvaluateDefeat(e); ok {
			e.Defeat(dt)
		}
	}
	for i := range t.st.Empires {
		e := &t.st.Empires[i]
		e.Networth = victory.Networth(e)
		b := t.before[e.ID]
		if !e.Alive() && b.Alive() {
			t.defeated = append(t.defeated, e)
			t.emit(e.ID, game.CategoryDefeat, "%s has been defeated (%s)", e.Name, e.DefeatType)
		}
	}

	out, ok := victory.Evaluate(t.st, t.num)
	if !ok {
		return nil
	}
	victory.Apply(&t.st.Game, out)
	t.outcome = &out
	t.emit("", game.CategoryVictory, "%s", out.Announcement)
	return nil
}

func (t *turn) name(empireID string) string {
	if e, ok := t.st.Empire(empireID); ok {
		return e.Name
	}
	return empireID
}

// result assembles the TurnResult. Events with an empire go to that
// empire's summary; the rest are galaxy-wide.
func (t *turn) result() *TurnResult {
	res := &TurnResult{
		GameID:            t.st.Game.ID,
		Turn:              t.num,
		NextTurn:          t.st.Game.CurrentTurn,
		Events:            []game.Event{},
		Combats:           t.combats,
		EliminatedEmpires: []string{},
		Victory:           t.outcome,
	}
	if res.Combats == nil {
		res.Combats = []combat.Result{}
	}

	index := make(map[string]int, len(t.st.Empires))
	for _, e := range t.st.Empires {
		b := t.before[e.ID]
		if !b.Alive() {
			continue
		}
		index[e.ID] = len(res.Empires)
		res.Empires = append(res.Empires, EmpireTurnSummary{
			EmpireID:          e.ID,
			Name:              e.Name,
			ResourceDelta:     e.Resources.Sub(b.Resources),
			PopulationBefore:  b.Population,
			PopulationAfter:   e.Population,
			CivilStatusBefore: b.CivilStatus,
			CivilStatusAfter:  e.CivilStatus,
			Networth:          e.Networth,
			Events:            []game.Event{},
		})
	}
	for _, ev := range t.events {
		if i, ok := index[ev.EmpireID]; ok {
			res.Empires[i].Events = append(res.Empires[i].Events, ev)
			continue
		}
		res.Events = append(res.Events, ev)
	}
	for _, e := range t.defeated {
		res.EliminatedEmpires = append(res.EliminatedEmpires, e.Name)
	}
	return res
}

// writeSet collects the rows the turn changed.
func (t *turn) writeSet() WriteSet {
	return WriteSet{
		Game:              t.st.Game,
		ExpectedTurn:      t.num,
		Empires:           t.st.Empires,
		Connections:       t.st.Connections,
		Influence:         t.st.Influence,
		BuildQueue:        t.st.BuildQueue,
		ConsumedAttackIDs: t.consumed,
		History:           t.history,
	}
}
