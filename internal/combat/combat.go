// Package combat resolves queued attack orders between empires.
package combat

import (
	"errors"
	"math"

	"github.com/talgya/star-dominion/internal/entropy"
	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
	"github.com/talgya/star-dominion/internal/influence"
)

const (
	MinCapture      = 0.05 // Share of defender territory taken on a narrow win
	MaxCapture      = 0.15
	CapturePerRatio = 0.10 // Extra share per point of power ratio above 1
	BaseCasualty    = 0.20
	MinCasualty     = 0.05
	MaxCasualty     = 0.60
	MaxRatio        = 3.0 // Ratio used when the defender has no power at all
	VarianceSpread  = 0.2 // Power is scaled by a draw in [0.9, 1.1)
)

var attackWeights = map[game.UnitKind]float64{
	game.UnitSoldier:      1,
	game.UnitFighter:      3,
	game.UnitLightCruiser: 5,
	game.UnitHeavyCruiser: 8,
	game.UnitCarrier:      12,
}

// Stations only defend. Covert agents never fight.
var defenseWeights = map[game.UnitKind]float64{
	game.UnitSoldier:      1,
	game.UnitFighter:      3,
	game.UnitStation:      6,
	game.UnitLightCruiser: 5,
	game.UnitHeavyCruiser: 8,
	game.UnitCarrier:      12,
}

// ErrNoForces rejects an order that commits no usable units.
var ErrNoForces = errors.New("no combat units committed")

// Result is the outcome of one attack order.
type Result struct {
	OrderID         string         `json:"order_id"`
	AttackerID      string         `json:"attacker_id"`
	DefenderID      string         `json:"defender_id"`
	Rejected        string         `json:"rejected,omitempty"` // Why the order was refused
	Tier            influence.Tier `json:"tier,omitempty"`
	Multiplier      float64        `json:"multiplier,omitempty"`
	AttackPower     float64        `json:"attack_power"`
	DefensePower    float64        `json:"defense_power"`
	Ratio           float64        `json:"ratio"`
	Victory         bool           `json:"victory"`
	SectorsCaptured int            `json:"sectors_captured"`
	AttackerLosses  game.Military  `json:"attacker_losses"`
	DefenderLosses  game.Military  `json:"defender_losses"`
}

// Power sums weighted unit counts.
func Power(m game.Military, weights map[game.UnitKind]float64) float64 {
	total := 0.0
	for _, k := range game.UnitKinds {
		total += float64(m.Count(k)) * weights[k]
	}
	return total
}

// CaptureShare returns the share of defender territory taken on a win.
func CaptureShare(ratio float64) float64 {
	return clamp(MinCapture+CapturePerRatio*(ratio-1), MinCapture, MaxCapture)
}

// CasualtyRates returns the attacker and defender loss rates for a ratio.
func CasualtyRates(ratio float64) (attacker, defender float64) {
	if ratio <= 0 {
		return MaxCasualty, MinCasualty
	}
	return clamp(BaseCasualty/ratio, MinCasualty, MaxCasualty), clamp(BaseCasualty*ratio, MinCasualty, MaxCasualty)
}

// Resolve fights one attack order. Illegal orders come back as a rejected
// Result rather than an error; errors are reserved for broken state.
func Resolve(st *game.State, g *galaxy.Graph, order game.AttackOrder, turn int, src entropy.Source) (Result, error) {
	res := Result{OrderID: order.ID, AttackerID: order.AttackerID, DefenderID: order.DefenderID}

	target, err := influence.ValidateAttack(st, g, order.AttackerID, order.DefenderID, turn)
	if err != nil {
		if errors.Is(err, influence.ErrNoAnchor) {
			return res, err
		}
		res.Rejected = err.Error()
		return res, nil
	}
	res.Tier = target.Tier
	res.Multiplier = target.Multiplier

	attacker, _ := st.Empire(order.AttackerID)
	defender, _ := st.Empire(order.DefenderID)

	// Orders may have been queued before losses; commit what is still there.
	committed := order.Forces.Map(func(k game.UnitKind, n int64) int64 {
		return max(min(n, attacker.Military.Count(k)), 0)
	})
	effective := influence.EffectiveForces(committed, target.Multiplier)
	if Power(effective, attackWeights) == 0 {
		res.Rejected = ErrNoForces.Error()
		return res, nil
	}

	res.AttackPower = Power(effective, attackWeights) * variance(src)
	res.DefensePower = Power(defender.Military, defenseWeights) * variance(src)
	if res.DefensePower > 0 {
		res.Ratio = res.AttackPower / res.DefensePower
	} else {
		res.Ratio = MaxRatio
	}
	res.Victory = res.Ratio >= 1

	atkRate, defRate := CasualtyRates(res.Ratio)
	res.AttackerLosses = losses(committed, atkRate, attackWeights)
	res.DefenderLosses = losses(defender.Military, defRate, defenseWeights)
	attacker.Military = attacker.Military.Map(func(k game.UnitKind, n int64) int64 { return n - res.AttackerLosses.Count(k) })
	defender.Military = defender.Military.Map(func(k game.UnitKind, n int64) int64 { return n - res.DefenderLosses.Count(k) })
	attacker.LastCasualtyRatio = math.Max(attacker.LastCasualtyRatio, atkRate)
	defender.LastCasualtyRatio = math.Max(defender.LastCasualtyRatio, defRate)

	if res.Victory && defender.Territory() > 0 {
		n := int(math.Floor(float64(defender.Territory()) * CaptureShare(res.Ratio)))
		n = min(max(n, 1), defender.Territory())
		res.SectorsCaptured = transferSectors(defender, attacker, n)
	}
	return res, nil
}

func variance(src entropy.Source) float64 {
	return 1 + VarianceSpread*(src.Float64()-0.5)
}

// losses applies rate to every unit kind that takes part in the fight.
func losses(m game.Military, rate float64, weights map[game.UnitKind]float64) game.Military {
	return m.Map(func(k game.UnitKind, n int64) int64 {
		if weights[k] == 0 {
			return 0
		}
		return int64(math.Floor(float64(n) * rate))
	})
}

// transferSectors moves n sectors from the defender's largest holdings to
// the attacker, one at a time, ties broken by sector order.
func transferSectors(from, to *game.Empire, n int) int {
	moved := 0
	for moved < n {
		var pick game.SectorType
		best := 0
		for _, t := range game.SectorTypes {
			if c := *from.Sectors.Ptr(t); c > best {
				best, pick = c, t
			}
		}
		if best == 0 {
			break
		}
		*from.Sectors.Ptr(pick)--
		*to.Sectors.Ptr(pick)++
		moved++
	}
	return moved
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
