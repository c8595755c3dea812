package influence

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/star-dominion/internal/galaxy"
	"github.com/talgya/star-dominion/internal/game"
)

var (
	ErrSelfAttack        = errors.New("empire cannot attack itself")
	ErrProtection        = errors.New("attacks are forbidden during the protection period")
	ErrTreaty            = errors.New("an active treaty forbids the attack")
	ErrAttackerDefeated  = errors.New("attacker has been defeated")
	ErrTargetDefeated    = errors.New("target has been defeated")
	ErrTargetUnreachable = errors.New("target is outside the attacker's sphere of influence")
)

// ValidateAttack checks that attackerID may attack targetID on the given
// turn and returns the target's sphere entry, which carries the multiplier.
func ValidateAttack(st *game.State, g *galaxy.Graph, attackerID, targetID string, turn int) (Neighbor, error) {
	if attackerID == targetID {
		return Neighbor{}, ErrSelfAttack
	}
	attacker, ok := st.Empire(attackerID)
	if !ok {
		return Neighbor{}, fmt.Errorf("attacker %s not found", attackerID)
	}
	if !attacker.Alive() {
		return Neighbor{}, ErrAttackerDefeated
	}
	target, ok := st.Empire(targetID)
	if !ok {
		return Neighbor{}, fmt.Errorf("target %s not found", targetID)
	}
	if !target.Alive() {
		return Neighbor{}, ErrTargetDefeated
	}
	if st.Game.InProtection(turn) {
		return Neighbor{}, ErrProtection
	}
	if st.ActiveTreaty(attackerID, targetID) {
		return Neighbor{}, ErrTreaty
	}

	sphere, err := Compute(st, g, attackerID, turn)
	if err != nil {
		return Neighbor{}, err
	}
	n, ok := sphere.Lookup(targetID)
	if !ok || n.Tier == TierUnreachable {
		return Neighbor{}, ErrTargetUnreachable
	}
	return n, nil
}

// EffectiveForces divides each committed unit count by the multiplier,
// rounding down.
func EffectiveForces(forces game.Military, multiplier float64) game.Military {
	if multiplier <= 0 {
		return game.Military{}
	}
	return forces.Map(func(_ game.UnitKind, n int64) int64 {
		return int64(math.Floor(float64(n) / multiplier))
	})
}
