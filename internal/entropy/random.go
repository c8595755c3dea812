// Package entropy provides the injectable randomness used by every stochastic
// path in the game: galaxy generation, wormhole rolls and combat variance.
// A game seed plus a turn number always reproduces the same draws.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
)

// Source is the minimal random interface the engine consumes.
type Source interface {
	Float64() float64 // Uniform in [0, 1)
	Intn(n int) int   // Uniform in [0, n)
}

// Stream names one independent random stream within a turn. Separate streams
// keep phases from shifting each other's draws when one phase changes.
type Stream uint8

const (
	StreamGalaxy Stream = iota + 1
	StreamPlacement
	StreamWormhole
	StreamCombat
)

// Factory builds the Source for a (seed, turn, stream) triple.
type Factory func(seed int64, turn int, stream Stream) Source

// Seeded is the default Factory: math/rand seeded from a mix of the inputs.
func Seeded(seed int64, turn int, stream Stream) Source {
	return mathrand.New(mathrand.NewSource(mix(seed, turn, stream)))
}

// mix folds the turn and stream into the seed with a splitmix64 finalizer so
// that adjacent turns do not produce correlated sequences.
func mix(seed int64, turn int, stream Stream) int64 {
	z := uint64(seed) + uint64(turn)*0x9E3779B97F4A7C15 + uint64(stream)*0xBF58476D1CE4E5B9
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// NewSeed returns a fresh game seed from crypto/rand.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1), nil
}

// Fixed is a Source that replays a list of floats, cycling when exhausted.
// Tests use it to force specific roll outcomes.
type Fixed struct {
	Values []float64
	next   int
}

// Float64 returns the next scripted value, or 0.5 when none are scripted.
func (f *Fixed) Float64() float64 {
	if len(f.Values) == 0 {
		return 0.5
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}

// Intn maps the next scripted float onto [0, n).
func (f *Fixed) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(f.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// FixedFactory returns a Factory that hands the same Fixed source to every caller.
func FixedFactory(values ...float64) Factory {
	src := &Fixed{Values: values}
	return func(int64, int, Stream) Source { return src }
}
