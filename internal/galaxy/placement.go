// Empire placement: assigns each empire a home region and names bot empires.
package galaxy

import (
	"errors"
	"fmt"

	"github.com/talgya/star-dominion/internal/entropy"
)

// ErrNoCapacity is returned when the non-core regions cannot hold every empire.
var ErrNoCapacity = errors.New("galaxy has no room for every empire")

// PlaceEmpires returns a home region ID for each of count empires. Non-core
// regions are shuffled and filled round-robin, skipping any region already at
// MaxEmpires. Empires never start in the core.
func PlaceEmpires(regions []Region, count int, src entropy.Source) ([]int64, error) {
	var slots []*Region
	for i := range regions {
		if regions[i].Type != RegionCore {
			slots = append(slots, &regions[i])
		}
	}
	if len(slots) == 0 && count > 0 {
		return nil, ErrNoCapacity
	}

	// Fisher-Yates over the candidate list.
	for i := len(slots) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		slots[i], slots[j] = slots[j], slots[i]
	}

	occupancy := make(map[int64]int, len(slots))
	homes := make([]int64, 0, count)
	next := 0
	for len(homes) < count {
		placed := false
		for tries := 0; tries < len(slots); tries++ {
			r := slots[next%len(slots)]
			next++
			if occupancy[r.ID] < r.MaxEmpires {
				occupancy[r.ID]++
				homes = append(homes, r.ID)
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("place empire %d of %d: %w", len(homes)+1, count, ErrNoCapacity)
		}
	}
	return homes, nil
}

// EmpireNames produces count distinct procedural empire names.
func EmpireNames(src entropy.Source, count int) []string {
	prefixes := []string{
		"Vel", "Kor", "Ash", "Tyr", "Sol", "Dra", "Myr", "Zan",
		"Orr", "Qel", "Ith", "Nov", "Cael", "Hes", "Vor", "Bel",
	}
	suffixes := []string{
		"aran", "oth", "essa", "urii", "ania", "ekar", "ion", "avar",
		"entis", "orum", "ythe", "acor", "imar", "usk",
	}
	forms := []string{"Hegemony", "Dominion", "Union", "Concord", "Directorate", "Ascendancy"}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	collisions := 0
	for len(names) < count {
		name := prefixes[src.Intn(len(prefixes))] + suffixes[src.Intn(len(suffixes))] + " " + forms[src.Intn(len(forms))]
		if used[name] {
			collisions++
			if collisions < 8 {
				continue
			}
			// Too many repeats from the source; number the name instead.
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		collisions = 0
		used[name] = true
		names = append(names, name)
	}
	return names
}
