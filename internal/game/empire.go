package game

// EmpireType distinguishes the human player from bots.
type EmpireType string

const (
	EmpirePlayer EmpireType = "player"
	EmpireBot    EmpireType = "bot"
)

// DefeatType names how an empire was knocked out.
type DefeatType string

const (
	DefeatElimination DefeatType = "elimination" // No territory left
	DefeatBankruptcy  DefeatType = "bankruptcy"  // Broke and still bleeding credits
	DefeatCivilWar    DefeatType = "civil_war"   // Three consecutive turns of revolt
)

// PopulationStatus is the outcome of the last population phase.
type PopulationStatus string

const (
	PopulationGrowth     PopulationStatus = "growth"
	PopulationStable     PopulationStatus = "stable"
	PopulationStarvation PopulationStatus = "starvation"
)

// Resources are an empire's stockpiles. Never negative after a turn.
type Resources struct {
	Credits        int64 `json:"credits"`
	Food           int64 `json:"food"`
	Ore            int64 `json:"ore"`
	Petroleum      int64 `json:"petroleum"`
	ResearchPoints int64 `json:"research_points"`
}

// Sub returns r - o field by field.
func (r Resources) Sub(o Resources) Resources {
	return Resources{
		Credits:        r.Credits - o.Credits,
		Food:           r.Food - o.Food,
		Ore:            r.Ore - o.Ore,
		Petroleum:      r.Petroleum - o.Petroleum,
		ResearchPoints: r.ResearchPoints - o.ResearchPoints,
	}
}

// Add returns r + o field by field.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Credits:        r.Credits + o.Credits,
		Food:           r.Food + o.Food,
		Ore:            r.Ore + o.Ore,
		Petroleum:      r.Petroleum + o.Petroleum,
		ResearchPoints: r.ResearchPoints + o.ResearchPoints,
	}
}

// ClampZero raises every negative field to zero.
func (r Resources) ClampZero() Resources {
	return Resources{
		Credits:        max(r.Credits, 0),
		Food:           max(r.Food, 0),
		Ore:            max(r.Ore, 0),
		Petroleum:      max(r.Petroleum, 0),
		ResearchPoints: max(r.ResearchPoints, 0),
	}
}

// Covers reports whether r holds at least cost of every resource.
func (r Resources) Covers(cost Resources) bool {
	return r.Credits >= cost.Credits && r.Food >= cost.Food && r.Ore >= cost.Ore &&
		r.Petroleum >= cost.Petroleum && r.ResearchPoints >= cost.ResearchPoints
}

// SectorType is a kind of productive territory.
type SectorType string

const (
	SectorFood       SectorType = "food"
	SectorOre        SectorType = "ore"
	SectorPetroleum  SectorType = "petroleum"
	SectorCommerce   SectorType = "commerce"
	SectorUrban      SectorType = "urban"
	SectorResearch   SectorType = "research"
	SectorIndustrial SectorType = "industrial"
)

// SectorTypes lists every sector type in a fixed order.
var SectorTypes = []SectorType{
	SectorFood, SectorOre, SectorPetroleum, SectorCommerce, SectorUrban, SectorResearch, SectorIndustrial,
}

// Sectors counts owned sectors per type. Territory is their sum.
type Sectors struct {
	Food       int `json:"food"`
	Ore        int `json:"ore"`
	Petroleum  int `json:"petroleum"`
	Commerce   int `json:"commerce"`
	Urban      int `json:"urban"`
	Research   int `json:"research"`
	Industrial int `json:"industrial"`
}

// Total returns the empire's territory.
func (s Sectors) Total() int {
	return s.Food + s.Ore + s.Petroleum + s.Commerce + s.Urban + s.Research + s.Industrial
}

// Ptr returns a pointer to the counter for t.
func (s *Sectors) Ptr(t SectorType) *int {
	switch t {
	case SectorFood:
		return &s.Food
	case SectorOre:
		return &s.Ore
	case SectorPetroleum:
		return &s.Petroleum
	case SectorCommerce:
		return &s.Commerce
	case SectorUrban:
		return &s.Urban
	case SectorResearch:
		return &s.Research
	default:
		return &s.Industrial
	}
}

// UnitKind is a type of military unit.
type UnitKind string

const (
	UnitSoldier      UnitKind = "soldier"
	UnitFighter      UnitKind = "fighter"
	UnitStation      UnitKind = "station"
	UnitLightCruiser UnitKind = "light_cruiser"
	UnitHeavyCruiser UnitKind = "heavy_cruiser"
	UnitCarrier      UnitKind = "carrier"
	UnitCovertAgent  UnitKind = "covert_agent"
)

// UnitKinds lists every unit kind in a fixed order.
var UnitKinds = []UnitKind{
	UnitSoldier, UnitFighter, UnitStation, UnitLightCruiser, UnitHeavyCruiser, UnitCarrier, UnitCovertAgent,
}

// ValidUnit reports whether k names a known unit kind.
func ValidUnit(k UnitKind) bool {
	for _, u := range UnitKinds {
		if u == k {
			return true
		}
	}
	return false
}

// Military counts units per kind.
type Military struct {
	Soldiers      int64 `json:"soldiers"`
	Fighters      int64 `json:"fighters"`
	Stations      int64 `json:"stations"`
	LightCruisers int64 `json:"light_cruisers"`
	HeavyCruisers int64 `json:"heavy_cruisers"`
	Carriers      int64 `json:"carriers"`
	CovertAgents  int64 `json:"covert_agents"`
}

// Ptr returns a pointer to the counter for k.
func (m *Military) Ptr(k UnitKind) *int64 {
	switch k {
	case UnitSoldier:
		return &m.Soldiers
	case UnitFighter:
		return &m.Fighters
	case UnitStation:
		return &m.Stations
	case UnitLightCruiser:
		return &m.LightCruisers
	case UnitHeavyCruiser:
		return &m.HeavyCruisers
	case UnitCarrier:
		return &m.Carriers
	default:
		return &m.CovertAgents
	}
}

// Count returns the number of units of kind k.
func (m Military) Count(k UnitKind) int64 {
	return *m.Ptr(k)
}

// Map applies f to every unit count.
func (m Military) Map(f func(k UnitKind, n int64) int64) Military {
	var out Military
	for _, k := range UnitKinds {
		*out.Ptr(k) = f(k, m.Count(k))
	}
	return out
}

// Covers reports whether m has at least as many units of every kind as o.
func (m Military) Covers(o Military) bool {
	for _, k := range UnitKinds {
		if m.Count(k) < o.Count(k) {
			return false
		}
	}
	return true
}

// Empire is one faction within a game.
type Empire struct {
	ID            string     `json:"id"`
	GameID        string     `json:"game_id"`
	Name          string     `json:"name"`
	Type          EmpireType `json:"type"`
	Resources     Resources  `json:"resources"`
	Population    int64      `json:"population"`
	PopulationCap int64      `json:"population_cap"`
	Sectors       Sectors    `json:"sectors"`
	Military      Military   `json:"military"`

	// Civil status and the streaks that move it.
	CivilStatus      CivilStatus      `json:"civil_status"`
	SurplusStreak    int              `json:"surplus_streak"`
	DeficitStreak    int              `json:"deficit_streak"`
	PopulationStatus PopulationStatus `json:"population_status"`

	// Revolt and combat aftermath.
	UnrestTurns       int     `json:"unrest_turns"`
	RevoltPenalty     float64 `json:"revolt_penalty"`      // 0.0–1.0 production loss
	LastCasualtyRatio float64 `json:"last_casualty_ratio"` // Worst ratio suffered this turn

	ResearchLevel  int        `json:"research_level"`
	Networth       int64      `json:"networth"`
	IsEliminated   bool       `json:"is_eliminated"`
	DefeatType     DefeatType `json:"defeat_type,omitempty"`
	LastNetCredits int64      `json:"last_net_credits"` // Credit delta of the last resource phase
}

// Territory returns the number of sectors the empire owns.
func (e *Empire) Territory() int {
	return e.Sectors.Total()
}

// Alive reports whether the empire is still in the game.
func (e *Empire) Alive() bool {
	return !e.IsEliminated
}

// Defeat marks the empire as knocked out. The first cause recorded wins.
func (e *Empire) Defeat(t DefeatType) {
	if e.IsEliminated {
		return
	}
	e.IsEliminated = true
	e.DefeatType = t
}
