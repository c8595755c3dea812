package economy

// ResearchThreshold returns the research points needed to advance from level.
func ResearchThreshold(level int) int64 {
	return 1_000 * int64(level+1)
}

// AdvanceResearch spends banked research points on level-ups and returns
// the number of levels gained.
func AdvanceResearch(points *int64, level *int) int {
	gained := 0
	for *points >= ResearchThreshold(*level) {
		*points -= ResearchThreshold(*level)
		*level++
		gained++
	}
	return gained
}
