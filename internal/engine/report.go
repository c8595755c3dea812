package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/star-dominion/internal/game"
)

// logTurnReport writes the per-turn summary line and the notable events.
func logTurnReport(logger *slog.Logger, st *game.State, res *TurnResult) {
	var pop, credits int64
	live := 0
	for _, e := range st.Empires {
		if !e.IsEliminated {
			live++
			pop += e.Population
			credits += e.Resources.Credits
		}
	}

	logger.Info("turn report",
		"game_id", res.GameID,
		"turn", res.Turn,
		"live_empires", live,
		"population", humanize.Comma(pop),
		"credits", humanize.Comma(credits),
		"combats", len(res.Combats),
		"eliminated", len(res.EliminatedEmpires),
	)
	for _, ev := range res.Events {
		logger.Info("event", "category", ev.Category, "description", ev.Description)
	}
	for _, name := range res.EliminatedEmpires {
		logger.Info("empire defeated", "game_id", res.GameID, "empire", name)
	}
	if res.Victory != nil {
		logger.Info("game over",
			"game_id", res.GameID,
			"victory", res.Victory.Type,
			"winner", res.Victory.WinnerName,
			"announcement", res.Victory.Announcement,
		)
	}
}
