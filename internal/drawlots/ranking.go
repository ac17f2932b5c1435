package drawlots

import "sort"

// Standing is one row of the final ranking.
type Standing struct {
	Player Player `json:"player"`
	Total  int    `json:"total"`
}

// Standings totals every recorded round for every seated player and sorts
// descending by total, ties broken by seat number ascending so the order is
// deterministic. Missing rounds are expected to have been backfilled as
// explosions before the session enters the result mode.
func Standings(players map[string]Player, scores map[string][]PlayerScore) []Standing {
	standings := make([]Standing, 0, len(players))
	for id, p := range players {
		total := 0
		for _, s := range scores[id] {
			total += s.Points
		}
		standings = append(standings, Standing{Player: p, Total: total})
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Total != standings[j].Total {
			return standings[i].Total > standings[j].Total
		}
		return standings[i].Player.Number < standings[j].Player.Number
	})
	return standings
}
