package drawlots

import "testing"

func TestStandings(t *testing.T) {
	players := map[string]Player{
		"a": {ID: "a", Name: "Ana", Number: 1},
		"b": {ID: "b", Name: "Ben", Number: 2},
		"c": {ID: "c", Name: "Cho", Number: 3},
	}
	scores := map[string][]PlayerScore{
		"a": {{Round: 1, Points: -1}, {Round: 2, Points: 2}, {Round: 3, Points: 1}},
		"b": {{Round: 1, Points: 2}, {Round: 2, Points: -1}, {Round: 3, Points: 1}},
		"c": {{Round: 1, Points: -5}, {Round: 2, Points: 0}, {Round: 3, Points: -1}},
	}

	got := Standings(players, scores)
	if len(got) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(got))
	}

	// a and b tie at 2; a wins the tie on the lower seat number.
	wantOrder := []string{"a", "b", "c"}
	wantTotals := []int{2, 2, -6}
	for i := range got {
		if got[i].Player.ID != wantOrder[i] || got[i].Total != wantTotals[i] {
			t.Errorf("rank %d: %s total %d, want %s total %d",
				i, got[i].Player.ID, got[i].Total, wantOrder[i], wantTotals[i])
		}
	}
}

func TestStandingsNoScores(t *testing.T) {
	players := map[string]Player{
		"a": {ID: "a", Number: 2},
		"b": {ID: "b", Number: 1},
	}

	got := Standings(players, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(got))
	}
	if got[0].Player.ID != "b" || got[1].Player.ID != "a" {
		t.Errorf("zero-score order by seat: got %s, %s", got[0].Player.ID, got[1].Player.ID)
	}
}
