package drawlots

import (
	"testing"
	"time"
)

func TestClickScore(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []int // want[k-1] is the score for rank k
	}{
		{name: "solo", n: 1, want: []int{2}},
		{name: "two players", n: 2, want: []int{-2, 2}},
		{name: "three players", n: 3, want: []int{-1, 0, 1}},
		{name: "four players", n: 4, want: []int{-2, -1, 1, 2}},
		{name: "five players", n: 5, want: []int{-2, -1, 0, 1, 2}},
		{name: "six players", n: 6, want: []int{-3, -2, -1, 1, 2, 3}},
		{name: "seven players", n: 7, want: []int{-3, -2, -1, 0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k := 1; k <= tt.n; k++ {
				if got := ClickScore(k, tt.n); got != tt.want[k-1] {
					t.Errorf("ClickScore(%d, %d) = %d, want %d", k, tt.n, got, tt.want[k-1])
				}
			}
		})
	}
}

func TestClickScoreMonotonic(t *testing.T) {
	for n := 3; n <= 10; n++ {
		prev := ClickScore(1, n)
		if prev >= 0 {
			t.Errorf("n=%d: first click scored %d, want negative", n, prev)
		}
		for k := 2; k <= n; k++ {
			got := ClickScore(k, n)
			if got <= prev {
				t.Errorf("n=%d: ClickScore(%d) = %d not above ClickScore(%d) = %d",
					n, k, got, k-1, prev)
			}
			prev = got
		}
		if prev <= 0 {
			t.Errorf("n=%d: last click scored %d, want positive", n, prev)
		}
	}
}

func TestRecordScoreReplacesRound(t *testing.T) {
	scores := RecordScore(nil, PlayerScore{Round: 1, Points: -2})
	scores = RecordScore(scores, PlayerScore{Round: 2, Points: 1})
	scores = RecordScore(scores, PlayerScore{Round: 1, Points: 2})

	if len(scores) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(scores))
	}
	got, ok := ScoreForRound(scores, 1)
	if !ok || got.Points != 2 {
		t.Errorf("round 1 = %+v (ok=%v), want points 2", got, ok)
	}
}

func TestAllScored(t *testing.T) {
	players := map[string]Player{
		"a": {ID: "a", Number: 1},
		"b": {ID: "b", Number: 2},
	}
	scores := map[string][]PlayerScore{
		"a": {{Round: 1, Points: -2}},
	}

	if AllScored(players, scores, 1) {
		t.Error("round should not be complete with one player missing")
	}
	scores["b"] = RecordScore(scores["b"], PlayerScore{Round: 1, Points: 2})
	if !AllScored(players, scores, 1) {
		t.Error("round should be complete once every player has an entry")
	}
	if AllScored(map[string]Player{}, scores, 1) {
		t.Error("an empty roster is never complete")
	}
}

func TestBackfillExplosions(t *testing.T) {
	players := map[string]Player{
		"a": {ID: "a", Number: 1},
		"b": {ID: "b", Number: 2},
		"c": {ID: "c", Number: 3},
	}
	scores := map[string][]PlayerScore{
		"a": {{Round: 1, Points: -1}},
	}

	scores = BackfillExplosions(players, scores, 1)

	if got, _ := ScoreForRound(scores["a"], 1); got.Points != -1 {
		t.Errorf("clicked player overwritten: got %d", got.Points)
	}
	for _, id := range []string{"b", "c"} {
		got, ok := ScoreForRound(scores[id], 1)
		if !ok || got.Points != ExplosionPenalty {
			t.Errorf("player %s: got %+v (ok=%v), want penalty %d", id, got, ok, ExplosionPenalty)
		}
	}

	// Redelivery must not change anything.
	again := BackfillExplosions(players, scores, 1)
	for id := range players {
		if len(again[id]) != 1 {
			t.Errorf("player %s: got %d entries after redelivery, want 1", id, len(again[id]))
		}
	}
}

func TestBackfillExplosionsNilMap(t *testing.T) {
	players := map[string]Player{"a": {ID: "a", Number: 1}}
	scores := BackfillExplosions(players, nil, 1)
	if got, ok := ScoreForRound(scores["a"], 1); !ok || got.Points != ExplosionPenalty {
		t.Fatalf("got %+v (ok=%v), want penalty", got, ok)
	}
}

func TestButtonColor(t *testing.T) {
	if got := ButtonColor(0); got != "rgb(0, 123, 255)" {
		t.Errorf("at start: %s", got)
	}
	if got := ButtonColor(RoundDuration); got != "rgb(220, 0, 0)" {
		t.Errorf("at deadline: %s", got)
	}
	// Past the deadline the color clamps instead of overshooting.
	if got := ButtonColor(RoundDuration + time.Second); got != "rgb(220, 0, 0)" {
		t.Errorf("past deadline: %s", got)
	}
}
