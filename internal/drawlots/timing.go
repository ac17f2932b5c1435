package drawlots

import (
	"fmt"
	"time"
)

const (
	// TimingRounds is how many rounds a full timing game runs.
	TimingRounds = 3

	// RoundDuration is how long players have to click before the round
	// explodes. Shared as a start timestamp; every client derives its own
	// countdown from it.
	RoundDuration = 4 * time.Second

	// ExplosionPenalty is the fixed score for a player who never clicked
	// before the deadline, regardless of click rank.
	ExplosionPenalty = -5
)

// ClickScore returns the score for the player who clicked at rank k
// (1-indexed) among n seated players. The curve rewards clicks that balance
// "not first, not last": strictly negative for early clickers, strictly
// positive for late clickers, zero or near-zero around the middle.
func ClickScore(k, n int) int {
	if n <= 1 {
		return 2
	}
	if n == 2 {
		if k == 1 {
			return -2
		}
		return 2
	}

	i := k - 1
	if n%2 == 1 {
		mid := n / 2
		switch {
		case i < mid:
			return -(mid - i)
		case i == mid:
			return 0
		default:
			return i - mid
		}
	}

	mid := n/2 - 1
	if i <= mid {
		return -(mid - i + 1)
	}
	return i - mid
}

// ScoreForRound returns the recorded score of one player for one round,
// if any. At most one entry exists per round; a later submission for the
// same round replaces the earlier one.
func ScoreForRound(scores []PlayerScore, round int) (PlayerScore, bool) {
	for _, s := range scores {
		if s.Round == round {
			return s, true
		}
	}
	return PlayerScore{}, false
}

// RecordScore inserts or replaces the entry for the given round, keeping the
// at-most-one-entry-per-round invariant. Safe to call on a retried write.
func RecordScore(scores []PlayerScore, score PlayerScore) []PlayerScore {
	for i, s := range scores {
		if s.Round == score.Round {
			scores[i] = score
			return scores
		}
	}
	return append(scores, score)
}

// AllScored reports whether every currently seated player has an entry for
// the given round. This is the early-completion condition for a round.
func AllScored(players map[string]Player, scores map[string][]PlayerScore, round int) bool {
	for id := range players {
		if _, ok := ScoreForRound(scores[id], round); !ok {
			return false
		}
	}
	return len(players) > 0
}

// BackfillExplosions assigns the explosion penalty to every seated player
// without an entry for the given round. Called once when the round deadline
// fires; idempotent under redelivery.
func BackfillExplosions(players map[string]Player, scores map[string][]PlayerScore, round int) map[string][]PlayerScore {
	if scores == nil {
		scores = make(map[string][]PlayerScore)
	}
	for id := range players {
		if _, ok := ScoreForRound(scores[id], round); !ok {
			scores[id] = RecordScore(scores[id], PlayerScore{Round: round, Points: ExplosionPenalty})
		}
	}
	return scores
}

// ButtonColor interpolates the advisory round color from blue to red over
// the round duration. Purely cosmetic: every client computes it locally from
// the shared round start reference, so it is never written to the store.
func ButtonColor(elapsed time.Duration) string {
	progress := float64(elapsed) / float64(RoundDuration)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	// #007bff -> #dc3545
	r := int(220 * progress)
	g := int(123 * (1 - progress))
	b := int(255 * (1 - progress))
	return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
}
