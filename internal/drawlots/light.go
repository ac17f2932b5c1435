package drawlots

import (
	"math/rand/v2"
	"time"
)

const (
	// lightInitialInterval is the tick interval the chase starts at.
	lightInitialInterval = 700 * time.Millisecond

	// lightMinInterval is the fastest the chase ever gets.
	lightMinInterval = 200 * time.Millisecond

	// lightExtraTickRange is the spread of random extra ticks added on top
	// of the guaranteed three full rotations.
	lightExtraTickRange = 16
)

// Direction is the per-observer cue showing where the token sits relative
// to the observing player's seat. It is derived state, never stored.
type Direction string

const (
	DirectionNone  Direction = "none"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ChasePlan is the full schedule of one light-chase game, drawn once when
// the admin starts it. Given the plan and a shared start signal, every
// observer can derive the same motion; the authoritative holder is still
// written to the store on each tick so resynchronizing clients recover.
type ChasePlan struct {
	Seats int
	Ticks int
}

// NewChasePlan draws a plan for the given number of seats: at least three
// full rotations so every player is visited several times, plus a uniform
// random tail.
func NewChasePlan(seats int, rng *rand.Rand) ChasePlan {
	if seats < 1 {
		seats = 1
	}
	return ChasePlan{
		Seats: seats,
		Ticks: 3*seats + rng.IntN(lightExtraTickRange),
	}
}

// HolderIndex returns the seat index holding the token after the given tick.
// Tick 0 is the starting position. Two seats alternate back and forth;
// three or more rotate by +1 in a fixed direction.
func (p ChasePlan) HolderIndex(tick int) int {
	if p.Seats <= 1 {
		return 0
	}
	return tick % p.Seats
}

// Interval returns the wait before the given tick (1..Ticks). The chase
// speeds up over the first half, runs flat at the minimum, then decelerates
// over the final quarter back toward the initial interval. Deterministic in
// (plan, tick) and never above the initial interval.
func (p ChasePlan) Interval(tick int) time.Duration {
	if p.Ticks <= 1 {
		return lightInitialInterval
	}

	half := p.Ticks / 2
	tailStart := p.Ticks - p.Ticks/4

	switch {
	case tick <= half:
		return lerpInterval(lightInitialInterval, lightMinInterval,
			float64(tick)/float64(half))
	case tick < tailStart:
		return lightMinInterval
	default:
		span := p.Ticks - tailStart + 1
		return lerpInterval(lightMinInterval, lightInitialInterval,
			float64(tick-tailStart+1)/float64(span))
	}
}

func lerpInterval(from, to time.Duration, frac float64) time.Duration {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return from + time.Duration(frac*float64(to-from))
}

// Cue derives the directional light cue for the observer at myIndex while
// the token is at activeIndex. Only the two seats flanking the holder ever
// see a cue; the holder and the frozen selected player see none. With two
// seats the cue is fixed by seat, since a 2-cycle has no direction.
func Cue(myIndex, activeIndex, seats int, selected bool) Direction {
	if seats <= 1 || myIndex < 0 || activeIndex < 0 {
		return DirectionNone
	}
	if selected || myIndex == activeIndex {
		return DirectionNone
	}

	if seats == 2 {
		if myIndex == 0 {
			return DirectionRight
		}
		return DirectionLeft
	}

	switch myIndex {
	case (activeIndex + 1) % seats:
		return DirectionLeft
	case (activeIndex - 1 + seats) % seats:
		return DirectionRight
	}
	return DirectionNone
}
