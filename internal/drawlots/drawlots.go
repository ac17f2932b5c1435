// Package drawlots defines the core domain of a game session: the shared
// session document, the mode state machine, and the rules of the two
// mini-games. It has no dependencies outside the standard library.
package drawlots

import "sort"

// Session is one running game instance, addressed by a short numeric code.
// It is stored as a single JSON document in the session store and observed
// by every participating client.
type Session struct {
	ID        string            `json:"id"`
	AdminID   string            `json:"adminId"`
	Players   map[string]Player `json:"players"`
	GameState GameState         `json:"gameState"`
	CreatedAt int64             `json:"createdAt"`
}

// Player is one participant. Number is the 1-based join order; it is never
// reassigned after a player leaves, so gaps are possible and display order
// is always the sort by Number, not map iteration order.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// PlayerScore is one timing-round outcome for one player.
type PlayerScore struct {
	Round  int `json:"round"`
	Points int `json:"points"`
}

// GameState is the single most-contended piece of shared mutable state,
// embedded in the session document. All counter-style fields (ClickOrder,
// TimingScores) must only ever be mutated through the store's atomic
// read-modify-write operation.
type GameState struct {
	Mode                Mode                     `json:"mode"`
	IsGameActive        bool                     `json:"isGameActive"`
	Round               int                      `json:"round"`
	ClickOrder          int                      `json:"clickOrder"`
	RoundStartedAt      int64                    `json:"roundStartedAt,omitempty"`
	ActiveLightPlayerID string                   `json:"activeLightPlayerId,omitempty"`
	SelectedPlayerID    string                   `json:"selectedPlayerId,omitempty"`
	TimingScores        map[string][]PlayerScore `json:"timingScores,omitempty"`
	LastUpdateTime      int64                    `json:"lastUpdateTime"`
}

// NewGameState returns the lobby state a fresh or reset session starts in.
// The player roster is untouched by a reset; everything else clears.
func NewGameState(now int64) GameState {
	return GameState{
		Mode:           ModeLobby,
		Round:          1,
		LastUpdateTime: now,
	}
}

// Seated returns the players in canonical seating order (by join Number).
// Adjacency in the light-chase game is always computed over this order.
func Seated(players map[string]Player) []Player {
	seated := make([]Player, 0, len(players))
	for _, p := range players {
		seated = append(seated, p)
	}
	sort.Slice(seated, func(i, j int) bool {
		return seated[i].Number < seated[j].Number
	})
	return seated
}

// SeatIndex returns the position of playerID in the canonical seating order,
// or -1 if the player is not seated.
func SeatIndex(seated []Player, playerID string) int {
	for i, p := range seated {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// NextNumber returns the join number for a new player: one past the highest
// number ever assigned. Numbers of departed players are not reused.
func NextNumber(players map[string]Player) int {
	max := 0
	for _, p := range players {
		if p.Number > max {
			max = p.Number
		}
	}
	return max + 1
}
