package drawlots

// Mode is the authoritative game mode of a session.
type Mode string

const (
	ModeLobby  Mode = "lobby"
	ModeTiming Mode = "timing"
	ModeLight  Mode = "light"
	ModeResult Mode = "result"
)

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeLobby, ModeTiming, ModeLight, ModeResult:
		return true
	}
	return false
}

// transitions is the legal mode graph. The lobby fans out into either
// mini-game; timing flows into result; light loops back to the lobby only
// through an explicit new-game action, as does result. There is no terminal
// mode while the session exists.
var transitions = map[Mode][]Mode{
	ModeLobby:  {ModeTiming, ModeLight},
	ModeTiming: {ModeResult},
	ModeLight:  {ModeLobby},
	ModeResult: {ModeLobby},
}

// CanTransition reports whether moving from one mode to another is legal.
// Staying in the same mode (round restarts, activation toggles) is always
// allowed; everything else must follow the transition graph.
func CanTransition(from, to Mode) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
