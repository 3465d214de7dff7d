package game

import (
	"strings"
	"unicode"

	"gridrealm/internal/maps"
)

// Action represents a player input command.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionAct
	ActionQuit
)

var actionNames = map[Action]string{
	ActionUp:    "up",
	ActionDown:  "down",
	ActionLeft:  "left",
	ActionRight: "right",
	ActionAct:   "act",
	ActionQuit:  "quit",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "none"
}

// ParseAction maps a command name to an Action. "move up" and "up" are
// both accepted; unknown names yield ActionNone.
func ParseAction(s string) Action {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimPrefix(s, "move ")
	for a, n := range actionNames {
		if n == s {
			return a
		}
	}
	switch s {
	case "interact", "use":
		return ActionAct
	}
	return ActionNone
}

// KeyAction maps one key of the terminal clients to an Action: WASD to
// move, space, enter or E to act, Q or Ctrl-C to quit.
func KeyAction(r rune) Action {
	switch unicode.ToLower(r) {
	case 'w':
		return ActionUp
	case 's':
		return ActionDown
	case 'a':
		return ActionLeft
	case 'd':
		return ActionRight
	case ' ', '\r', 'e':
		return ActionAct
	case 'q', 0x03:
		return ActionQuit
	}
	return ActionNone
}

// Facing returns the direction a movement action faces, or FacingNone.
func (a Action) Facing() maps.Facing {
	switch a {
	case ActionUp:
		return maps.FacingUp
	case ActionDown:
		return maps.FacingDown
	case ActionLeft:
		return maps.FacingLeft
	case ActionRight:
		return maps.FacingRight
	}
	return maps.FacingNone
}

// IsMove reports whether a is a movement action.
func (a Action) IsMove() bool {
	return a.Facing() != maps.FacingNone
}
