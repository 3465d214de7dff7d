package server

import (
	"unicode/utf8"

	"gridrealm/internal/game"
)

// arrowKeys maps the final byte of ESC [ x and ESC O x sequences.
var arrowKeys = map[byte]game.Action{
	'A': game.ActionUp,
	'B': game.ActionDown,
	'C': game.ActionRight,
	'D': game.ActionLeft,
}

// parseInput converts raw terminal bytes into player actions. Unknown
// keys and escape sequences are skipped.
func parseInput(data []byte) []game.Action {
	var actions []game.Action
	for len(data) > 0 {
		if len(data) >= 3 && data[0] == 0x1b && (data[1] == '[' || data[1] == 'O') {
			if a, ok := arrowKeys[data[2]]; ok {
				actions = append(actions, a)
			}
			data = data[3:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		if a := game.KeyAction(r); a != game.ActionNone {
			actions = append(actions, a)
		}
		data = data[size:]
	}
	return actions
}
