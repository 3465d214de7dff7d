package main

import (
	"github.com/gdamore/tcell/v2"

	"gridrealm/internal/game"
)

// keyAction maps a key press to a player action. Runes use the same keys
// as the SSH client.
func keyAction(ev *tcell.EventKey) game.Action {
	switch ev.Key() {
	case tcell.KeyUp:
		return game.ActionUp
	case tcell.KeyDown:
		return game.ActionDown
	case tcell.KeyLeft:
		return game.ActionLeft
	case tcell.KeyRight:
		return game.ActionRight
	case tcell.KeyEnter:
		return game.ActionAct
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return game.ActionQuit
	case tcell.KeyRune:
		return game.KeyAction(ev.Rune())
	}
	return game.ActionNone
}
