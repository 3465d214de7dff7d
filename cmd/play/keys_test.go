package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"

	"gridrealm/internal/game"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want game.Action
	}{
		{tcell.KeyUp, 0, game.ActionUp},
		{tcell.KeyLeft, 0, game.ActionLeft},
		{tcell.KeyEnter, 0, game.ActionAct},
		{tcell.KeyEscape, 0, game.ActionQuit},
		{tcell.KeyRune, 'w', game.ActionUp},
		{tcell.KeyRune, 'D', game.ActionRight},
		{tcell.KeyRune, ' ', game.ActionAct},
		{tcell.KeyRune, 'q', game.ActionQuit},
		{tcell.KeyRune, 'x', game.ActionNone},
		{tcell.KeyTab, 0, game.ActionNone},
	}
	for _, tt := range tests {
		ev := tcell.NewEventKey(tt.key, tt.r, tcell.ModNone)
		assert.Equal(t, tt.want, keyAction(ev), "key %v rune %q", tt.key, tt.r)
	}
}
