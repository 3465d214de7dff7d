package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gridrealm/internal/game"
	"gridrealm/internal/maps"
	"gridrealm/internal/persistence"
)

func newTestSessions(t *testing.T, store persistence.Storage) *game.Sessions {
	t.Helper()
	plain := maps.Blank("plain", 5, 5)
	plain.Title = "Plain"
	catalog, err := maps.NewCatalog(plain)
	require.NoError(t, err)
	return game.NewSessions(game.SessionConfig{
		Catalog:  catalog,
		StartMap: "plain",
		TickRate: 50,
	}, store)
}

func dialWS(t *testing.T, srv *httptest.Server, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(ServerMessage) bool) ServerMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestWSSession(t *testing.T) {
	store := persistence.NewMemoryStore()
	sessions := newTestSessions(t, store)
	ws := NewWSServer(":0", sessions, zap.NewNop())
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "alice")

	welcome := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "welcome" })
	assert.Equal(t, "alice", welcome.Player)
	assert.NotEmpty(t, welcome.Session)

	first := readUntil(t, conn, func(m ServerMessage) bool { return m.Type == "frame" })
	require.NotNil(t, first.Frame)
	assert.Equal(t, "plain", first.Frame.MapID)
	assert.Equal(t, "Plain", first.Frame.Title)
	assert.Len(t, first.Frame.Terrain, 5)
	assert.Equal(t, 2, first.Frame.X)
	assert.Equal(t, 2, first.Frame.Y)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "command", Action: "move right"}))
	moved := readUntil(t, conn, func(m ServerMessage) bool { return m.Frame != nil && m.Frame.X == 3 })
	assert.Equal(t, "right", moved.Frame.Facing)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "quit"}))

	require.Eventually(t, func() bool {
		rec, err := store.LoadSession(context.Background(), "alice")
		return err == nil && rec.X == 3
	}, 3*time.Second, 20*time.Millisecond)
	assert.Zero(t, sessions.Online())
}

func TestWSOpenFailure(t *testing.T) {
	catalog, err := maps.NewCatalog(maps.Blank("plain", 3, 3))
	require.NoError(t, err)
	sessions := game.NewSessions(game.SessionConfig{Catalog: catalog, StartMap: "missing"}, nil)
	srv := httptest.NewServer(NewWSServer(":0", sessions, zap.NewNop()).Handler())
	defer srv.Close()

	conn := dialWS(t, srv, "bob")
	msg := readUntil(t, conn, func(ServerMessage) bool { return true })
	assert.Equal(t, "error", msg.Type)
}

func TestNewFrameView(t *testing.T) {
	f := &game.Frame{
		MapID:   "m",
		Cols:    2,
		Rows:    2,
		Terrain: []game.Cell{{Glyph: '.'}, {Glyph: '#'}, {Glyph: '~'}, {Glyph: '.'}},
	}
	v := newFrameView(f)
	assert.Equal(t, []string{".#", "~."}, v.Terrain)
	assert.Empty(t, v.Units)
}
