package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gridrealm/internal/game"
)

const wsWriteWait = 5 * time.Second

// ClientMessage is a command sent by a websocket client, e.g.
// {"type":"command","action":"move up"}.
type ClientMessage struct {
	Type   string `json:"type"`
	Action string `json:"action"`
}

// ServerMessage wraps everything sent to websocket clients.
type ServerMessage struct {
	Type    string     `json:"type"`
	Frame   *FrameView `json:"frame,omitempty"`
	Session string     `json:"session,omitempty"`
	Player  string     `json:"player,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// FrameView is the JSON form of a game frame. Terrain is one string per
// row, one glyph per cell.
type FrameView struct {
	Tick    uint64     `json:"tick"`
	MapID   string     `json:"map"`
	Title   string     `json:"title"`
	Cols    int        `json:"cols"`
	Rows    int        `json:"rows"`
	Terrain []string   `json:"terrain"`
	Units   []UnitView `json:"units"`
	X       int        `json:"x"`
	Y       int        `json:"y"`
	Facing  string     `json:"facing"`
	Message string     `json:"message,omitempty"`
}

type UnitView struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Glyph  string `json:"glyph"`
	Facing string `json:"facing,omitempty"`
}

func newFrameView(f *game.Frame) *FrameView {
	v := &FrameView{
		Tick:    f.Tick,
		MapID:   f.MapID,
		Title:   f.Title,
		Cols:    f.Cols,
		Rows:    f.Rows,
		Terrain: make([]string, f.Rows),
		Units:   make([]UnitView, 0, len(f.Units)),
		X:       f.Player.X,
		Y:       f.Player.Y,
		Facing:  string(f.Player.Facing),
		Message: f.Message,
	}
	row := make([]rune, f.Cols)
	for y := 0; y < f.Rows; y++ {
		for x := 0; x < f.Cols; x++ {
			row[x] = f.At(x, y).Glyph
		}
		v.Terrain[y] = string(row)
	}
	for _, u := range f.Units {
		v.Units = append(v.Units, UnitView{
			ID:     u.ID,
			Kind:   u.Kind,
			X:      u.X,
			Y:      u.Y,
			Glyph:  string(u.Glyph),
			Facing: string(u.Facing),
		})
	}
	return v
}

// WSServer serves game sessions over websockets at /ws?name=<player>.
type WSServer struct {
	sessions *game.Sessions
	addr     string
	log      *zap.Logger
	upgrader websocket.Upgrader

	srv *http.Server
}

func NewWSServer(addr string, sessions *game.Sessions, log *zap.Logger) *WSServer {
	s := &WSServer{
		sessions: sessions,
		addr:     addr,
		log:      log.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *WSServer) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens until Shutdown is called.
func (s *WSServer) Start() error {
	s.log.Info("listening", zap.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WSServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeWS upgrades the request and runs a session until either side
// closes.
func (s *WSServer) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Anonymous"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player, err := s.sessions.Open(ctx, name)
	if err != nil {
		s.log.Error("open session", zap.String("user", name), zap.Error(err))
		s.write(conn, ServerMessage{Type: "error", Error: "could not start a game session"})
		return
	}
	s.log.Info("player connected", zap.String("user", name), zap.String("player", player.Name), zap.String("session", player.ID))

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := player.Run(ctx); err != nil {
			s.log.Warn("session stopped", zap.String("session", player.ID), zap.Error(err))
		}
	}()
	defer func() {
		cancel()
		<-runDone
		if err := s.sessions.Close(context.Background(), player); err != nil {
			s.log.Error("save session", zap.String("player", player.Name), zap.Error(err))
		}
		s.log.Info("player disconnected", zap.String("user", name), zap.String("session", player.ID))
	}()

	if err := s.write(conn, ServerMessage{Type: "welcome", Session: player.ID, Player: player.Name}); err != nil {
		return
	}

	go func() {
		defer cancel()
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Debug("read failed", zap.String("session", player.ID), zap.Error(err))
				}
				return
			}
			if msg.Type != "" && msg.Type != "command" {
				continue
			}
			if a := game.ParseAction(msg.Action); a != game.ActionNone {
				player.Input(a)
			}
		}
	}()

	for frame := range player.Frames() {
		if err := s.write(conn, ServerMessage{Type: "frame", Frame: newFrameView(&frame)}); err != nil {
			cancel()
		}
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(wsWriteWait))
}

func (s *WSServer) write(conn *websocket.Conn, msg ServerMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}
