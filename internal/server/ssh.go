package server

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gliderlabs/ssh"
	"go.uber.org/zap"

	"gridrealm/internal/game"
	"gridrealm/internal/render"
)

// SSHServer serves one game session per SSH connection.
type SSHServer struct {
	sessions *game.Sessions
	addr     string
	hostKey  string
	log      *zap.Logger

	srv *ssh.Server
}

// NewSSHServer creates a new SSH server bound to the given address.
func NewSSHServer(addr, hostKey string, sessions *game.Sessions, log *zap.Logger) *SSHServer {
	return &SSHServer{
		sessions: sessions,
		addr:     addr,
		hostKey:  hostKey,
		log:      log.Named("ssh"),
	}
}

// Start begins listening for SSH connections. It blocks until the server
// is shut down.
func (s *SSHServer) Start() error {
	s.srv = &ssh.Server{
		Addr:    s.addr,
		Handler: s.handleSession,
	}
	if err := s.srv.SetOption(ssh.HostKeyFile(s.hostKey)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}

	s.log.Info("listening", zap.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for open ones to finish
// or ctx to expire.
func (s *SSHServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		return
	}

	username := sess.User()
	if username == "" {
		username = "Anonymous"
	}

	ctx, cancel := context.WithCancel(sess.Context())
	defer cancel()

	player, err := s.sessions.Open(ctx, username)
	if err != nil {
		s.log.Error("open session", zap.String("user", username), zap.Error(err))
		fmt.Fprintln(sess, "Error: could not start a game session.")
		return
	}
	s.log.Info("player connected", zap.String("user", username), zap.String("player", player.Name), zap.String("session", player.ID))

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
		s.log.Info("player disconnected", zap.String("user", username), zap.String("session", player.ID))
	}()

	termW := ptyReq.Window.Width
	termH := ptyReq.Window.Height
	var termMu sync.Mutex

	engine := render.NewEngine(termW, termH)

	io.WriteString(sess, render.EnterAltScreen+render.HideCursor+render.ClearScreen)
	defer io.WriteString(sess, render.ShowCursor+render.ExitAltScreen)

	// Read input until the connection drops.
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				cancel()
				return
			}
			for _, action := range parseInput(buf[:n]) {
				player.Input(action)
			}
		}
	}()

	go func() {
		for win := range winCh {
			termMu.Lock()
			termW = win.Width
			termH = win.Height
			termMu.Unlock()
		}
	}()

	// The session closes its frame channel when it stops.
	for frame := range player.Frames() {
		termMu.Lock()
		w, h := termW, termH
		termMu.Unlock()

		if out := engine.Render(&frame, w, h); out != "" {
			io.WriteString(sess, out)
		}
	}
}
