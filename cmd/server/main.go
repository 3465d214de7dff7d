package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gridrealm/internal/behavior"
	"gridrealm/internal/config"
	"gridrealm/internal/game"
	"gridrealm/internal/maps"
	"gridrealm/internal/persistence"
	"gridrealm/internal/server"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := ensureHostKey(cfg.Server.HostKey, log); err != nil {
		return fmt.Errorf("host key: %w", err)
	}

	catalog, err := loadCatalog(cfg.World.MapsDir, log)
	if err != nil {
		return err
	}
	startMap := cfg.World.StartMap
	if _, ok := catalog.Get(startMap); !ok {
		ids := catalog.IDs()
		log.Warn("start map not found, using first map", zap.String("map", startMap), zap.String("fallback", ids[0]))
		startMap = ids[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer storage.Close()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	sessions := game.NewSessions(game.SessionConfig{
		Catalog:    catalog,
		Behaviors:  behavior.Builtins(),
		StartMap:   startMap,
		CellWidth:  cfg.World.CellWidth,
		CellHeight: cfg.World.CellHeight,
		TickRate:   cfg.Session.TickRate,
		MoveRepeat: cfg.Session.MoveRepeat,
		Logger:     log,
	}, storage)

	sshServer := server.NewSSHServer(cfg.Server.SSHAddr, cfg.Server.HostKey, sessions, log)
	errCh := make(chan error, 2)
	go func() { errCh <- sshServer.Start() }()

	var wsServer *server.WSServer
	if cfg.Server.WSAddr != "" {
		wsServer = server.NewWSServer(cfg.Server.WSAddr, sessions, log)
		go func() { errCh <- wsServer.Start() }()
	}
	log.Info("gridrealm started", zap.String("connect", "ssh -p "+portOf(cfg.Server.SSHAddr)+" YourName@localhost"))

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var errs []error
	if err := sshServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("ssh shutdown: %w", err))
	}
	if wsServer != nil {
		if err := wsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("ws shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// loadCatalog loads every map in dir. A missing or empty directory falls
// back to the built-in default map; any broken map is fatal.
func loadCatalog(dir string, log *zap.Logger) (*maps.Catalog, error) {
	catalog, err := maps.LoadDir(dir)
	switch {
	case errors.Is(err, maps.ErrNoMaps), errors.Is(err, fs.ErrNotExist):
		log.Warn("no maps loaded, using default map", zap.String("dir", dir), zap.Error(err))
		return maps.NewCatalog(maps.DefaultDefinition())
	case err != nil:
		return nil, fmt.Errorf("invalid map definitions: %w", err)
	}
	for _, id := range catalog.IDs() {
		d, _ := catalog.Get(id)
		log.Info("map loaded",
			zap.String("map", id),
			zap.Int("cols", d.Dims.Cols),
			zap.Int("rows", d.Dims.Rows),
			zap.Int("triggers", len(d.Triggers)),
			zap.Int("npcs", len(d.NPCTemplates)),
		)
	}
	return catalog, nil
}

func portOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i+1:]
		}
	}
	return addr
}

func ensureHostKey(path string, log *zap.Logger) error {
	if _, err := os.Stat(path); err == nil {
		return nil // key already exists
	}

	log.Info("generating new host key", zap.String("path", path))
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: keyBytes,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return pem.Encode(f, pemBlock)
}
