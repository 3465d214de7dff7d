// Command play runs a single local game session in the terminal, with the
// same maps, behaviors and save storage as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"gridrealm/internal/behavior"
	"gridrealm/internal/config"
	"gridrealm/internal/game"
	"gridrealm/internal/maps"
	"gridrealm/internal/persistence"
	"gridrealm/internal/render"
)

func main() {
	cfgPath := flag.String("config", config.Path(), "config file")
	name := flag.String("name", os.Getenv("USER"), "player name")
	logPath := flag.String("log", "gridrealm.log", "log file when the config sets none")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// The screen owns the terminal, so logs always go to a file.
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = *logPath
	}
	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *name == "" {
		*name = "Anonymous"
	}
	if err := run(cfg, *name, log); err != nil {
		log.Error("play stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, name string, log *zap.Logger) error {
	catalog, err := maps.LoadDir(cfg.World.MapsDir)
	if errors.Is(err, maps.ErrNoMaps) || errors.Is(err, fs.ErrNotExist) {
		log.Warn("no maps loaded, using default map", zap.String("dir", cfg.World.MapsDir))
		catalog, err = maps.NewCatalog(maps.DefaultDefinition())
	}
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	startMap := cfg.World.StartMap
	if _, ok := catalog.Get(startMap); !ok {
		startMap = catalog.IDs()[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer storage.Close()

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

	player, err := sessions.Open(ctx, name)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()

	runErr := make(chan error, 1)
	go func() { runErr <- player.Run(ctx) }()

	// PollEvent returns nil once the screen is finalized.
	go func() {
		for {
			switch ev := screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if a := keyAction(ev); a != game.ActionNone {
					player.Input(a)
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}()

	for frame := range player.Frames() {
		draw(screen, &frame)
	}
	screen.Fini()

	err = <-runErr
	if closeErr := sessions.Close(context.Background(), player); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("save session: %w", closeErr))
	}
	return err
}

func draw(screen tcell.Screen, f *game.Frame) {
	w, h := screen.Size()
	for y, row := range render.Compose(f, w, h) {
		for x, c := range row {
			style := tcell.StyleDefault.
				Foreground(tcell.NewRGBColor(int32(c.FgR), int32(c.FgG), int32(c.FgB))).
				Background(tcell.NewRGBColor(int32(c.BgR), int32(c.BgG), int32(c.BgB))).
				Bold(c.Bold)
			screen.SetContent(x, y, c.Ch, nil, style)
		}
	}
	screen.Show()
}
