package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/airjuggler/internal/app"
	"github.com/ayusman/airjuggler/internal/config"
	"github.com/ayusman/airjuggler/internal/game"
	"github.com/ayusman/airjuggler/internal/render"
	"github.com/ayusman/airjuggler/internal/server"
	"github.com/ayusman/airjuggler/internal/store"
	"github.com/ayusman/airjuggler/internal/telemetry"
	"github.com/ayusman/airjuggler/internal/tray"
)

func main() {
	fmt.Println("Air Juggler - Hand Paddle Juggling")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "airjuggler")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	}

	// Initialize the store
	dataDir, err := cfg.DataPath()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "airjuggler.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	appCfg := app.Config{
		Store:        st,
		Camera:       cfg.Camera(),
		Detector:     cfg.Detector(),
		Feed:         cfg.Feed(),
		Game:         cfg.Game(),
		MockDetector: cfg.MockDetector,
		Sound:        cfg.Sound,
	}

	var opts []app.Option
	var screen tcell.Screen
	if cfg.Terminal {
		screen, err = openTerminal(dataDir)
		if err != nil {
			log.Fatalf("Failed to open terminal: %v", err)
		}
		defer screen.Fini()
		opts = append(opts, app.WithRenderer(render.NewTerminal(screen)))
	}

	a := app.New(appCfg, opts...)

	hub := server.NewStateHub()
	a.OnTick(hub.Observe)

	// Find web directory
	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(dataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:   webDir,
		Game:        a,
		Leaderboard: a.Leaderboard(),
		Frames:      a.Canvas(),
		State:       hub,
	})
	httpSrv := srv.HTTPServer(cfg.Addr)

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	startGame := func() {
		if err := a.StartGame(ctx); err != nil {
			log.Printf("Cannot start game: %v", err)
		}
	}

	if screen != nil {
		go pollTerminal(screen, startGame, stop)
	}

	if cfg.Tray {
		tr := tray.New()
		tr.OnStart(func() {
			startGame()
			tr.SetPlaying(a.Status().Active)
		})
		tr.OnOpen(func() { openBrowser(browserURL(cfg.Addr)) })
		tr.OnClear(func() {
			if err := a.Leaderboard().Clear(); err != nil {
				log.Printf("Failed to clear leaderboard: %v", err)
			}
		})
		tr.OnQuit(stop)
		a.OnGameOver(func(o game.Outcome) {
			tr.SetPlaying(false)
			tr.SetLastScore(o.Score, o.Rank)
		})

		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	hub.Close()
	a.Shutdown()
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}
}

// openTerminal initializes a full-screen terminal and moves logging to a file
// so it does not scribble over the game.
func openTerminal(dataDir string) (tcell.Screen, error) {
	logFile, err := os.OpenFile(filepath.Join(dataDir, "airjuggler.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(logFile)

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// pollTerminal handles keys: space or enter starts a game, q or escape quits.
func pollTerminal(screen tcell.Screen, start, quit func()) {
	for {
		ev := screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
				quit()
				return
			case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
				quit()
				return
			case ev.Key() == tcell.KeyEnter || (ev.Key() == tcell.KeyRune && ev.Rune() == ' '):
				start()
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

// browserURL turns a listen address into a local URL.
func browserURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
