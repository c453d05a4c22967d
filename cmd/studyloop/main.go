// Package main is the entry point for the StudyLoop daemon and CLI.
//
// Usage:
//
//	studyloop          - Start the daemon
//	studyloop serve    - Start the daemon
//	studyloop stats    - Show learning statistics
//	studyloop widget   - Show focus session widget
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/studyloop/studyloop/internal/config"
	"github.com/studyloop/studyloop/internal/events"
	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/gamify"
	"github.com/studyloop/studyloop/internal/notify"
	"github.com/studyloop/studyloop/internal/server"
	"github.com/studyloop/studyloop/internal/storage"
)

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve", "daemon", "d":
		runServe()
	case "stats", "s":
		runStats()
	case "widget", "w":
		if len(os.Args) > 2 && (os.Args[2] == "line" || os.Args[2] == "oneline") {
			runWidgetOneLine()
		} else {
			runWidget()
		}
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`StudyLoop - spaced repetition and focus tracking

Usage:
  studyloop [command]

Commands:
  serve, d     Start the daemon (default)
  stats, s     Show learning statistics
  widget, w    Show live focus session widget
  widget line  Output one-line status (for waybar/polybar)
  help         Show this help

Examples:
  studyloop                # Start the daemon
  studyloop stats          # Points, streak, level
  studyloop widget line    # "▶ 42m work · 5m break"`)
}

func runServe() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("StudyLoop starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	log.Printf("Storage initialized at: %s", cfg.StoragePath)

	bus := events.NewBus()

	socket := events.NewServer(cfg.SocketPath, bus)
	if err := socket.Start(); err != nil {
		log.Printf("Socket broadcast unavailable: %v", err)
	} else {
		defer socket.Stop()
	}

	var notifier focus.Notifier
	if cfg.DesktopNotifications {
		notifier = notify.NewDesktopNotifier()
	}

	engine := focus.NewEngine(focus.Config{
		Store:       store,
		Bus:         bus,
		Notifier:    notifier,
		UserID:      cfg.UserID,
		GoalMinutes: cfg.Focus.DefaultGoalMinutes,
	})
	if recovered, err := engine.LoadActive(); err != nil {
		log.Printf("Session recovery failed: %v", err)
	} else if recovered.Status != focus.StatusIdle || recovered.NeedsPrompt {
		log.Printf("Recovered session: status=%s work=%.0fs prompt=%v",
			recovered.Status, recovered.WorkSeconds, recovered.NeedsPrompt)
	}

	svc := gamify.NewService(store, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go engine.Run(ctx)

	srv := server.New(cfg.ListenAddr, cfg.UserID, store, svc, engine)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	log.Println("StudyLoop running. Press Ctrl+C to stop.")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}

	log.Println("StudyLoop stopped.")
}

func runStats() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := gamify.NewService(store, nil)
	view, err := svc.Stats(cfg.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Level %d  (%d/%d points, %.0f%%)\n",
		view.Level.Level, view.Level.PointsIntoLevel, view.Level.NextLevelCost, view.Level.Progress*100)
	fmt.Printf("Total points:   %d\n", view.TotalPoints)
	fmt.Printf("Total reviews:  %d\n", view.TotalReviews)
	fmt.Printf("Current streak: %d days (longest %d)\n", view.CurrentStreak, view.LongestStreak)
	fmt.Printf("Mastered items: %d\n", view.MasteredItems)
	fmt.Printf("Focus sessions: %d (%.0f minutes)\n", view.FocusSessions, view.FocusMinutes)
}
