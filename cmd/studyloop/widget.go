package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyloop/studyloop/internal/config"
	"github.com/studyloop/studyloop/internal/events"
	"github.com/studyloop/studyloop/internal/focus"
	"github.com/studyloop/studyloop/internal/storage"
)

// ANSI escape codes for the terminal widget.
const (
	cReset  = "\033[0m"
	cBold   = "\033[1m"
	cDim    = "\033[2m"
	cGreen  = "\033[32m"
	cYellow = "\033[33m"
	cCyan   = "\033[36m"

	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// widgetState is the polled view of the active session.
type widgetState struct {
	Active       bool
	Status       focus.Status
	GoalMinutes  int
	WorkSeconds  float64
	BreakSeconds float64
}

// readWidgetState rebuilds the session view from the store. The widget
// is read-only: it never opens segments or mutates session state.
func readWidgetState(store *storage.Store, userID string) (*widgetState, error) {
	session, err := store.ActiveSession(userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &widgetState{}, nil
	}

	segs, err := store.Segments(session.ID)
	if err != nil {
		return nil, err
	}

	state := &widgetState{
		Active:      true,
		Status:      focus.StatusIdle,
		GoalMinutes: session.GoalMinutes,
	}
	now := time.Now()
	for _, seg := range segs {
		seconds := seg.DurationMinutes * 60
		if seg.EndedAt == nil {
			seconds = now.Sub(seg.StartedAt).Seconds()
			if seg.Type == focus.SegmentWork {
				state.Status = focus.StatusWorking
			} else {
				state.Status = focus.StatusBreak
			}
		}
		if seg.Type == focus.SegmentWork {
			state.WorkSeconds += seconds
		} else {
			state.BreakSeconds += seconds
		}
	}
	return state, nil
}

func openWidgetStore() (*storage.Store, *config.Config) {
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
	return store, cfg
}

// runWidget renders a live terminal widget. The daemon socket pushes
// session events for instant redraws; the one-second ticker keeps the
// clock moving and covers the daemon being down.
func runWidget() {
	store, cfg := openWidgetStore()
	defer store.Close()

	fmt.Print(hideCursor)
	defer fmt.Print(showCursor)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		fmt.Print(showCursor)
		fmt.Print(clearScreen)
		os.Exit(0)
	}()

	refresh := make(chan struct{}, 1)
	client := events.NewClient()
	client.OnEvent(func(events.Event) {
		select {
		case refresh <- struct{}{}:
		default:
		}
	})
	if err := client.Connect(cfg.SocketPath); err == nil {
		defer client.Close()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		state, err := readWidgetState(store, cfg.UserID)
		if err != nil {
			state = &widgetState{}
		}

		fmt.Print(clearScreen)
		drawWidget(state)

		select {
		case <-ticker.C:
		case <-refresh:
		}
	}
}

func drawWidget(state *widgetState) {
	if !state.Active {
		fmt.Printf("\n  %s○ no active session%s\n", cDim, cReset)
		fmt.Printf("  %sstudyloop serve must be running%s\n", cDim, cReset)
		return
	}

	icon, color := "⏸", cYellow
	if state.Status == focus.StatusWorking {
		icon, color = "▶", cGreen
	} else if state.Status == focus.StatusBreak {
		icon, color = "☕", cCyan
	}

	fmt.Println()
	fmt.Printf("  %s%s%s %s%s%s\n", color, icon, cReset, cBold, statusLabel(state.Status), cReset)
	fmt.Printf("  work  %s\n", formatClock(state.WorkSeconds))
	fmt.Printf("  break %s\n", formatClock(state.BreakSeconds))
	if state.GoalMinutes > 0 {
		pct := state.WorkSeconds / 60 / float64(state.GoalMinutes) * 100
		if pct > 100 {
			pct = 100
		}
		fmt.Printf("  goal  %d min (%.0f%%)\n", state.GoalMinutes, pct)
	}
}

// runWidgetOneLine prints a single status line for bar integrations.
func runWidgetOneLine() {
	store, cfg := openWidgetStore()
	defer store.Close()

	state, err := readWidgetState(store, cfg.UserID)
	if err != nil || !state.Active {
		fmt.Println("○ idle")
		return
	}

	icon := "⏸"
	switch state.Status {
	case focus.StatusWorking:
		icon = "▶"
	case focus.StatusBreak:
		icon = "☕"
	}
	fmt.Printf("%s %.0fm work · %.0fm break\n", icon, state.WorkSeconds/60, state.BreakSeconds/60)
}

func statusLabel(s focus.Status) string {
	switch s {
	case focus.StatusWorking:
		return "WORKING"
	case focus.StatusBreak:
		return "ON BREAK"
	default:
		return "PAUSED"
	}
}

func formatClock(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
