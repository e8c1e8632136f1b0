// Command round-timer-tui runs the interval workout timer in a terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sweeney/round-timer/internal/clock"
	"github.com/sweeney/round-timer/internal/config"
	"github.com/sweeney/round-timer/internal/cue"
	"github.com/sweeney/round-timer/internal/tui"
	"github.com/sweeney/round-timer/internal/workout"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (built-in defaults if empty)")
	logFile := flag.String("log", "", "Write logs to this file (discarded if empty)")
	noSpeaker := flag.Bool("no-speaker", false, "Disable the speaker")
	flag.Parse()

	if err := run(*configPath, *logFile, *noSpeaker); err != nil {
		fmt.Fprintf(os.Stderr, "round-timer-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logFile string, noSpeaker bool) error {
	// The alt screen owns the terminal; logs go to a file or nowhere.
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "round-timer")
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	settings := cfg.Settings()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	players := cue.Multi{cue.TerminalBell{W: os.Stderr}}
	if cfg.Audio.Speaker && !noSpeaker {
		s, err := cue.NewSpeaker(cfg.Audio.TickFile, cfg.Audio.BellFile)
		if err != nil {
			log.Printf("cue: speaker unavailable: %v", err)
		} else {
			defer s.Close()
			players = append(players, s)
		}
	}

	var notify tui.Notifier
	engine := workout.New(settings, workout.Options{
		Clock:    clock.Real,
		Player:   players,
		OnUpdate: notify.Update,
		OnTransition: func(tr workout.Transition) {
			log.Printf("event: %s (phase=%s round=%d/%d)", tr.Type, tr.Phase, tr.Round, tr.Rounds)
		},
	})
	defer engine.Close()

	p := tea.NewProgram(tui.New(engine), tea.WithAltScreen())
	notify.Attach(p)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
