// Command round-timer runs the interval workout timer as a daemon: buttons and
// a buzzer on GPIO, a speaker, MQTT events and commands, and an HTTP status page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/round-timer/internal/buttons"
	"github.com/sweeney/round-timer/internal/clock"
	"github.com/sweeney/round-timer/internal/config"
	"github.com/sweeney/round-timer/internal/cue"
	"github.com/sweeney/round-timer/internal/gpio"
	"github.com/sweeney/round-timer/internal/mqtt"
	"github.com/sweeney/round-timer/internal/status"
	"github.com/sweeney/round-timer/internal/web"
	"github.com/sweeney/round-timer/internal/workout"
)

// options are command-line switches that are not part of the config file.
type options struct {
	printState  bool
	printConfig bool
}

func main() {
	cfg, opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags loads the config file, if any, then applies every flag that was
// set explicitly on the command line.
func parseFlags(args []string) (config.Config, options, error) {
	def := config.Default()
	fs := flag.NewFlagSet("round-timer", flag.ContinueOnError)

	configPath := fs.String("config", "", "YAML config file (built-in defaults if empty)")
	poll := fs.Duration("poll", def.GPIO.Poll, "Button polling interval")
	debounce := fs.Duration("debounce", def.GPIO.Debounce, "Button debounce duration")
	broker := fs.String("broker", def.MQTT.Broker, "MQTT broker address (empty to disable)")
	heartbeat := fs.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	noGPIO := fs.Bool("no-gpio", false, "Disable buttons and buzzer")
	noSpeaker := fs.Bool("no-speaker", false, "Disable the speaker")
	roundLength := fs.Int("round-length", def.Workout.RoundLength, "Round length in seconds")
	restLength := fs.Int("rest-length", def.Workout.RestLength, "Rest length in seconds")
	rounds := fs.Int("rounds", def.Workout.Rounds, "Number of rounds")

	var opts options
	fs.BoolVar(&opts.printState, "print-state", false, "Print current button state and exit")
	fs.BoolVar(&opts.printConfig, "print-config", false, "Print the effective config as YAML and exit")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, opts, err
	}

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, opts, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "poll":
			cfg.GPIO.Poll = *poll
		case "debounce":
			cfg.GPIO.Debounce = *debounce
		case "broker":
			cfg.MQTT.Broker = *broker
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "http":
			cfg.HTTP.Addr = *httpAddr
		case "no-gpio":
			if *noGPIO {
				cfg.GPIO.Enabled = false
				cfg.GPIO.Buzzer = false
			}
		case "no-speaker":
			if *noSpeaker {
				cfg.Audio.Speaker = false
			}
		case "round-length":
			cfg.Workout.RoundLength = *roundLength
		case "rest-length":
			cfg.Workout.RestLength = *restLength
		case "rounds":
			cfg.Workout.Rounds = *rounds
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, opts, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, opts, nil
}

func run(cfg config.Config, opts options) error {
	if opts.printConfig {
		return config.Write(os.Stdout, cfg)
	}

	// Initialize GPIO buttons
	var reader gpio.Reader
	if cfg.GPIO.Enabled {
		r, err := gpio.NewRealReader(cfg.Pins())
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer r.Close()
		reader = r
	}

	// Print state mode
	if opts.printState {
		if reader == nil {
			return errors.New("print-state needs gpio enabled")
		}
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("START: %s, PAUSE: %s, END: %s\n", levelString(s.Start), levelString(s.Pause), levelString(s.End))
		return nil
	}

	players, names, closers := buildPlayers(cfg)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Printf("cue: close: %v", err)
			}
		}
	}()

	// Initialize MQTT
	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = offlinePublisher{}
	if cfg.MQTT.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clock.Real, status.Config{
		PollMs:      cfg.GPIO.Poll.Milliseconds(),
		DebounceMs:  cfg.GPIO.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Players:     names,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	transitions := make(chan workout.Transition, 64)
	engine := workout.New(cfg.Settings(), workout.Options{
		Clock:        clock.Real,
		Player:       players,
		OnUpdate:     tracker.UpdateWorkout,
		OnTransition: forwardTransitions(tracker, transitions),
	})
	defer engine.Close()

	if cmd, ok := publisher.(mqtt.Commander); ok && cfg.MQTT.Commands {
		err := cmd.SubscribeCommands(func(in workout.Intent) {
			log.Printf("mqtt: command %s (applied=%v)", in, engine.Dispatch(in))
		})
		if err != nil {
			log.Printf("mqtt: subscribe commands: %v", err)
		}
	}

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, engine)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: settings=%+v poll=%v debounce=%v broker=%q heartbeat=%v cues=%v",
		cfg.Settings(), cfg.GPIO.Poll, cfg.GPIO.Debounce, cfg.MQTT.Broker, cfg.Heartbeat, names)

	ticker := time.NewTicker(cfg.GPIO.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		reader:      reader,
		control:     engine,
		publisher:   publisher,
		mqttStatus:  publisher,
		tracker:     tracker,
		transitions: transitions,
		debounce:    cfg.GPIO.Debounce,
		heartbeat:   cfg.Heartbeat,
		now:         time.Now,
	}, ticker.C, sigCh)
}

// buildPlayers opens every configured cue player. A player that fails to
// open is logged and left out; the timer still runs silently.
func buildPlayers(cfg config.Config) (cue.Multi, []string, []io.Closer) {
	var (
		players cue.Multi
		names   []string
		closers []io.Closer
	)
	if cfg.GPIO.Buzzer {
		b, err := gpio.NewRealBuzzer(cfg.Pins(), clock.Real)
		if err != nil {
			log.Printf("cue: buzzer unavailable: %v", err)
		} else {
			players = append(players, b)
			names = append(names, "buzzer")
			closers = append(closers, b)
		}
	}
	if cfg.Audio.Speaker {
		s, err := cue.NewSpeaker(cfg.Audio.TickFile, cfg.Audio.BellFile)
		if err != nil {
			log.Printf("cue: speaker unavailable: %v", err)
		} else {
			players = append(players, s)
			names = append(names, "speaker")
			closers = append(closers, s)
		}
	}
	if cfg.Audio.TerminalBell {
		players = append(players, cue.TerminalBell{W: os.Stdout})
		names = append(names, "terminal-bell")
	}
	return players, names, closers
}

// forwardTransitions counts each transition and hands it to runLoop for
// publishing. Engine observers must not block, so a full queue drops.
func forwardTransitions(tracker *status.Tracker, out chan<- workout.Transition) func(workout.Transition) {
	return func(tr workout.Transition) {
		tracker.RecordTransition(tr)
		select {
		case out <- tr:
		default:
			log.Printf("workout: transition queue full, dropping %s", tr.Type)
		}
	}
}

// controller is the part of the engine runLoop drives.
type controller interface {
	Dispatch(in workout.Intent) bool
	Snapshot() workout.Snapshot
}

type loopDeps struct {
	reader      gpio.Reader // nil when buttons are disabled
	control     controller
	publisher   mqtt.Publisher
	mqttStatus  mqtt.ConnectionStatus
	tracker     *status.Tracker
	transitions <-chan workout.Transition
	debounce    time.Duration
	heartbeat   time.Duration
	now         func() time.Time
}

func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := d.now()
	detector := buttons.NewDetector(d.debounce)
	hb := status.NewHeartbeat(d.heartbeat, startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			drainTransitions(d)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: d.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				if d.mqttStatus != nil {
					d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
				}
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case tr := <-d.transitions:
			publishTransition(d.publisher, tr)

		case <-tick:
			t := d.now()
			if d.reader != nil {
				pollButtons(d, detector, t)
			}

			// Check for heartbeat
			if hb.Check(t) {
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if d.tracker != nil {
					if d.mqttStatus != nil {
						d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						d.tracker.SetNetwork(net)
					}
					snap := d.tracker.Snapshot()
					log.Printf("heartbeat: uptime=%v phase=%s started=%d completed=%d",
						snap.Uptime().Truncate(time.Second), snap.Workout.Phase, snap.Counts.Started, snap.Counts.Completed)
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if d.tracker != nil && d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}
		}
	}
}

// pollButtons reads the buttons once and dispatches any presses.
func pollButtons(d loopDeps, detector *buttons.Detector, t time.Time) {
	s, err := d.reader.Read()
	if err != nil {
		log.Printf("gpio read error: %v", err)
		return
	}

	presses := detector.Process(buttons.Input{
		Start: s.Start,
		Pause: s.Pause,
		End:   s.End,
		Time:  t,
	})
	for _, p := range presses {
		phase := d.control.Snapshot().Phase
		in, ok := buttons.IntentFor(p.Button, phase)
		if !ok {
			log.Printf("button: %s ignored in %s", p.Button, phase)
			continue
		}
		applied := d.control.Dispatch(in)
		log.Printf("button: %s -> %s (applied=%v)", p.Button, in, applied)
	}

	if d.tracker != nil {
		d.tracker.UpdateButtons(detector.IsBaselined(), detector.Counts())
	}
}

// drainTransitions publishes whatever is queued without blocking.
func drainTransitions(d loopDeps) {
	for {
		select {
		case tr := <-d.transitions:
			publishTransition(d.publisher, tr)
		default:
			return
		}
	}
}

func publishTransition(p mqtt.Publisher, tr workout.Transition) {
	log.Printf("event: %s (phase=%s round=%d/%d time_left=%d paused=%v)",
		tr.Type, tr.Phase, tr.Round, tr.Rounds, tr.TimeLeft, tr.Paused)
	if err := p.Publish(tr); err != nil {
		log.Printf("publish error: %v", err)
		// Don't crash on publish failure
	}
}

// offlinePublisher stands in when no broker is configured.
type offlinePublisher struct{}

func (offlinePublisher) Publish(workout.Transition) error     { return nil }
func (offlinePublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (offlinePublisher) Close() error                         { return nil }
func (offlinePublisher) IsConnected() bool                    { return false }

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func levelString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
