// Package config loads the round-timer daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/round-timer/internal/gpio"
	"github.com/sweeney/round-timer/internal/workout"
)

// Config is the whole daemon configuration.
type Config struct {
	Workout   WorkoutConfig `yaml:"workout"`
	Audio     AudioConfig   `yaml:"audio"`
	GPIO      GPIOConfig    `yaml:"gpio"`
	MQTT      MQTTConfig    `yaml:"mqtt"`
	HTTP      HTTPConfig    `yaml:"http"`
	Heartbeat time.Duration `yaml:"heartbeat"` // 0 disables
}

// WorkoutConfig holds the settings the engine starts with.
type WorkoutConfig struct {
	RoundLength int `yaml:"round_length"` // seconds
	RestLength  int `yaml:"rest_length"`  // seconds
	Rounds      int `yaml:"rounds"`
}

// AudioConfig selects the non-GPIO cue players.
type AudioConfig struct {
	Speaker      bool   `yaml:"speaker"`
	TickFile     string `yaml:"tick_file"` // Ogg Vorbis; empty = synthesized tone
	BellFile     string `yaml:"bell_file"`
	TerminalBell bool   `yaml:"terminal_bell"`
}

// GPIOConfig configures the buttons and buzzer.
type GPIOConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Buzzer   bool          `yaml:"buzzer"`
	Poll     time.Duration `yaml:"poll"`
	Debounce time.Duration `yaml:"debounce"`
	Pins     PinsConfig    `yaml:"pins"`
}

// PinsConfig holds BCM line offsets.
type PinsConfig struct {
	Start int `yaml:"start"`
	Pause int `yaml:"pause"`
	End   int `yaml:"end"`
	Tick  int `yaml:"tick"`
	Bell  int `yaml:"bell"`
}

// MQTTConfig configures publishing. An empty Broker disables MQTT.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Commands bool   `yaml:"commands"` // accept intents on the commands topic
}

// HTTPConfig configures the status server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	s := workout.DefaultSettings()
	p := gpio.DefaultPins
	return Config{
		Workout: WorkoutConfig{
			RoundLength: s.RoundLength,
			RestLength:  s.RestLength,
			Rounds:      s.Rounds,
		},
		Audio: AudioConfig{Speaker: true},
		GPIO: GPIOConfig{
			Enabled:  true,
			Buzzer:   true,
			Poll:     20 * time.Millisecond,
			Debounce: 30 * time.Millisecond,
			Pins: PinsConfig{
				Start: p.Start,
				Pause: p.Pause,
				End:   p.End,
				Tick:  p.Tick,
				Bell:  p.Bell,
			},
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "round-timer",
			Commands: true,
		},
		HTTP:      HTTPConfig{Addr: ":80"},
		Heartbeat: 15 * time.Minute,
	}
}

// Load reads the YAML file at path over the defaults. Keys missing from the
// file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg as YAML.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// Settings returns the workout settings the engine starts with.
func (c Config) Settings() workout.Settings {
	return workout.Settings{
		RoundLength: c.Workout.RoundLength,
		RestLength:  c.Workout.RestLength,
		Rounds:      c.Workout.Rounds,
	}
}

// Pins returns the GPIO wiring.
func (c Config) Pins() gpio.Pins {
	return gpio.Pins{
		Start: c.GPIO.Pins.Start,
		Pause: c.GPIO.Pins.Pause,
		End:   c.GPIO.Pins.End,
		Tick:  c.GPIO.Pins.Tick,
		Bell:  c.GPIO.Pins.Bell,
	}
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error
	if err := c.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("workout: %w", err))
	}
	if c.GPIO.Enabled {
		if c.GPIO.Poll <= 0 {
			errs = append(errs, errors.New("gpio: poll must be positive"))
		}
		if c.GPIO.Debounce < 0 {
			errs = append(errs, errors.New("gpio: debounce must not be negative"))
		}
	}
	if c.GPIO.Enabled || c.GPIO.Buzzer {
		seen := map[int]string{}
		for _, p := range []struct {
			name string
			pin  int
		}{
			{"start", c.GPIO.Pins.Start},
			{"pause", c.GPIO.Pins.Pause},
			{"end", c.GPIO.Pins.End},
			{"tick", c.GPIO.Pins.Tick},
			{"bell", c.GPIO.Pins.Bell},
		} {
			if p.pin < 0 {
				errs = append(errs, fmt.Errorf("gpio: %s pin %d is negative", p.name, p.pin))
				continue
			}
			if other, ok := seen[p.pin]; ok {
				errs = append(errs, fmt.Errorf("gpio: %s and %s share pin %d", other, p.name, p.pin))
			}
			seen[p.pin] = p.name
		}
	}
	if c.MQTT.Broker != "" && c.MQTT.ClientID == "" {
		errs = append(errs, errors.New("mqtt: client_id is required when a broker is set"))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, errors.New("heartbeat must not be negative"))
	}
	return errors.Join(errs...)
}
