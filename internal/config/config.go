package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/christopherklint97/slotted/internal/slots"
)

type Config struct {
	Calendar CalendarConfig `toml:"calendar"`
	Schedule ScheduleConfig `toml:"schedule"`
	AI       AIConfig       `toml:"ai"`
	Notify   NotifyConfig   `toml:"notifications"`
}

type CalendarConfig struct {
	// Source is "google" or an ICS URL / file path.
	Source       string `toml:"source"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type ScheduleConfig struct {
	DaysAhead       int  `toml:"days_ahead"`
	WindowStartHour int  `toml:"window_start_hour"`
	WindowEndHour   int  `toml:"window_end_hour"`
	StepMinutes     int  `toml:"step_minutes"`
	DurationMinutes int  `toml:"duration_minutes"`
	IncludeWeekends bool `toml:"include_weekends"`
	MaxResults      int  `toml:"max_results"`
}

type AIConfig struct {
	Provider       string `toml:"provider"` // "openai" or "none"
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	p := slots.DefaultPolicy()
	return Config{
		Calendar: CalendarConfig{
			Source: "google",
		},
		Schedule: ScheduleConfig{
			DaysAhead:       7,
			WindowStartHour: p.WindowStartHour,
			WindowEndHour:   p.WindowEndHour,
			StepMinutes:     p.StepMinutes,
			DurationMinutes: p.DurationMinutes,
			IncludeWeekends: p.IncludeWeekends,
		},
		AI: AIConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 15,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
	}
}

// Policy converts the schedule section into the generator's policy value.
func (c ScheduleConfig) Policy() slots.Policy {
	return slots.Policy{
		WindowStartHour: c.WindowStartHour,
		WindowEndHour:   c.WindowEndHour,
		StepMinutes:     c.StepMinutes,
		DurationMinutes: c.DurationMinutes,
		IncludeWeekends: c.IncludeWeekends,
		MaxResults:      c.MaxResults,
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "slotted"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Schedule.Policy().Validate(); err != nil {
		return nil, fmt.Errorf("invalid [schedule] section in %s: %w", path, err)
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Calendar.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Calendar.ClientSecret = v
	}
	if v := os.Getenv("SLOTTED_ICS_URL"); v != "" {
		cfg.Calendar.Source = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
