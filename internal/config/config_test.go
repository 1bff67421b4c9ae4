package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "slotted")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with no config file failed: %v", err)
	}
	if cfg.Schedule.StepMinutes != 30 || cfg.Schedule.DaysAhead != 7 {
		t.Errorf("defaults not applied: %+v", cfg.Schedule)
	}
}

func TestLoad_RejectsDegenerateSchedule(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero step", "[schedule]\nstep_minutes = 0\n"},
		{"negative step", "[schedule]\nstep_minutes = -30\n"},
		{"zero duration", "[schedule]\nduration_minutes = 0\n"},
		{"inverted window", "[schedule]\nwindow_start_hour = 19\nwindow_end_hour = 9\n"},
	}

	for _, tc := range cases {
		writeConfig(t, tc.body)
		if _, err := Load(); err == nil {
			t.Errorf("%s: expected Load to reject the schedule section", tc.name)
		}
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	writeConfig(t, "[schedule]\nwindow_end_hour = 17\nstep_minutes = 15\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Schedule.WindowEndHour != 17 || cfg.Schedule.StepMinutes != 15 {
		t.Errorf("file values not applied: %+v", cfg.Schedule)
	}
	if cfg.Schedule.WindowStartHour != 9 {
		t.Errorf("untouched fields should keep defaults, got start hour %d", cfg.Schedule.WindowStartHour)
	}
}
