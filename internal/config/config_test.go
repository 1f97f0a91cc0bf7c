package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Dormant/internal/clock"
	"Dormant/internal/schedule"
)

var managedEnv = []string{
	"TAG", "DEFAULT", "SCHEDULE_TAG_FORCE", "EXCLUDE", "TIME",
	"EC2_SCHEDULE", "RDS_SCHEDULE", "AWS_REGION", "AWS_PROFILE", "DRY_RUN", "LOG_LEVEL",
	"DORMANT_SCHEDULE_EXCLUDE", "DORMANT_SERVER_PORT",
}

// clearEnv unsets every variable the loader reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedEnv {
		if old, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func validConfig() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			TagKey:  "schedule",
			Default: DefaultScheduleJSON(),
			Exclude: []string{},
			Time:    "gmt",
		},
		EC2:      KindConfig{Enabled: true},
		RDS:      KindConfig{Enabled: true},
		Server:   ServerConfig{Port: 8080},
		LogLevel: "info",
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name:    "exclusion list set",
			envVars: map[string]string{"EXCLUDE": "i-1,i-2"},
		},
		{
			name:    "empty exclusion list",
			envVars: map[string]string{"EXCLUDE": ""},
		},
		{
			name:    "prefixed exclusion list",
			envVars: map[string]string{"DORMANT_SCHEDULE_EXCLUDE": "i-1"},
		},
		{
			name:    "missing exclusion list",
			envVars: map[string]string{},
			wantErr: true,
		},
		{
			name:    "bad time mode",
			envVars: map[string]string{"EXCLUDE": "", "TIME": "utc"},
			wantErr: true,
		},
		{
			name:    "bad default schedule",
			envVars: map[string]string{"EXCLUDE": "", "DEFAULT": "mon_start=7"},
			wantErr: true,
		},
		{
			name:    "empty tag key",
			envVars: map[string]string{"EXCLUDE": "", "TAG": ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load("")
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && cfg == nil {
				t.Error("Load() returned nil config")
			}
		})
	}
}

func TestLoadMissingExclusionsIsConfigurationError(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	if !errors.Is(err, ErrMissingExclusions) {
		t.Errorf("Load() error = %v, want ErrMissingExclusions", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXCLUDE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Schedule.TagKey != "schedule" {
		t.Errorf("expected TagKey=schedule, got %s", cfg.Schedule.TagKey)
	}
	if cfg.Schedule.ForceCreate {
		t.Error("expected ForceCreate=false")
	}
	if cfg.TimeMode() != clock.ModeGMT {
		t.Errorf("expected time mode gmt, got %s", cfg.TimeMode())
	}
	if !cfg.EC2.Enabled || !cfg.RDS.Enabled {
		t.Error("expected both resource kinds enabled")
	}
	if len(cfg.Schedule.Exclude) != 0 {
		t.Errorf("expected empty exclusion list, got %v", cfg.Schedule.Exclude)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.Server.Port)
	}
	if cfg.Loop.Offset != 30*time.Second {
		t.Errorf("expected loop offset 30s, got %v", cfg.Loop.Offset)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel=info, got %s", cfg.LogLevel)
	}

	def, err := cfg.DefaultSchedule()
	if err != nil {
		t.Fatalf("DefaultSchedule() error = %v", err)
	}
	if len(def) != 5 {
		t.Errorf("expected 5 scheduled days, got %d", len(def))
	}
}

func TestLegacyEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXCLUDE", " i-1 , db-2,")
	t.Setenv("TAG", "office-hours")
	t.Setenv("SCHEDULE_TAG_FORCE", "True")
	t.Setenv("TIME", "local")
	t.Setenv("RDS_SCHEDULE", "False")
	t.Setenv("DEFAULT", `{"sat":{"start":9}}`)
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if got := cfg.Schedule.Exclude; len(got) != 2 || got[0] != "i-1" || got[1] != "db-2" {
		t.Errorf("unexpected exclusion list %q", got)
	}
	if cfg.Schedule.TagKey != "office-hours" {
		t.Errorf("expected TagKey=office-hours, got %s", cfg.Schedule.TagKey)
	}
	if !cfg.Schedule.ForceCreate {
		t.Error("expected ForceCreate=true")
	}
	if cfg.TimeMode() != clock.ModeLocal {
		t.Errorf("expected local time, got %s", cfg.TimeMode())
	}
	if !cfg.EC2.Enabled || cfg.RDS.Enabled {
		t.Errorf("expected ec2 on and rds off, got %v/%v", cfg.EC2.Enabled, cfg.RDS.Enabled)
	}
	if cfg.AWS.Region != "eu-west-1" {
		t.Errorf("expected region eu-west-1, got %s", cfg.AWS.Region)
	}

	def, err := cfg.DefaultSchedule()
	if err != nil {
		t.Fatalf("DefaultSchedule() error = %v", err)
	}
	if h, ok := def.StartHour(schedule.Saturday); !ok || h != 9 {
		t.Errorf("expected sat start 9, got %d %v", h, ok)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "dormant.yaml")
	content := `
schedule:
  tag_key: sched
  exclude:
    - i-abc
    - db-def
dry_run: true
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Schedule.TagKey != "sched" {
		t.Errorf("expected TagKey=sched, got %s", cfg.Schedule.TagKey)
	}
	if len(cfg.Schedule.Exclude) != 2 {
		t.Errorf("expected 2 exclusions, got %v", cfg.Schedule.Exclude)
	}
	if !cfg.DryRun {
		t.Error("expected DryRun=true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.Server.Port)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"nil exclusions", func(c *Config) { c.Schedule.Exclude = nil }, true},
		{"blank tag key", func(c *Config) { c.Schedule.TagKey = " " }, true},
		{"default not json", func(c *Config) { c.Schedule.Default = "not json" }, true},
		{"uppercase time mode", func(c *Config) { c.Schedule.Time = "LOCAL" }, false},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, true},
		{"auth without key", func(c *Config) { c.Server.EnableAuth = true }, true},
		{"offset too large", func(c *Config) { c.Loop.Offset = time.Hour }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{
			name: "leader election without lock file",
			mutate: func(c *Config) {
				c.LeaderElection = LeaderElectionConfig{Enabled: true, RetryPeriod: time.Second}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
