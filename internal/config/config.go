package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"Dormant/internal/clock"
	"Dormant/internal/schedule"
)

// ErrMissingExclusions is returned when no exclusion list was configured.
// An empty list is fine; an absent one is not.
var ErrMissingExclusions = errors.New("schedule.exclude (EXCLUDE) is required")

type Config struct {
	Schedule       ScheduleConfig       `mapstructure:"schedule"`
	EC2            KindConfig           `mapstructure:"ec2"`
	RDS            KindConfig           `mapstructure:"rds"`
	AWS            AWSConfig            `mapstructure:"aws"`
	Server         ServerConfig         `mapstructure:"server"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	LeaderElection LeaderElectionConfig `mapstructure:"leader_election"`
	Loop           LoopConfig           `mapstructure:"loop"`
	DryRun         bool                 `mapstructure:"dry_run"`
	LogLevel       string               `mapstructure:"log_level"`
}

type ScheduleConfig struct {
	TagKey      string   `mapstructure:"tag_key"`
	Default     string   `mapstructure:"default"`
	ForceCreate bool     `mapstructure:"force_create"`
	Exclude     []string `mapstructure:"exclude"`
	Time        string   `mapstructure:"time"`
}

type KindConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type AWSConfig struct {
	Region         string `mapstructure:"region"`
	Profile        string `mapstructure:"profile"`
	UseIMDSRegion  bool   `mapstructure:"use_imds_region"`
	FallbackRegion string `mapstructure:"fallback_region"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIKey       string        `mapstructure:"api_key"`
	EnableAuth   bool          `mapstructure:"enable_auth"`
}

type ObservabilityConfig struct {
	EnableMetrics   bool   `mapstructure:"enable_metrics"`
	MetricsPath     string `mapstructure:"metrics_path"`
	HealthCheckPath string `mapstructure:"health_check_path"`
	ReadinessPath   string `mapstructure:"readiness_path"`
}

type LeaderElectionConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	LockFilePath string        `mapstructure:"lock_file_path"`
	RetryPeriod  time.Duration `mapstructure:"retry_period"`
}

// LoopConfig controls the built-in hourly trigger of serve mode.
type LoopConfig struct {
	// Offset delays each pass past the top of the hour.
	Offset time.Duration `mapstructure:"offset"`
}

// legacyEnv maps config keys to the environment variable names used by
// existing deployments of the scheduler.
var legacyEnv = map[string]string{
	"schedule.tag_key":      "TAG",
	"schedule.default":      "DEFAULT",
	"schedule.force_create": "SCHEDULE_TAG_FORCE",
	"schedule.exclude":      "EXCLUDE",
	"schedule.time":         "TIME",
	"ec2.enabled":           "EC2_SCHEDULE",
	"rds.enabled":           "RDS_SCHEDULE",
	"aws.region":            "AWS_REGION",
	"aws.profile":           "AWS_PROFILE",
	"dry_run":               "DRY_RUN",
	"log_level":             "LOG_LEVEL",
}

// Load reads configuration from environment variables and optional config file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DORMANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "DORMANT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if !v.IsSet("schedule.exclude") {
		return nil, ErrMissingExclusions
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Schedule.Exclude = splitList(cfg.Schedule.Exclude)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Schedule defaults
	v.SetDefault("schedule.tag_key", "schedule")
	v.SetDefault("schedule.default", DefaultScheduleJSON())
	v.SetDefault("schedule.force_create", false)
	v.SetDefault("schedule.time", string(clock.ModeGMT))

	v.SetDefault("ec2.enabled", true)
	v.SetDefault("rds.enabled", true)

	// AWS defaults
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.use_imds_region", false)
	v.SetDefault("aws.fallback_region", "us-east-1")

	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.enable_auth", false)

	// Observability defaults
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.metrics_path", "/metrics")
	v.SetDefault("observability.health_check_path", "/health")
	v.SetDefault("observability.readiness_path", "/ready")

	// Leader election defaults
	v.SetDefault("leader_election.enabled", false)
	v.SetDefault("leader_election.lock_file_path", "/tmp/dormant-leader.lock")
	v.SetDefault("leader_election.retry_period", 5*time.Second)

	v.SetDefault("loop.offset", 30*time.Second)

	// General defaults
	v.SetDefault("dry_run", false)
	v.SetDefault("log_level", "info")
}

// DefaultScheduleJSON is the built-in default schedule in the nested encoding.
func DefaultScheduleJSON() string {
	value, _ := schedule.NestedCodec{}.Encode(schedule.Default())
	return value
}

// splitList accepts both list values from config files and a single
// comma-separated string from the environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, id := range strings.Split(item, ",") {
			if id = strings.TrimSpace(id); id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

// DefaultSchedule decodes schedule.default.
func (c *Config) DefaultSchedule() (schedule.Schedule, error) {
	return schedule.NestedCodec{}.Decode(c.Schedule.Default)
}

// TimeMode returns the configured clock mode.
func (c *Config) TimeMode() clock.Mode {
	return clock.Mode(strings.ToLower(c.Schedule.Time))
}

func (c *Config) Validate() error {
	// Schedule validation
	if c.Schedule.Exclude == nil {
		return ErrMissingExclusions
	}
	if strings.TrimSpace(c.Schedule.TagKey) == "" {
		return fmt.Errorf("schedule.tag_key must not be empty")
	}
	if _, err := c.DefaultSchedule(); err != nil {
		return fmt.Errorf("schedule.default: %w", err)
	}
	switch c.TimeMode() {
	case clock.ModeGMT, clock.ModeLocal:
	default:
		return fmt.Errorf("schedule.time must be either 'gmt' or 'local'")
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.EnableAuth && c.Server.APIKey == "" {
		return fmt.Errorf("server.api_key is required when server.enable_auth is true")
	}

	if c.Loop.Offset < 0 || c.Loop.Offset >= time.Hour {
		return fmt.Errorf("loop.offset must be within [0, 1h)")
	}

	// Leader election validation
	if c.LeaderElection.Enabled {
		if c.LeaderElection.LockFilePath == "" {
			return fmt.Errorf("leader_election.lock_file_path is required when enabled")
		}
		if c.LeaderElection.RetryPeriod <= 0 {
			return fmt.Errorf("leader_election.retry_period must be > 0")
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	return nil
}
