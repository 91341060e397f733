package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Generation GenerationConfig `mapstructure:"generation"`
	Fonts      FontsConfig      `mapstructure:"fonts"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// DirectionsConfig configures the external directions provider.
type DirectionsConfig struct {
	APIKey string `mapstructure:"api_key"`
	// RequestsPerSecond caps the shared outbound request rate.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxRetries        int     `mapstructure:"max_retries"`
	// SegmentPacingMs is the pause between per-segment requests during
	// snapping, in milliseconds.
	SegmentPacingMs int `mapstructure:"segment_pacing_ms"`
}

// GenerationConfig holds run defaults applied when a request leaves
// an option unset.
type GenerationConfig struct {
	DefaultNumSegments    int     `mapstructure:"default_num_segments"`
	DefaultMaxWaypoints   int     `mapstructure:"default_max_waypoints"`
	DefaultTolerance      float64 `mapstructure:"default_tolerance"`
	DefaultMaxLoops       int     `mapstructure:"default_max_loops"`
	DefaultTargetDistance float64 `mapstructure:"default_target_distance"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
	TaskQueue             string  `mapstructure:"task_queue"`
	UseWorkflow           bool    `mapstructure:"use_workflow"`
}

type FontsConfig struct {
	// Path to a TTF/OTF font file; empty falls back to the builtin
	// digit outlines.
	Path string `mapstructure:"path"`
	// ShapeDir holds extra SVG shape outlines, optional.
	ShapeDir string `mapstructure:"shape_dir"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "routepainter")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "routepainter")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("directions.requests_per_second", 5.0)
	v.SetDefault("directions.max_retries", 3)
	v.SetDefault("directions.segment_pacing_ms", 300)
	v.SetDefault("generation.default_num_segments", 5)
	v.SetDefault("generation.default_max_waypoints", 8)
	v.SetDefault("generation.default_tolerance", 0.15)
	v.SetDefault("generation.default_max_loops", 3)
	v.SetDefault("generation.default_target_distance", 10000.0)
	v.SetDefault("generation.request_timeout_seconds", 120)
	v.SetDefault("generation.task_queue", "route-generation")
	v.SetDefault("generation.use_workflow", false)
	v.SetDefault("fonts.path", "")
	v.SetDefault("fonts.shape_dir", "")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ROUTEPAINTER_DATABASE_HOST → database.host
	v.SetEnvPrefix("ROUTEPAINTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Directions.RequestsPerSecond < 0 {
		errs = append(errs, "directions.requests_per_second must not be negative")
	}
	if c.Generation.DefaultTolerance <= 0 || c.Generation.DefaultTolerance >= 1 {
		errs = append(errs, fmt.Sprintf("generation.default_tolerance must be in (0, 1), got %v", c.Generation.DefaultTolerance))
	}
	if c.Generation.DefaultTargetDistance < 500 || c.Generation.DefaultTargetDistance > 100000 {
		errs = append(errs, "generation.default_target_distance must be 500-100000 meters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
