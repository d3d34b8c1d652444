package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/studiops/bankrecon/internal/categories"
	"github.com/studiops/bankrecon/internal/matching"
)

// FileName is the config file created by `bankrecon init`.
const FileName = "bankrecon.yaml"

// EnvPrefix prefixes environment overrides, e.g. BANKRECON_DATABASE_DSN.
const EnvPrefix = "BANKRECON"

// Config represents the top-level bankrecon.yaml configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Import   ImportConfig   `yaml:"import" mapstructure:"import"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Address        string   `yaml:"address" mapstructure:"address"`
	Port           int      `yaml:"port" mapstructure:"port"`
	Mode           string   `yaml:"mode" mapstructure:"mode"` // gin mode: debug, release or test
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" mapstructure:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver  string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
	LogMode bool   `yaml:"log_mode" mapstructure:"log_mode"`
}

// AuthConfig enables JWT identities. An empty secret trusts the X-Actor header.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	Issuer    string `yaml:"issuer" mapstructure:"issuer"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// WindowsConfig holds day windows per confidence tier; -1 disables a tier.
type WindowsConfig struct {
	High   int `yaml:"high" mapstructure:"high"`
	Medium int `yaml:"medium" mapstructure:"medium"`
	Low    int `yaml:"low" mapstructure:"low"`
}

// MatchingConfig holds the matching thresholds.
type MatchingConfig struct {
	ToleranceCents int64         `yaml:"tolerance_cents" mapstructure:"tolerance_cents"`
	FeePercent     float64       `yaml:"fee_percent" mapstructure:"fee_percent"` // 0.05 = 5%
	NameSimilarity float64       `yaml:"name_similarity" mapstructure:"name_similarity"`
	Exact          WindowsConfig `yaml:"exact_days" mapstructure:"exact_days"`
	Approx         WindowsConfig `yaml:"approx_days" mapstructure:"approx_days"`
	Acquirer       WindowsConfig `yaml:"acquirer_days" mapstructure:"acquirer_days"`
}

// ImportConfig controls the import pipeline.
type ImportConfig struct {
	DefaultCategory string `yaml:"default_category" mapstructure:"default_category"`
	FeeCategory     string `yaml:"fee_category" mapstructure:"fee_category"`
	MaxFileBytes    int64  `yaml:"max_file_bytes" mapstructure:"max_file_bytes"`
}

// Load reads a bankrecon.yaml file from disk. BANKRECON_* environment
// variables override file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so that env overrides apply even when the
// file omits it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.log_mode", d.Database.LogMode)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("matching.tolerance_cents", d.Matching.ToleranceCents)
	v.SetDefault("matching.fee_percent", d.Matching.FeePercent)
	v.SetDefault("matching.name_similarity", d.Matching.NameSimilarity)
	for key, w := range map[string]WindowsConfig{
		"exact_days":    d.Matching.Exact,
		"approx_days":   d.Matching.Approx,
		"acquirer_days": d.Matching.Acquirer,
	} {
		v.SetDefault("matching."+key+".high", w.High)
		v.SetDefault("matching."+key+".medium", w.Medium)
		v.SetDefault("matching."+key+".low", w.Low)
	}
	v.SetDefault("import.default_category", d.Import.DefaultCategory)
	v.SetDefault("import.fee_category", d.Import.FeeCategory)
	v.SetDefault("import.max_file_bytes", d.Import.MaxFileBytes)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	m := matching.DefaultConfig()
	fee, _ := m.FeePercent.Float64()
	return &Config{
		Server: ServerConfig{
			Address: "127.0.0.1",
			Port:    8080,
			Mode:    "release",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "bankrecon.db",
		},
		Auth: AuthConfig{
			Issuer: "bankrecon",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Matching: MatchingConfig{
			ToleranceCents: m.ToleranceCents,
			FeePercent:     fee,
			NameSimilarity: m.NameSimilarity,
			Exact:          windowsConfig(m.Exact),
			Approx:         windowsConfig(m.Approx),
			Acquirer:       windowsConfig(m.Acquirer),
		},
		Import: ImportConfig{
			DefaultCategory: categories.DefaultCategory,
			FeeCategory:     categories.FeeCategory,
			MaxFileBytes:    10 << 20,
		},
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Import.MaxFileBytes < 0 {
		return fmt.Errorf("import.max_file_bytes must not be negative")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	return nil
}

// Thresholds converts the matching settings into engine thresholds.
func (c *Config) Thresholds() matching.Config {
	m := c.Matching
	fee := c.Import.FeeCategory
	if fee == "" {
		fee = categories.FeeCategory
	}
	return matching.Config{
		ToleranceCents: m.ToleranceCents,
		FeePercent:     decimal.NewFromFloat(m.FeePercent),
		Exact:          m.Exact.windows(),
		Approx:         m.Approx.windows(),
		Acquirer:       m.Acquirer.windows(),
		NameSimilarity: m.NameSimilarity,
		FeeCategory:    fee,
	}
}

func windowsConfig(w matching.Windows) WindowsConfig {
	return WindowsConfig{High: w.High, Medium: w.Medium, Low: w.Low}
}

func (w WindowsConfig) windows() matching.Windows {
	return matching.Windows{High: w.High, Medium: w.Medium, Low: w.Low}
}
