package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leonixyz/oncalendar/internal/database"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	HMAC      HMACConfig      `mapstructure:"hmac"`
	Auditor   AuditorConfig   `mapstructure:"auditor"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type ServerConfig struct {
	Port    int           `mapstructure:"port"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type AuthConfig struct {
	MasterToken string `mapstructure:"master_token"`
	JWTSecret   string `mapstructure:"jwt_secret"`
}

type HMACConfig struct {
	DefaultSecret string `mapstructure:"default_secret"`
}

// AuditorConfig controls the backward catch-up sweep. LookbackHorizon
// and retention values accept day and week units ("30d", "2w") on top
// of the usual time.ParseDuration syntax.
type AuditorConfig struct {
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	LookbackCount   int           `mapstructure:"lookback_count"`
	LookbackHorizon string        `mapstructure:"lookback_horizon"`
	Timezone        string        `mapstructure:"timezone"`
}

type RetentionConfig struct {
	Schedules       string `mapstructure:"schedules"`
	Occurrences     string `mapstructure:"occurrences"`
	CleanupInterval string `mapstructure:"cleanup_interval"`
}

type RetentionDurations struct {
	Schedules       time.Duration
	Occurrences     time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the given file, falling back to
// config.yaml in the working directory and ./config when path is empty.
// Environment variables override file values.
func LoadWithPath(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout", "30s")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "oncalendar")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file_path", "logs/oncalendar.log")
	viper.SetDefault("logging.max_size_mb", 100)
	viper.SetDefault("logging.max_backups", 5)
	viper.SetDefault("logging.max_age_days", 30)
	viper.SetDefault("hmac.default_secret", "oncalendar")
	viper.SetDefault("auditor.scan_interval", "1m")
	viper.SetDefault("auditor.lookback_count", 100)
	viper.SetDefault("auditor.lookback_horizon", "30d")
	viper.SetDefault("auditor.timezone", "UTC")
	viper.SetDefault("retention.schedules", "0d")
	viper.SetDefault("retention.occurrences", "7d")
	viper.SetDefault("retention.cleanup_interval", "1h")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// ParseFlexibleDuration parses a duration string, additionally
// accepting "d" (days) and "w" (weeks) suffixes.
func ParseFlexibleDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	unit := s[len(s)-1]
	if unit == 'd' || unit == 'w' {
		n, err := strconv.Atoi(strings.TrimSpace(s[:len(s)-1]))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if unit == 'd' {
			return time.Duration(n) * 24 * time.Hour, nil
		}
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// LookbackHorizonDuration resolves the auditor's lookback horizon. A
// zero horizon means unbounded.
func (c AuditorConfig) LookbackHorizonDuration() (time.Duration, error) {
	if c.LookbackHorizon == "" {
		return 0, nil
	}
	return ParseFlexibleDuration(c.LookbackHorizon)
}

func (c *Config) ParseRetentionDurations() (RetentionDurations, error) {
	var out RetentionDurations
	var err error
	if out.Schedules, err = ParseFlexibleDuration(c.Retention.Schedules); err != nil {
		return out, fmt.Errorf("retention.schedules: %w", err)
	}
	if out.Occurrences, err = ParseFlexibleDuration(c.Retention.Occurrences); err != nil {
		return out, fmt.Errorf("retention.occurrences: %w", err)
	}
	if out.CleanupInterval, err = ParseFlexibleDuration(c.Retention.CleanupInterval); err != nil {
		return out, fmt.Errorf("retention.cleanup_interval: %w", err)
	}
	return out, nil
}

// ToDBConfig converts DatabaseConfig to database.Config
func (c DatabaseConfig) ToDBConfig() database.Config {
	return database.Config{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		DBName:   c.DBName,
		SSLMode:  c.SSLMode,
	}
}
