// Package config manages application configuration from default values,
// config.yaml, and BOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("configuration error")

// Default values for optional configuration parameters.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultDBPath = "bdaybot.db"

	DefaultDiskRemotePath = "bdays.xlsx"
	DefaultDiskLocalPath  = "bdays.xlsx"
	DefaultDiskTimeout    = 30 * time.Second

	DefaultLoaderFreshPeriod = time.Hour
	DefaultLoaderHorizonDays = 3
	DefaultLoaderTimeURL     = "https://worldtimeapi.org/api/timezone/Europe/Moscow"

	// Subscribed chats get the daily digest at 09:00 bot-local time.
	DefaultSchedulerDispatchCron = "0 9 * * *"

	DefaultBackupDir       = "backups"
	DefaultBackupRetention = 10
)

// LogConfig controls log verbosity and output encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// TelegramConfig identifies the bot account and its operator.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	AdminID int64  `mapstructure:"admin_id" validate:"required,gt=0"`
}

// DiskConfig covers the Yandex Disk account holding the shared workbook.
// AppID and AppSecret are only used by the /code token-renewal flow.
type DiskConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	AppID      string        `mapstructure:"app_id"`
	AppSecret  string        `mapstructure:"app_secret"`
	RemotePath string        `mapstructure:"remote_path" validate:"required"`
	LocalPath  string        `mapstructure:"local_path"  validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=5m"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoaderConfig tunes the refresh pipeline: how long cached messages stay
// fresh, how far ahead to look for birthdays, and where to ask for today's
// date.
type LoaderConfig struct {
	FreshPeriod time.Duration `mapstructure:"fresh_period" validate:"min=1m,max=24h"`
	HorizonDays int           `mapstructure:"horizon_days" validate:"min=1,max=31"`
	TimeURL     string        `mapstructure:"time_url"     validate:"url"`
}

// SchedulerConfig sets the daily dispatch schedule for subscribed chats.
type SchedulerConfig struct {
	DispatchCron string `mapstructure:"dispatch_cron" validate:"required"`
}

// BackupConfig controls local workbook snapshots taken before write-back.
type BackupConfig struct {
	Dir       string `mapstructure:"dir"       validate:"required"`
	Retention int    `mapstructure:"retention" validate:"min=1,max=100"`
}

// Config is the full application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Disk      DiskConfig      `mapstructure:"disk"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Loader    LoaderConfig    `mapstructure:"loader"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file
// 3. BOT_* environment variables
func Load() (*Config, error) {
	setDefaults()

	if err := readConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// readConfig initializes viper with the config file and environment source.
// A missing config file is fine; environment variables and defaults remain.
func readConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %v", err)
		}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.format", DefaultLogFormat)

	viper.SetDefault("database.path", DefaultDBPath)

	viper.SetDefault("disk.remote_path", DefaultDiskRemotePath)
	viper.SetDefault("disk.local_path", DefaultDiskLocalPath)
	viper.SetDefault("disk.timeout", DefaultDiskTimeout)

	viper.SetDefault("loader.fresh_period", DefaultLoaderFreshPeriod)
	viper.SetDefault("loader.horizon_days", DefaultLoaderHorizonDays)
	viper.SetDefault("loader.time_url", DefaultLoaderTimeURL)

	viper.SetDefault("scheduler.dispatch_cron", DefaultSchedulerDispatchCron)

	viper.SetDefault("backup.dir", DefaultBackupDir)
	viper.SetDefault("backup.retention", DefaultBackupRetention)
}
