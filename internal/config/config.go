package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/openams/openams/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Lifecycle  LifecycleConfig  `validate:"required"`
	Scheduler  SchedulerConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// LifecycleConfig carries the system-wide day-count defaults for the
// membership lifecycle. Plans may override each window individually; an
// override of 0 falls back to these values.
type LifecycleConfig struct {
	GraceDays     int `mapstructure:"grace_days" validate:"gte=0"`
	SuspendDays   int `mapstructure:"suspend_days" validate:"gte=0"`
	TerminateDays int `mapstructure:"terminate_days" validate:"gte=0"`

	// MaxPaymentRetries bounds the dunning process before final escalation
	MaxPaymentRetries int `mapstructure:"max_payment_retries" validate:"gte=1"`

	// PolicyCacheTTLSeconds bounds how long resolved period policies are
	// cached; admins may change defaults at runtime
	PolicyCacheTTLSeconds int `mapstructure:"policy_cache_ttl_seconds" validate:"gte=0"`

	// ScanWorkers bounds the per-scan worker pool
	ScanWorkers int `mapstructure:"scan_workers" validate:"gte=1"`
}

// SchedulerConfig holds the cron expressions used by cmd/cron
type SchedulerConfig struct {
	GraceScan        string `mapstructure:"grace_scan"`
	SuspensionScan   string `mapstructure:"suspension_scan"`
	TerminationScan  string `mapstructure:"termination_scan"`
	RenewalScan      string `mapstructure:"renewal_scan"`
	DunningRetryScan string `mapstructure:"dunning_retry_scan"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/openams")

	v.SetEnvPrefix("OPENAMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("lifecycle.grace_days", 30)
	v.SetDefault("lifecycle.suspend_days", 60)
	v.SetDefault("lifecycle.terminate_days", 90)
	v.SetDefault("lifecycle.max_payment_retries", 3)
	v.SetDefault("lifecycle.policy_cache_ttl_seconds", 300)
	v.SetDefault("lifecycle.scan_workers", 8)
	v.SetDefault("scheduler.grace_scan", "0 2 * * *")
	v.SetDefault("scheduler.suspension_scan", "15 2 * * *")
	v.SetDefault("scheduler.termination_scan", "30 2 * * *")
	v.SetDefault("scheduler.renewal_scan", "0 3 * * *")
	v.SetDefault("scheduler.dunning_retry_scan", "0 */6 * * *")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Lifecycle: LifecycleConfig{
			GraceDays:             30,
			SuspendDays:           60,
			TerminateDays:         90,
			MaxPaymentRetries:     3,
			PolicyCacheTTLSeconds: 300,
			ScanWorkers:           4,
		},
	}
}
