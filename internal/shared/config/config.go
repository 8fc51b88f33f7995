package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EngineConfig contains all configuration for the gridflow step engine.
type EngineConfig struct {
	Poll      PollConfig      `mapstructure:"poll"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PollConfig controls the external polling loop that drives job reconciliation.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SchedulerConfig contains Grid Engine command-line tool locations and the
// directory where generated job scripts are written.
type SchedulerConfig struct {
	QsubPath  string `mapstructure:"qsub_path"`
	QstatPath string `mapstructure:"qstat_path"`
	QacctPath string `mapstructure:"qacct_path"`
	ScriptDir string `mapstructure:"script_dir"`
}

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads the engine configuration from the given path. If configPath is
// empty, it looks for gridflow.yaml in the config/ directory or the working
// directory. Environment variables with GRIDFLOW_ prefix override file values.
func Load(configPath string) (*EngineConfig, error) {
	v := viper.New()

	v.SetDefault("poll.interval", 2*time.Second)
	v.SetDefault("scheduler.qsub_path", "qsub")
	v.SetDefault("scheduler.qstat_path", "qstat")
	v.SetDefault("scheduler.qacct_path", "qacct")
	v.SetDefault("scheduler.script_dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gridflow")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("GRIDFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
