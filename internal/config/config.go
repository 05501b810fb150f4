package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type CompilerConfig struct {
	Command string `mapstructure:"command"`
	StdFlag string `mapstructure:"std_flag"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type Config struct {
	SubmissionsDir string         `mapstructure:"submissions_dir"`
	OutputDir      string         `mapstructure:"output_dir"`
	RubricPath     string         `mapstructure:"rubric_path"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds"`
	Compiler       CompilerConfig `mapstructure:"compiler"`
	Storage        StorageConfig  `mapstructure:"storage"`
	Server         ServerConfig   `mapstructure:"server"`
}

// Load reads proctor.yaml from the working directory or ~/.proctor. A
// missing config file is fine; the defaults describe a usable layout
// with submissions and logs next to the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("proctor")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.proctor")

	v.SetDefault("submissions_dir", "./submissions")
	v.SetDefault("output_dir", "./logs")
	v.SetDefault("rubric_path", "")
	v.SetDefault("timeout_seconds", 300)
	v.SetDefault("compiler.command", "g++")
	v.SetDefault("compiler.std_flag", "-std=c++11")
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".proctor", "proctor.db"))
	v.SetDefault("server.port", 8080)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
