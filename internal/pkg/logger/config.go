package logger

import "fmt"

// Config holds logger configuration
type Config struct {
	Level            string     `mapstructure:"level" yaml:"level"`                         // debug, info, warn, error
	Format           string     `mapstructure:"format" yaml:"format"`                       // json or console
	Output           string     `mapstructure:"output" yaml:"output"`                       // console, file, both
	File             FileConfig `mapstructure:"file" yaml:"file"`                           // file output settings
	EnableStacktrace bool       `mapstructure:"enablestacktrace" yaml:"enablestacktrace"`   // stacktrace on error level
}

// FileConfig holds log file rotation settings
type FileConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSize    int    `mapstructure:"maxsize" yaml:"maxsize"` // megabytes
	MaxAge     int    `mapstructure:"maxage" yaml:"maxage"`   // days
	MaxBackups int    `mapstructure:"maxbackups" yaml:"maxbackups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DefaultConfig returns a console logger configuration suitable for development
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
		Output: "console",
		File: FileConfig{
			Filename:   "logs/app.log",
			MaxSize:    100,
			MaxAge:     30,
			MaxBackups: 10,
			Compress:   true,
		},
	}
}

// Validate checks the configuration for invalid combinations
func (c *Config) Validate() error {
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	switch c.Output {
	case "", "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %s", c.Output)
	}

	if (c.Output == "file" || c.Output == "both") && c.File.Filename == "" {
		return fmt.Errorf("file output requires a filename")
	}

	return nil
}
