package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds notas configuration.
// Stored at: {workdir}/notas.yaml or $HOME/.notas/notas.yaml
type Config struct {
	Workdir      string       `mapstructure:"workdir" yaml:"workdir" json:"workdir"`
	InputDir     string       `mapstructure:"input_dir" yaml:"input_dir" json:"input_dir"`
	ScratchDir   string       `mapstructure:"scratch_dir" yaml:"scratch_dir" json:"scratch_dir"`
	SuccessLog   string       `mapstructure:"success_log" yaml:"success_log" json:"success_log"`
	FailureLog   string       `mapstructure:"failure_log" yaml:"failure_log" json:"failure_log"`
	FileSuffix   string       `mapstructure:"file_suffix" yaml:"file_suffix" json:"file_suffix"`
	FailedPrefix string       `mapstructure:"failed_prefix" yaml:"failed_prefix" json:"failed_prefix"`
	OCR          OCRConfig    `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
	Raster       RasterConfig `mapstructure:"raster" yaml:"raster" json:"raster"`
	LogLevel     string       `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
}

// OCRConfig configures the OCR engine pool.
type OCRConfig struct {
	Workers    int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Language   string `mapstructure:"language" yaml:"language" json:"language"`
	JobTimeout string `mapstructure:"job_timeout" yaml:"job_timeout" json:"job_timeout"` // Go duration, e.g. "5m"
}

// RasterConfig configures PDF page rendering.
type RasterConfig struct {
	DPI     int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Command string `mapstructure:"command" yaml:"command" json:"command"`
	Workers int    `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// DefaultConfig returns configuration with the defaults of DefaultEntries.
func DefaultConfig() *Config {
	return &Config{
		Workdir:      ".",
		InputDir:     "arquivos",
		ScratchDir:   "tmp",
		SuccessLog:   "out.log",
		FailureLog:   "falhas.log",
		FileSuffix:   ".pdf",
		FailedPrefix: "FALHOU - ",
		OCR: OCRConfig{
			Workers:    50,
			Language:   "por",
			JobTimeout: "5m",
		},
		Raster: RasterConfig{
			DPI:     216,
			Command: "pdftoppm",
		},
		LogLevel: "info",
	}
}

// JobTimeout parses OCR.JobTimeout. An empty value means no timeout.
func (c *Config) JobTimeout() (time.Duration, error) {
	if c.OCR.JobTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.OCR.JobTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid ocr.job_timeout %q: %w", c.OCR.JobTimeout, err)
	}
	return d, nil
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
