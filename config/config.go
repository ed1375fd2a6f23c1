package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/georgepadayatti/littlebook/impose"
	"github.com/georgepadayatti/littlebook/pdf/layout"
	"gopkg.in/yaml.v3"
)

// Common errors
var (
	ErrConfigurationError = errors.New("configuration error")
	ErrInvalidValue       = errors.New("invalid value")
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message, Err: ErrInvalidValue}
}

// Length is a distance in points. In YAML it may be a bare number of
// points or carry a unit suffix: "12pt", "5mm", "0.5cm", "0.25in".
type Length float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: length must be a scalar", node.Line)
	}
	v, err := layout.ParseLength(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*l = Length(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l Length) MarshalYAML() (any, error) {
	return float64(l), nil
}

// Points returns the length in points.
func (l Length) Points() float64 {
	return float64(l)
}

// ImpositionConfig contains the layout settings.
type ImpositionConfig struct {
	// Scale is applied to every page before placement.
	Scale float64 `yaml:"scale" json:"scale"`

	// Margin is the sheet margin.
	Margin Length `yaml:"margin" json:"margin"`

	// Fold selects the 8-leaf fold table (canonical, alternate).
	Fold string `yaml:"fold" json:"fold"`

	// Workers is the number of sheets composed concurrently.
	Workers int `yaml:"workers" json:"workers"`
}

// Validate validates the imposition configuration.
func (c *ImpositionConfig) Validate() error {
	if c.Scale <= 0 {
		return NewConfigError("imposition.scale", fmt.Sprintf("must be greater than 0, got %g", c.Scale))
	}
	if c.Margin < 0 {
		return NewConfigError("imposition.margin", fmt.Sprintf("must not be negative, got %g", c.Margin.Points()))
	}
	if _, err := impose.ParseFoldVariant(c.Fold); err != nil {
		return &ConfigError{Field: "imposition.fold", Message: err.Error(), Err: ErrInvalidValue}
	}
	if c.Workers < 1 {
		return NewConfigError("imposition.workers", fmt.Sprintf("must be at least 1, got %d", c.Workers))
	}
	return nil
}

// FoldVariant returns the configured fold table variant.
func (c *ImpositionConfig) FoldVariant() (impose.FoldVariant, error) {
	return impose.ParseFoldVariant(c.Fold)
}

// ComposeOptions returns the sheet layout options.
func (c *ImpositionConfig) ComposeOptions() impose.ComposeOptions {
	return impose.ComposeOptions{
		Scale:   c.Scale,
		Margin:  c.Margin.Points(),
		Workers: c.Workers,
	}
}

// OutputConfig contains output file settings.
type OutputConfig struct {
	// Suffix is appended to the input name to form the output name.
	Suffix string `yaml:"suffix" json:"suffix"`

	// Dir is the output directory. Empty means the current directory.
	Dir string `yaml:"dir" json:"dir,omitempty"`

	// Compress Flate-encodes sheet content streams.
	Compress bool `yaml:"compress" json:"compress"`

	// Overwrite replaces an existing output without asking.
	Overwrite bool `yaml:"overwrite" json:"overwrite"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	if c.Suffix == "" {
		return NewConfigError("output.suffix", "required field is missing")
	}
	if strings.ContainsAny(c.Suffix, `/\`) {
		return NewConfigError("output.suffix", fmt.Sprintf("must not contain a path separator: %q", c.Suffix))
	}
	return nil
}

// InputConfig contains settings for reading the input document.
type InputConfig struct {
	// Password opens an encrypted input.
	Password string `yaml:"password" json:"password,omitempty"`

	// PromptPassword asks for the password of an encrypted input.
	PromptPassword bool `yaml:"prompt-password" json:"prompt_password"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level,omitempty"`

	// Format is the log format (text, json).
	Format string `yaml:"format" json:"format,omitempty"`

	// Output is the log output (stdout, stderr, or file path).
	Output string `yaml:"output" json:"output,omitempty"`
}

// SetDefaults sets default values for logging configuration.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// SlogLevel returns the configured level.
func (c *LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Level), Err: ErrInvalidValue}
	}
	return level, nil
}

// Validate validates the logging configuration.
func (c *LoggingConfig) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Format {
	case "text", "json":
	default:
		return NewConfigError("logging.format", fmt.Sprintf("must be text or json, got %q", c.Format))
	}
	return nil
}

// AppConfig contains the complete application configuration.
type AppConfig struct {
	Imposition ImpositionConfig `yaml:"imposition" json:"imposition"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	Input      InputConfig      `yaml:"input" json:"input"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// DefaultAppConfig returns the configuration used when no file is given.
func DefaultAppConfig() *AppConfig {
	cfg := &AppConfig{
		Imposition: ImpositionConfig{
			Scale:   1,
			Fold:    impose.FoldCanonical.String(),
			Workers: 1,
		},
		Output: OutputConfig{
			Suffix:   impose.DefaultSuffix,
			Compress: true,
		},
	}
	cfg.Logging.SetDefaults()
	return cfg
}

// Validate validates every section.
func (c *AppConfig) Validate() error {
	if err := c.Imposition.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// LoadAppConfig loads the application configuration from a YAML file.
func LoadAppConfig(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML over the defaults. Keys that are missing keep
// their default; unknown keys are rejected.
func ParseConfig(data []byte) (*AppConfig, error) {
	config := DefaultAppConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{Message: fmt.Sprintf("failed to parse config: %v", err), Err: ErrConfigurationError}
	}
	config.Logging.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Marshal returns the configuration as YAML.
func (c *AppConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
