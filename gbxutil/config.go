// Package gbxutil contains helpers for gbx command-line tools.
package gbxutil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/compress"
	"github.com/pg9182/gbx/game"
	"gopkg.in/yaml.v3"
)

// ConfigFilename is the default name of the configuration file.
const ConfigFilename = ".gbx.yaml"

var validate = validator.New()

// Config configures how files are read and written.
type Config struct {
	// Codec is the body compression codec.
	Codec string `yaml:"codec" validate:"required,oneof=lzo lzham snappy lz4 identity"`

	// LogLevel is the minimum level of diagnostics to print.
	LogLevel string `yaml:"log_level" validate:"required,oneof=debug info warn error"`

	// HeaderOnly only reads the headers of files (and their references).
	HeaderOnly bool `yaml:"header_only"`

	// ResolverCacheSize is the number of external files to keep parsed.
	ResolverCacheSize int `yaml:"resolver_cache_size" validate:"gte=0,lte=4096"`

	// Exclude and Include filter reference table paths.
	Exclude []string `yaml:"exclude" validate:"dive,required"`
	Include []string `yaml:"include" validate:"dive,required"`
}

// DefaultConfig returns the configuration used if no file is provided.
func DefaultConfig() Config {
	return Config{
		Codec:             "lzo",
		LogLevel:          "warn",
		ResolverCacheSize: gbx.DefaultResolverCacheSize,
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig. If
// optional is set, a missing file is not an error.
func LoadConfig(name string, optional bool) (Config, error) {
	c := DefaultConfig()
	buf, err := os.ReadFile(name)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, fmt.Errorf("parse config %q: %w", name, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %q: %w", name, err)
	}
	return c, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			ss := make([]string, 0, len(ves))
			for _, fe := range ves {
				ss = append(ss, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(ss, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}

// Logger creates a text logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// Options creates codec options for the configuration, logging to w. The
// observer may be nil.
func (c Config) Options(w io.Writer, obs gbx.Observer) (*gbx.Options, error) {
	reg, err := game.Registry()
	if err != nil {
		return nil, err
	}
	codec, err := compress.Lookup(c.Codec)
	if err != nil {
		return nil, err
	}
	return &gbx.Options{
		Registry: reg,
		Codec:    codec,
		Logger:   c.Logger(w),
		Observer: obs,
		RawBody:  c.HeaderOnly,
	}, nil
}
