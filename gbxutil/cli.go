package gbxutil

import (
	"fmt"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/internal"
	"github.com/spf13/pflag"
)

// CLIConfig loads a Config, overriding it with command-line flags.
type CLIConfig struct {
	Path       *string
	Codec      *string
	LogLevel   *string
	HeaderOnly *bool
	set        *pflag.FlagSet
}

// NewCLIConfig creates a new CLIConfig and registers it with the provided
// [pflag.FlagSet].
func NewCLIConfig(set *pflag.FlagSet) CLIConfig {
	d := DefaultConfig()
	return CLIConfig{
		Path:       set.String("config", ConfigFilename, "configuration file (ignored if it doesn't exist and wasn't set explicitly)"),
		Codec:      set.String("codec", d.Codec, "body compression codec"),
		LogLevel:   set.String("log-level", d.LogLevel, "minimum level of diagnostics to print (debug, info, warn, error)"),
		HeaderOnly: set.Bool("header-only", d.HeaderOnly, "only read file headers"),
		set:        set,
	}
}

// Load reads the configuration file, then applies the flags which were set.
func (cc CLIConfig) Load() (Config, error) {
	c, err := LoadConfig(*cc.Path, !cc.set.Changed("config"))
	if err != nil {
		return c, err
	}
	if cc.set.Changed("codec") {
		c.Codec = *cc.Codec
	}
	if cc.set.Changed("log-level") {
		c.LogLevel = *cc.LogLevel
	}
	if cc.set.Changed("header-only") {
		c.HeaderOnly = *cc.HeaderOnly
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// IncludeExclude filters reference table entries by path.
type IncludeExclude struct {
	Exclude []string
	Include []string
}

// Skip determines whether to skip the specified file. If only includes are
// provided, everything else is skipped.
func (ie IncludeExclude) Skip(f *gbx.RefTableFile) (bool, error) {
	if f.IsResource() {
		return len(ie.Include) != 0 && len(ie.Exclude) == 0, nil
	}
	p := f.RelPath()
	var excluded bool
	for _, x := range ie.Exclude {
		if m, err := internal.MatchGlobParents(x, p); err != nil {
			return false, fmt.Errorf("process excludes: match %q against glob %q: %w", p, x, err)
		} else if m {
			excluded = true
			break
		}
	}
	if len(ie.Exclude) == 0 && len(ie.Include) != 0 {
		excluded = true
	}
	for _, x := range ie.Include {
		if m, err := internal.MatchGlobParents(x, p); err != nil {
			return false, fmt.Errorf("process includes: match %q against glob %q: %w", p, x, err)
		} else if m {
			excluded = false
			break
		}
	}
	return excluded, nil
}
