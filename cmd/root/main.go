package root

import (
	"fmt"
	"os"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/gbxutil"
	"github.com/pg9182/gbx/internal"
	"github.com/spf13/cobra"
)

var Flags struct {
	Config gbxutil.CLIConfig
}

var Command = &cobra.Command{
	Use:          "gbx",
	Short:        "Inspects and edits GBX files.",
	SilenceUsage: true,
}

var GroupRead = &cobra.Group{
	ID:    "read",
	Title: "Inspection commands:",
}

var GroupWrite = &cobra.Group{
	ID:    "write",
	Title: "Editing commands:",
}

func init() {
	Command.AddGroup(GroupRead, GroupWrite)
	Flags.Config = gbxutil.NewCLIConfig(Command.PersistentFlags())
}

// Config loads the configuration, exiting on error.
func Config() gbxutil.Config {
	c, err := Flags.Config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	return c
}

// Options loads the configuration and creates codec options logging to
// stderr, exiting on error. The observer may be nil.
func Options(obs gbx.Observer) (gbxutil.Config, *gbx.Options) {
	c := Config()
	opts, err := c.Options(os.Stderr, obs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	return c, opts
}

// ArgGBX updates cmd to complete GBX files for all arguments, and sets the
// command group.
func ArgGBX(cmd *cobra.Command, group *cobra.Group) {
	cmd.GroupID = group.ID
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{gbx.Ext[1:], "gbx"}, cobra.ShellCompDirectiveFilterFileExt
	}
}

// FlagIncludeExclude adds --exclude and --include flags for reference table
// paths, returning a function checking if an entry is excluded. Globs from
// the configuration file are used if the flags aren't set.
func FlagIncludeExclude(cmd *cobra.Command) func(gbxutil.Config) gbxutil.IncludeExclude {
	var (
		ExcludeDoc = "excludes references to files or directories matching the provided glob (anchor to the start with /)"
		IncludeDoc = "negates --exclude for references matching the provided glob (if only includes are provided, it excludes everything else)"
	)
	exclude := cmd.Flags().StringSliceP("exclude", "e", nil, ExcludeDoc)
	include := cmd.Flags().StringSliceP("include", "E", nil, IncludeDoc)
	return func(c gbxutil.Config) gbxutil.IncludeExclude {
		ie := gbxutil.IncludeExclude{Exclude: c.Exclude, Include: c.Include}
		if cmd.Flags().Changed("exclude") {
			ie.Exclude = *exclude
		}
		if cmd.Flags().Changed("include") {
			ie.Include = *include
		}
		return ie
	}
}

// FormatSize formats a size, optionally in human-readable form.
func FormatSize(n int64, human bool) string {
	if human {
		return internal.FormatBytesSI(n)
	}
	return fmt.Sprint(n)
}
