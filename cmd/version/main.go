package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/pg9182/gbx/cmd/root"
	"github.com/pg9182/gbx/game"
	"github.com/pg9182/tf2lzham"
	"github.com/spf13/cobra"
)

var Flags struct {
}

var Command = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	root.Command.AddCommand(Command)
}

// codecDeps are the modules implementing the compression codecs.
var codecDeps = []string{
	"github.com/pg9182/tf2lzham",
	"github.com/rasky/go-lzo",
	"github.com/golang/snappy",
	"github.com/pierrec/lz4/v4",
}

func main() {
	var vcs struct {
		revision string
		time     time.Time
		modified bool
	}
	deps := map[string]string{}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				vcs.revision = s.Value
			case "vcs.time":
				v, err := time.ParseInLocation(time.RFC3339Nano, s.Value, time.UTC)
				if err != nil {
					panic(fmt.Errorf("parse %s %q: %w", s.Key, s.Value, err))
				}
				vcs.time = v
			case "vcs.modified":
				v, err := strconv.ParseBool(s.Value)
				if err != nil {
					panic(fmt.Errorf("parse %s %q: %w", s.Key, s.Value, err))
				}
				vcs.modified = v
			}
		}
		for _, d := range bi.Deps {
			var s string
			if d.Replace != nil {
				s = d.Replace.Path
				if d.Version != "(devel)" {
					s += " " + d.Replace.Version
				}
			} else if d.Version != "(devel)" {
				s = d.Version
			}
			deps[d.Path] = s
		}
	}

	version := "gbx "
	if len(vcs.revision) >= 7 {
		version += vcs.revision[:7]
		if !vcs.time.IsZero() {
			version += " " + vcs.time.Format(time.DateOnly)
		}
	} else {
		version += "unknown"
	}
	if vcs.modified {
		version += " (modified)"
	}
	fmt.Println(version)

	for _, p := range codecDeps {
		version = p + " "
		if v := deps[p]; v != "" {
			version += v
		} else {
			version += "unknown"
		}
		if p == "github.com/pg9182/tf2lzham" {
			if tf2lzham.WebAssembly {
				version += " (wasm)"
			} else {
				version += " (native)"
			}
		}
		fmt.Println(version)
	}

	if reg, err := game.Registry(); err != nil {
		fmt.Printf("registry error: %v\n", err)
	} else {
		fmt.Printf("registry %d classes, %d aliases\n", len(reg.Classes()), len(reg.Aliases()))
	}
}
