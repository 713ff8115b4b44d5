package info

import (
	"fmt"
	"os"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/cmd/root"
	"github.com/pg9182/gbx/gbxmetrics"
	"github.com/pg9182/gbx/internal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var Flags struct {
	Files         []string
	HumanReadable bool
	Metrics       bool
}

var Command = &cobra.Command{
	Use:   "info gbx_path...",
	Short: "Shows information about GBX files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Files = args
		main()
	},
}

func init() {
	Command.Flags().Bool("help", false, "help for "+Command.Name()) // prevent the default short help flag from being set
	Command.Flags().BoolVarP(&Flags.HumanReadable, "human-readable", "h", false, "show sizes in human-readable form")
	Command.Flags().BoolVarP(&Flags.Metrics, "metrics", "m", false, "print codec metrics after processing all files")
	root.ArgGBX(Command, root.GroupRead)
	root.Command.AddCommand(Command)
}

func main() {
	reg := prometheus.NewRegistry()
	_, opts := root.Options(gbxmetrics.New(reg))

	var failed int
	for _, name := range Flags.Files {
		f, err := gbx.OpenFile(name, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failed++
			continue
		}
		printInfo(f, opts)
	}

	if Flags.Metrics {
		fmt.Println()
		if err := gbxmetrics.WriteText(os.Stdout, reg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			failed++
		}
	}
	if failed != 0 {
		os.Exit(1)
	}
}

func printInfo(f *gbx.File, opts *gbx.Options) {
	cls := f.Node.ClassID()
	name := "?"
	if desc, ok := opts.Registry.Class(cls); ok {
		name = desc.Name
	}

	fmt.Printf("%s:\n", f.Path)
	fmt.Printf("  version:      %d (format %c, unknown byte %q)\n", f.Header.Version, f.Header.Format, f.Header.Unknown)
	fmt.Printf("  class:        %s %s\n", cls, name)
	fmt.Printf("  nodes:        %d\n", f.NumNodes)
	fmt.Printf("  header:       %d chunks\n", f.Node.HeaderChunks().Len())
	if f.Body.Decoded {
		fmt.Printf("  body:         %d chunks\n", f.Node.Chunks().Len())
	} else {
		fmt.Printf("  body:         not decoded\n")
	}
	fmt.Printf("  body size:    %s", root.FormatSize(int64(f.Body.UncompressedSize), Flags.HumanReadable))
	if f.Body.Compressed {
		fmt.Printf(" (%s compressed, %s)", root.FormatSize(int64(f.Body.CompressedSize), Flags.HumanReadable), internal.FormatRatio(int64(f.Body.CompressedSize), int64(f.Body.UncompressedSize)))
	}
	fmt.Printf("\n")
	fmt.Printf("  body crc32:   %08X\n", f.Body.Checksum())
	if f.RefTable != nil {
		fmt.Printf("  references:   %d files, %d resources\n", len(f.RefTable.Files)-len(f.RefTable.Resources()), len(f.RefTable.Resources()))
	} else {
		fmt.Printf("  references:   not decoded\n")
	}
}
