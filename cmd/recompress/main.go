package recompress

import (
	"fmt"
	"os"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/cmd/root"
	"github.com/pg9182/gbx/compress"
	"github.com/pg9182/gbx/gbxutil"
	"github.com/pg9182/gbx/internal"
	"github.com/spf13/cobra"
)

var Flags struct {
	Files      []string
	To         string
	Uncompress bool
	RefTable   bool
	DryRun     bool
	Verbose    bool
}

var Command = &cobra.Command{
	Use:   "recompress gbx_path...",
	Short: "Changes the compression of the body of GBX files in-place",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Files = args
		main()
	},
}

func init() {
	Command.Flags().StringVarP(&Flags.To, "to", "t", "", "codec to compress with (defaults to the configured codec)")
	Command.Flags().BoolVarP(&Flags.Uncompress, "uncompress", "u", false, "store the body uncompressed")
	Command.Flags().BoolVarP(&Flags.RefTable, "reftable", "r", false, "also apply the change to the reference table")
	Command.Flags().BoolVarP(&Flags.DryRun, "dry-run", "n", false, "do not write the changes")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "show the new body size")
	Command.MarkFlagsMutuallyExclusive("to", "uncompress")
	root.ArgGBX(Command, root.GroupWrite)
	root.Command.AddCommand(Command)
}

func main() {
	_, opts := root.Options(nil)

	out := *opts
	if Flags.To != "" {
		c, err := compress.Lookup(Flags.To)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		out.Codec = c
	}

	target := gbx.Compressed
	if Flags.Uncompress {
		target = gbx.Uncompressed
	}

	var failed int
	for _, name := range Flags.Files {
		if err := gbxutil.UpdateFile(name, Flags.DryRun, false, &out, func(f *gbx.File) error {
			// the input is always decompressed with the configured codec
			if err := f.DecompressBody(opts); err != nil {
				return err
			}
			if Flags.RefTable {
				if err := f.DecodeRefTable(opts); err != nil {
					return err
				}
				f.Header.RefTableCompression = target
			}
			f.Header.BodyCompression = target
			if Flags.Verbose {
				fmt.Fprintf(os.Stderr, "%s: %s uncompressed\n", name, internal.FormatBytesSI(int64(f.Body.UncompressedSize)))
			}
			return nil
		}); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", name, err)
			failed++
		}
	}
	if failed != 0 {
		os.Exit(1)
	}
}
