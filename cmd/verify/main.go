package verify

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/cmd/root"
	"github.com/spf13/cobra"
)

var Flags struct {
	Files   []string
	Verbose bool
}

var Command = &cobra.Command{
	Use:   "verify gbx_path...",
	Short: "Checks that GBX files can be decoded and written back identically",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.Files = args
		main()
	},
}

func init() {
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "display files as they are verified")
	root.ArgGBX(Command, root.GroupRead)
	root.Command.AddCommand(Command)
}

func main() {
	_, opts := root.Options(nil)

	var failure int
	for _, name := range Flags.Files {
		if Flags.Verbose {
			fmt.Printf("%s: ", name)
			os.Stderr.Sync()
		}
		if err := verify(name, opts); err != nil {
			if Flags.Verbose {
				fmt.Printf("ERROR\n")
			}
			fmt.Fprintf(os.Stderr, "%s: ERROR - %v\n", name, err)
			failure++
		} else {
			if Flags.Verbose {
				fmt.Printf("OK\n")
			}
		}
	}
	if failure != 0 {
		os.Exit(1)
	}
}

func verify(name string, opts *gbx.Options) error {
	buf, err := os.ReadFile(name)
	if err != nil {
		return err
	}

	f, err := gbx.Parse(bytes.NewReader(buf), opts)
	if err != nil {
		return err
	}

	var b bytes.Buffer
	h := gbx.NewCRC()
	if err := gbx.Write(io.MultiWriter(&b, h), f, opts); err != nil {
		return err
	}

	// codecs aren't guaranteed to produce the same output, so only require
	// identical bytes for uncompressed bodies
	if !f.Body.Compressed {
		if !bytes.Equal(buf, b.Bytes()) {
			return fmt.Errorf("output differs from input (%d != %d bytes, crc32 %08X != %08X)", len(buf), b.Len(), gbx.Checksum(buf), h.Sum32())
		}
		return nil
	}

	g, err := gbx.Parse(bytes.NewReader(b.Bytes()), &gbx.Options{
		Registry: opts.Registry,
		Codec:    opts.Codec,
		RawBody:  true,
	})
	if err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	if err := f.DecompressBody(opts); err != nil {
		return err
	}
	if err := g.DecompressBody(opts); err != nil {
		return fmt.Errorf("reparse: %w", err)
	}
	if x, y := f.Body.Checksum(), g.Body.Checksum(); x != y {
		return fmt.Errorf("body mismatch: crc32 %08X != %08X", x, y)
	}
	return nil
}
