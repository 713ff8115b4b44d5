package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/cmd/root"
	"github.com/pg9182/gbx/compress"
	"github.com/pg9182/gbx/internal"
	"github.com/spf13/cobra"
)

var Flags struct {
	Codec      string
	Decompress bool
	Raw        bool
	Size       int
	Stdout     bool
	Keep       bool
	Force      bool
	Verbose    bool
}

var Command = &cobra.Command{
	Use:   "codec [file...]",
	Short: "Packs or unpacks compressed GBX sections",
	Long: "Packs or unpacks compressed GBX sections.\n\n" +
		"A section is framed like a compressed body: the uncompressed size, the compressed size, then the data.\n" +
		"Packed files are written next to the input with the codec name as the extension.\n" +
		"Available codecs: " + strings.Join(compress.Names(), ", "),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Flags.Decompress {
			return []string{Flags.Codec}, cobra.ShellCompDirectiveFilterFileExt
		}
		return nil, cobra.ShellCompDirectiveDefault
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			args = []string{"-"}
		}
		main(args)
	},
}

func init() {
	Command.Flags().StringVarP(&Flags.Codec, "codec", "z", "lzo", "codec to use")
	Command.Flags().BoolVarP(&Flags.Decompress, "decompress", "d", false, "unpack instead of pack")
	Command.Flags().BoolVar(&Flags.Raw, "raw", false, "don't read or write the section sizes")
	Command.Flags().IntVarP(&Flags.Size, "size", "s", 0, "uncompressed size for --raw --decompress")
	Command.Flags().BoolVarP(&Flags.Stdout, "stdout", "c", false, "write to stdout (always enabled if reading from stdin)")
	Command.Flags().BoolVarP(&Flags.Keep, "keep", "k", false, "keep input files")
	Command.Flags().BoolVarP(&Flags.Force, "force", "f", false, "overwrite existing output files")
	Command.Flags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "print the ratio of each file")
	root.Command.AddCommand(Command)
}

func main(files []string) {
	c, err := compress.Lookup(Flags.Codec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if Flags.Raw && Flags.Decompress && Flags.Size <= 0 {
		fmt.Fprintf(os.Stderr, "error: --size is required to unpack a raw section\n")
		os.Exit(2)
	}
	ext := "." + strings.ToLower(Flags.Codec)

	var failed int
	for _, input := range files {
		if err := process(c, input, ext); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", input, err)
		}
	}
	if failed != 0 {
		os.Exit(1)
	}
}

func process(c gbx.Codec, input, ext string) error {
	toStdout := input == "-" || Flags.Stdout

	output := "stdout"
	if !toStdout {
		if Flags.Decompress {
			var ok bool
			if output, ok = strings.CutSuffix(input, ext); !ok {
				return fmt.Errorf("unknown extension (expected %s)", ext)
			}
		} else {
			output = input + ext
		}
	}

	var (
		buf  []byte
		mode fs.FileMode = 0o666
		err  error
	)
	if input == "-" {
		buf, err = io.ReadAll(os.Stdin)
	} else {
		if fi, err := os.Stat(input); err == nil {
			mode = fi.Mode().Perm()
		}
		buf, err = os.ReadFile(input)
	}
	if err != nil {
		return err
	}

	var out []byte
	if Flags.Decompress {
		out, err = unpack(c, buf)
	} else {
		out, err = pack(c, buf)
	}
	if err != nil {
		return err
	}

	if toStdout {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := create(output, mode, out); err != nil {
		return err
	}
	if !Flags.Keep {
		if err := os.Remove(input); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if Flags.Verbose {
		packed, unpacked := len(out), len(buf)
		if Flags.Decompress {
			packed, unpacked = unpacked, packed
		}
		fmt.Fprintf(os.Stderr, "%s: %s %s -> %s\n", input, Flags.Codec, internal.FormatRatio(int64(packed), int64(unpacked)), output)
	}
	return nil
}

// pack compresses b, framing it as a section unless --raw is set.
func pack(c gbx.Codec, b []byte) ([]byte, error) {
	z, err := c.Compress(b)
	if err != nil {
		return nil, err
	}
	if Flags.Raw {
		return z, nil
	}
	var o bytes.Buffer
	w := gbx.NewWriter(&o, nil)
	if err := w.Uint32(uint32(len(b))); err != nil {
		return nil, err
	}
	if err := w.Uint32(uint32(len(z))); err != nil {
		return nil, err
	}
	if err := w.Bytes(z); err != nil {
		return nil, err
	}
	return o.Bytes(), nil
}

// unpack decompresses a section, or raw data if --raw is set.
func unpack(c gbx.Codec, b []byte) ([]byte, error) {
	if Flags.Raw {
		return c.Decompress(b, Flags.Size)
	}
	r := gbx.NewReader(bytes.NewReader(b), nil)
	usize, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read uncompressed size: %w", err)
	}
	csize, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read compressed size: %w", err)
	}
	z, err := r.Bytes(int(csize))
	if err != nil {
		return nil, fmt.Errorf("read section: %w", err)
	}
	if rem, _ := r.Remaining(); rem != 0 {
		return nil, fmt.Errorf("read section: %d trailing bytes", rem)
	}
	return c.Decompress(z, int(usize))
}

func create(name string, mode fs.FileMode, b []byte) error {
	flag := os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	if !Flags.Force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(name, flag, mode)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", name)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Close()
}
