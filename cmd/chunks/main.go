package chunks

import (
	"fmt"
	"os"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/cmd/root"
	"github.com/spf13/cobra"
)

var Flags struct {
	File     string
	Discover bool
	Header   bool
}

var Command = &cobra.Command{
	Use:   "chunks gbx_path",
	Short: "Lists the chunks of the main node of a GBX file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.File = args[0]
		main()
	},
}

func init() {
	Command.Flags().BoolVarP(&Flags.Discover, "discover", "d", false, "decode skippable chunks which were kept opaque")
	Command.Flags().BoolVarP(&Flags.Header, "header", "H", false, "only read the header chunks")
	root.ArgGBX(Command, root.GroupRead)
	root.Command.AddCommand(Command)
}

func main() {
	_, opts := root.Options(nil)
	if Flags.Header {
		opts.RawBody = true
		opts.SkipRefTable = true
	}

	f, err := gbx.OpenFile(Flags.File, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var failed int
	fmt.Printf("header:\n")
	failed += list(f.Node, f.Node.HeaderChunks(), opts, true)
	if f.Body.Decoded {
		fmt.Printf("body:\n")
		failed += list(f.Node, f.Node.Chunks(), opts, false)
	}
	if failed != 0 {
		os.Exit(1)
	}
}

func list(n gbx.Node, set *gbx.ChunkSet, opts *gbx.Options, header bool) (failed int) {
	for _, c := range set.All() {
		var (
			kind  = "fixed"
			state = "decoded"
			size  = "-"
		)
		if sc, ok := c.(*gbx.SkippableChunk); ok {
			kind = "skippable"
			if sc.Heavy {
				kind += ",heavy"
			}
			if sc.Opaque() && Flags.Discover && sc.Known() {
				if err := sc.Discover(n, opts); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					failed++
				}
			}
			switch {
			case !sc.Known():
				state = "unknown"
			case sc.Opaque():
				state = "opaque"
			}
			if sc.Opaque() {
				size = fmt.Sprint(len(sc.Data()))
			}
		}
		fmt.Printf("  %s %-24s %-15s %-8s %s\n", c.ID(), chunkName(opts.Registry, n.ClassID(), c.ID(), header), kind, state, size)
	}
	return
}

func chunkName(reg *gbx.Registry, owner, id gbx.ClassID, header bool) string {
	if reg == nil {
		return "?"
	}
	var (
		desc gbx.ChunkDesc
		ok   bool
	)
	if header {
		desc, ok = reg.ResolveHeaderChunk(owner, id)
	} else {
		desc, ok = reg.ResolveChunk(owner, id)
	}
	if !ok {
		return "?"
	}
	return desc.Name
}
