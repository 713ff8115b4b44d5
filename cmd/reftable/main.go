package reftable

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pg9182/gbx"
	"github.com/pg9182/gbx/cmd/root"
	"github.com/pg9182/gbx/gbxutil"
	"github.com/spf13/cobra"
)

var Flags struct {
	File           string
	Resolve        bool
	Root           string
	IncludeExclude func(gbxutil.Config) gbxutil.IncludeExclude
}

var Command = &cobra.Command{
	Use:   "reftable gbx_path",
	Short: "Lists the external files and resources referenced by a GBX file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		Flags.File = args[0]
		main()
	},
}

func init() {
	Command.Flags().BoolVarP(&Flags.Resolve, "resolve", "r", false, "load the referenced files and show their class")
	Command.Flags().StringVar(&Flags.Root, "root", "", "directory the referenced paths are resolved in (defaults to the directory of the file)")
	Flags.IncludeExclude = root.FlagIncludeExclude(Command)
	root.ArgGBX(Command, root.GroupRead)
	root.Command.AddCommand(Command)
}

func main() {
	cfg, opts := root.Options(nil)
	ie := Flags.IncludeExclude(cfg)

	fo := *opts
	fo.RawBody = true

	f, err := gbx.OpenFile(Flags.File, &fo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var res *gbx.Resolver
	if Flags.Resolve {
		dir := Flags.Root
		if dir == "" {
			dir = filepath.Dir(Flags.File)
		}
		base, err := filepath.Rel(dir, Flags.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if res, err = gbx.NewResolver(os.DirFS(dir), filepath.ToSlash(base), opts, cfg.ResolverCacheSize); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		res.HeaderOnly = true
	}

	var failed int
	for _, rf := range f.RefTable.Files {
		if skip, err := ie.Skip(rf); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		} else if skip {
			continue
		}
		if rf.IsResource() {
			fmt.Printf("%4d %08X resource %d\n", rf.NodeIndex, rf.Flags, rf.ResourceIndex)
			continue
		}
		fmt.Printf("%4d %08X %s (level %d)", rf.NodeIndex, rf.Flags, rf.RelPath(), rf.AncestorLevel)
		if res != nil {
			if x, err := res.ResolveFile(rf); err != nil {
				fmt.Printf(" ERROR")
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				failed++
			} else {
				cls := x.Node.ClassID()
				fmt.Printf(" -> %s", cls)
				if desc, ok := opts.Registry.Class(cls); ok {
					fmt.Printf(" %s", desc.Name)
				}
			}
		}
		fmt.Printf("\n")
	}
	if failed != 0 {
		os.Exit(1)
	}
}
