package classes

import (
	"fmt"
	"maps"
	"slices"

	"github.com/pg9182/gbx/cmd/root"
	"github.com/spf13/cobra"
)

var Flags struct {
	Chunks bool
}

var Command = &cobra.Command{
	Use:   "classes",
	Short: "Lists the supported classes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		main()
	},
}

func init() {
	Command.GroupID = root.GroupRead.ID
	Command.Flags().BoolVarP(&Flags.Chunks, "chunks", "c", false, "also list the chunks of each class")
	root.Command.AddCommand(Command)
}

func main() {
	_, opts := root.Options(nil)
	reg := opts.Registry

	for _, c := range reg.Classes() {
		fmt.Printf("%s %s", c.ID, c.Name)
		if c.Parent != 0 {
			if p, ok := reg.Class(c.Parent); ok {
				fmt.Printf(" : %s", p.Name)
			} else {
				fmt.Printf(" : %s", c.Parent)
			}
		}
		if c.WriteUnsupported {
			fmt.Printf(" (read-only)")
		}
		fmt.Printf("\n")

		if Flags.Chunks {
			for _, k := range c.Chunks {
				var attr string
				if k.Header {
					attr += " header"
				}
				if k.Heavy {
					attr += " heavy"
				}
				if k.Skippable {
					attr += " skippable"
				}
				if k.Eager {
					attr += " eager"
				}
				fmt.Printf("  %s %s%s\n", k.ID, k.Name, attr)
			}
		}
	}

	aliases := reg.Aliases()
	if len(aliases) != 0 {
		fmt.Printf("\naliases:\n")
		for _, from := range slices.Sorted(maps.Keys(aliases)) {
			fmt.Printf("  %s -> %s\n", from, aliases[from])
		}
	}
}
