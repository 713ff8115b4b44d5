// Command gbx inspects and edits GBX files.
package main

import (
	"os"

	"github.com/pg9182/gbx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
