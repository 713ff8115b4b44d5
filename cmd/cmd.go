package cmd

import (
	"github.com/pg9182/gbx/cmd/root"

	_ "github.com/pg9182/gbx/cmd/chunks"
	_ "github.com/pg9182/gbx/cmd/classes"
	_ "github.com/pg9182/gbx/cmd/codec"
	_ "github.com/pg9182/gbx/cmd/info"
	_ "github.com/pg9182/gbx/cmd/recompress"
	_ "github.com/pg9182/gbx/cmd/reftable"
	_ "github.com/pg9182/gbx/cmd/verify"
	_ "github.com/pg9182/gbx/cmd/version"
)

func Execute() error {
	return root.Command.Execute()
}
