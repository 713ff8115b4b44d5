package gbxutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pg9182/gbx"
)

// UpdateFile edits the file in-place. Only the header is parsed unless
// decodeBody is set; an undecoded body is copied verbatim (or recompressed if
// fn changes the body compression).
func UpdateFile(name string, dryRun, decodeBody bool, opts *gbx.Options, fn func(*gbx.File) error) error {
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("open gbx: %w", err)
	}
	defer f.Close()

	var x *gbx.File
	if decodeBody {
		x, err = gbx.Parse(f, opts)
	} else {
		x, err = gbx.ParseHeader(f, opts)
	}
	if err != nil {
		return fmt.Errorf("read gbx: %w", err)
	}
	x.Path = name

	if err := fn(x); err != nil {
		return err
	}

	var b bytes.Buffer
	if err := gbx.Write(&b, x, opts); err != nil {
		return fmt.Errorf("write gbx: %w", err)
	}
	if dryRun {
		return nil
	}

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("write gbx: %w", err)
	}

	tf, err := os.CreateTemp(filepath.Dir(name), ".gbx*")
	if err != nil {
		return fmt.Errorf("write gbx: create temp file: %w", err)
	}
	defer os.Remove(tf.Name())
	defer tf.Close()

	if _, err := io.Copy(tf, &b); err != nil {
		return fmt.Errorf("write gbx: write temp file: %w", err)
	}
	if err := tf.Chmod(fi.Mode().Perm()); err != nil {
		return fmt.Errorf("write gbx: set temp file mode: %w", err)
	}
	if err := tf.Close(); err != nil {
		return fmt.Errorf("write gbx: write temp file: %w", err)
	}
	if err := os.Rename(tf.Name(), name); err != nil {
		return fmt.Errorf("write gbx: replace file: %w", err)
	}
	return nil
}
