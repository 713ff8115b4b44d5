package gbx

import (
	"fmt"
	"path"
	"strings"
)

// Ext is the file extension of a GBX file. The game doesn't care about case.
const Ext = ".Gbx"

// JoinName generates a filename for a GBX of the provided kind (e.g.,
// "Challenge", "Item").
func JoinName(name, kind string) (fn string) {
	fn = name
	if kind != "" {
		fn += "." + kind
	}
	return fn + Ext
}

// SplitName is the inverse of JoinName.
func SplitName(fn string) (name, kind string, err error) {
	fn = path.Base(normalizePath(fn))

	// ensure it's a gbx
	if len(fn) < len(Ext) || !strings.EqualFold(fn[len(fn)-len(Ext):], Ext) {
		return "", "", fmt.Errorf("split %q: does not have extension %s", fn, Ext)
	}
	fn = fn[:len(fn)-len(Ext)]

	// the kind is the last dotted component, if any
	if i := strings.LastIndex(fn, "."); i != -1 {
		if i == 0 || i == len(fn)-1 {
			return "", "", fmt.Errorf("split %q: empty name or kind", fn+Ext)
		}
		return fn[:i], fn[i+1:], nil
	}
	return fn, "", nil
}

// normalizePath converts stored paths to slash-separated form.
func normalizePath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// FullPath computes the slash-separated path of an external file referenced
// from the file at base: it walks AncestorLevel directories up from base's
// directory, then applies the directory chain and the relative path.
func (f *RefTableFile) FullPath(base string) (string, error) {
	if f.IsResource() {
		return "", fmt.Errorf("%w: %s has no path", ErrRefTableResolution, f)
	}
	dir := path.Dir(normalizePath(base))
	for i := uint32(0); i < f.AncestorLevel; i++ {
		if dir == "." || dir == "/" || strings.HasSuffix(dir, "..") {
			return "", fmt.Errorf("%w: %s: ancestor level %d goes above the root of %q", ErrRefTableResolution, f, f.AncestorLevel, base)
		}
		dir = path.Dir(dir)
	}
	p := path.Join(dir, f.RelPath())
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %s: path %q escapes the root", ErrRefTableResolution, f, p)
	}
	return p, nil
}

// RelPath returns the slash-separated path of the file relative to the
// directory AncestorLevel levels above the referencing file.
func (f *RefTableFile) RelPath() string {
	return path.Join(append(f.dirChain(), normalizePath(f.Path))...)
}
