package gbx

import (
	"fmt"
	"slices"
)

// Reference table entry flags.
const (
	FlagUseFile  uint32 = 1 << 0 // the external file is loaded by the game
	FlagResource uint32 = 1 << 2 // the entry is a resource referenced by index
)

// RefTable describes the external files and resources a node graph depends
// on.
type RefTable struct {
	Dirs  []*RefTableDir  // all directories, parents before children
	Files []*RefTableFile // all entries, in file order
}

// RefTableDir is a named directory of the reference table.
type RefTableDir struct {
	Name   string
	Parent *RefTableDir // nil for top-level directories
	Dirs   []*RefTableDir
	Files  []*RefTableFile
}

// RefTableFile is an external file or resource.
type RefTableFile struct {
	Flags         uint32
	Path          string // relative path as stored (may use backslashes)
	ResourceIndex uint32 // only if FlagResource is set
	NodeIndex     int32
	Dir           *RefTableDir // nil if the file isn't in a directory
	AncestorLevel uint32       // directories to walk up from the referencing file

	resolved    *File
	resolvedErr error
	done        bool
}

// IsResource checks if the entry is a resource rather than a file.
func (f *RefTableFile) IsResource() bool {
	return f.Flags&FlagResource != 0
}

// UseFile checks if the external file is marked as used.
func (f *RefTableFile) UseFile() bool {
	return f.Flags&FlagUseFile != 0
}

func (f *RefTableFile) String() string {
	if f.IsResource() {
		return fmt.Sprintf("resource %d (node %d)", f.ResourceIndex, f.NodeIndex)
	}
	return fmt.Sprintf("%s (node %d, ancestor level %d)", f.RelPath(), f.NodeIndex, f.AncestorLevel)
}

// Empty checks if the table has no entries. A nil table is empty.
func (t *RefTable) Empty() bool {
	return t == nil || len(t.Files) == 0
}

// File returns the entry for the provided node index, or nil.
func (t *RefTable) File(idx int32) *RefTableFile {
	if t == nil {
		return nil
	}
	for _, f := range t.Files {
		if f.NodeIndex == idx {
			return f
		}
	}
	return nil
}

// Resources returns the resource entries.
func (t *RefTable) Resources() []*RefTableFile {
	var rs []*RefTableFile
	for _, f := range t.Files {
		if f.IsResource() {
			rs = append(rs, f)
		}
	}
	return rs
}

// AddDir creates a directory under parent (nil for the top level).
func (t *RefTable) AddDir(parent *RefTableDir, name string) *RefTableDir {
	d := &RefTableDir{Name: name, Parent: parent}
	if parent != nil {
		parent.Dirs = append(parent.Dirs, d)
	}
	t.Dirs = append(t.Dirs, d)
	return d
}

// AddFile adds a file entry to dir (nil for the top level).
func (t *RefTable) AddFile(dir *RefTableDir, path string, nodeIndex int32, ancestorLevel uint32) *RefTableFile {
	f := &RefTableFile{
		Flags:         FlagUseFile,
		Path:          path,
		NodeIndex:     nodeIndex,
		Dir:           dir,
		AncestorLevel: ancestorLevel,
	}
	if dir != nil {
		dir.Files = append(dir.Files, f)
	}
	t.Files = append(t.Files, f)
	return f
}

// AddResource adds a resource entry.
func (t *RefTable) AddResource(resourceIndex uint32, nodeIndex int32) *RefTableFile {
	f := &RefTableFile{
		Flags:         FlagResource,
		ResourceIndex: resourceIndex,
		NodeIndex:     nodeIndex,
	}
	t.Files = append(t.Files, f)
	return f
}

// decodeRefTable reads the table contents (i.e., the part which may be
// compressed).
func decodeRefTable(r *Reader) (*RefTable, error) {
	t := new(RefTable)

	numFiles, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read entry count: %w", err)
	}
	if numFiles == 0 {
		return t, nil
	}

	numDirs, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read directory count: %w", err)
	}
	if rem, ok := r.Remaining(); ok && int64(numDirs)*8 > rem {
		return nil, fmt.Errorf("%w: %d directories but only %d bytes remaining", ErrRefTableStructure, numDirs, rem)
	}
	t.Dirs = make([]*RefTableDir, 0, numDirs)
	for i := range numDirs {
		name, err := r.String(LengthPrefixUint32)
		if err != nil {
			return nil, fmt.Errorf("read directory %d name: %w", i, err)
		}
		parent, err := r.Int32()
		if err != nil {
			return nil, fmt.Errorf("read directory %d parent: %w", i, err)
		}
		var p *RefTableDir
		if parent != -1 {
			if parent < 0 || parent >= int32(len(t.Dirs)) {
				return nil, fmt.Errorf("%w: directory %d (%q) references parent %d before it was defined", ErrRefTableStructure, i, name, parent)
			}
			p = t.Dirs[parent]
		}
		t.AddDir(p, name)
	}

	if rem, ok := r.Remaining(); ok && int64(numFiles)*8 > rem {
		return nil, fmt.Errorf("%w: %d entries but only %d bytes remaining", ErrRefTableStructure, numFiles, rem)
	}
	t.Files = make([]*RefTableFile, 0, numFiles)
	for i := range numFiles {
		f := new(RefTableFile)
		if f.Flags, err = r.Uint32(); err != nil {
			return nil, fmt.Errorf("read entry %d flags: %w", i, err)
		}
		if f.IsResource() {
			if f.ResourceIndex, err = r.Uint32(); err != nil {
				return nil, fmt.Errorf("read entry %d resource index: %w", i, err)
			}
		} else {
			if f.Path, err = r.String(LengthPrefixUint32); err != nil {
				return nil, fmt.Errorf("read entry %d path: %w", i, err)
			}
		}
		if f.NodeIndex, err = r.Int32(); err != nil {
			return nil, fmt.Errorf("read entry %d node index: %w", i, err)
		}
		if t.File(f.NodeIndex) != nil {
			return nil, fmt.Errorf("%w: entry %d reuses node index %d", ErrRefTableStructure, i, f.NodeIndex)
		}
		if !f.IsResource() {
			dir, err := r.Int32()
			if err != nil {
				return nil, fmt.Errorf("read entry %d directory: %w", i, err)
			}
			if dir != -1 {
				if dir < 0 || dir >= int32(len(t.Dirs)) {
					return nil, fmt.Errorf("%w: entry %d (%q) references undefined directory %d", ErrRefTableStructure, i, f.Path, dir)
				}
				f.Dir = t.Dirs[dir]
				f.Dir.Files = append(f.Dir.Files, f)
			}
			if f.AncestorLevel, err = r.Uint32(); err != nil {
				return nil, fmt.Errorf("read entry %d ancestor level: %w", i, err)
			}
		}
		t.Files = append(t.Files, f)
	}
	return t, nil
}

// encodeRefTable is the inverse of decodeRefTable.
func encodeRefTable(w *Writer, t *RefTable) error {
	if t.Empty() {
		if err := w.Uint32(0); err != nil {
			return fmt.Errorf("write entry count: %w", err)
		}
		return nil
	}

	dirs := make(map[*RefTableDir]int32, len(t.Dirs))
	for i, d := range t.Dirs {
		dirs[d] = int32(i)
	}

	if err := w.Uint32(uint32(len(t.Files))); err != nil {
		return fmt.Errorf("write entry count: %w", err)
	}
	if err := w.Uint32(uint32(len(t.Dirs))); err != nil {
		return fmt.Errorf("write directory count: %w", err)
	}
	for i, d := range t.Dirs {
		parent := int32(-1)
		if d.Parent != nil {
			p, ok := dirs[d.Parent]
			if !ok || p >= int32(i) {
				return fmt.Errorf("%w: directory %d (%q) must come after its parent", ErrRefTableStructure, i, d.Name)
			}
			parent = p
		}
		if err := w.String(d.Name, LengthPrefixUint32); err != nil {
			return fmt.Errorf("write directory %d name: %w", i, err)
		}
		if err := w.Int32(parent); err != nil {
			return fmt.Errorf("write directory %d parent: %w", i, err)
		}
	}

	seen := make(map[int32]bool, len(t.Files))
	for i, f := range t.Files {
		if seen[f.NodeIndex] {
			return fmt.Errorf("%w: entry %d reuses node index %d", ErrRefTableStructure, i, f.NodeIndex)
		}
		seen[f.NodeIndex] = true

		if err := w.Uint32(f.Flags); err != nil {
			return fmt.Errorf("write entry %d flags: %w", i, err)
		}
		if f.IsResource() {
			if err := w.Uint32(f.ResourceIndex); err != nil {
				return fmt.Errorf("write entry %d resource index: %w", i, err)
			}
		} else {
			if err := w.String(f.Path, LengthPrefixUint32); err != nil {
				return fmt.Errorf("write entry %d path: %w", i, err)
			}
		}
		if err := w.Int32(f.NodeIndex); err != nil {
			return fmt.Errorf("write entry %d node index: %w", i, err)
		}
		if !f.IsResource() {
			dir := int32(-1)
			if f.Dir != nil {
				d, ok := dirs[f.Dir]
				if !ok {
					return fmt.Errorf("%w: entry %d (%q) is in a directory not in the table", ErrRefTableStructure, i, f.Path)
				}
				dir = d
			}
			if err := w.Int32(dir); err != nil {
				return fmt.Errorf("write entry %d directory: %w", i, err)
			}
			if err := w.Uint32(f.AncestorLevel); err != nil {
				return fmt.Errorf("write entry %d ancestor level: %w", i, err)
			}
		}
	}
	return nil
}

// dirChain returns the directory names from the top level down to f's
// directory.
func (f *RefTableFile) dirChain() []string {
	var ns []string
	for d := f.Dir; d != nil; d = d.Parent {
		ns = append(ns, normalizePath(d.Name))
	}
	slices.Reverse(ns)
	return ns
}
