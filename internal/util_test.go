package internal

import "testing"

func TestMatchGlobParents(t *testing.T) {
	for _, x := range []struct {
		Pattern string
		Path    string
		Match   bool
		Error   bool
	}{
		{"/", "", true, false},
		{"/", "Items", true, false},
		{"/", "Items/Deco/Tree.Item.Gbx", true, false},
		{"*", "", false, false},
		{"*", "Tree.Item.Gbx", true, false},
		{"/Items", "Items", true, false},
		{"Items", "Items", true, false},
		{"Items", "Maps/Items", true, false},
		{"/Items", "Maps/Items", false, false},
		{"Items", "Items/Deco", true, false},
		{"items", "Items/Deco", true, false}, // case-insensitive
		{"*.item.gbx", "Items/Deco/Tree.Item.Gbx", true, false},
		{"Deco", "Items/Deco/Tree.Item.Gbx", true, false},
		{"Items/Deco", "Items/Deco/Tree.Item.Gbx", true, false},
		{"Deco/Tree.Item.Gbx", "Items/Deco/Tree.Item.Gbx", false, false}, // multiple components are treated as anchored
		{"/Items/Deco", "Items/Deco/Tree.Item.Gbx", true, false},
		{`Items\Deco`, `Items\Deco\Tree.Item.Gbx`, true, false},
		{"/Deco", "Items/Deco/Tree.Item.Gbx", false, false},
		{"*x*", "axa/b/c", true, false},
		{"*x*", "a/b/x", true, false},
		{"/*x*", "a/xb/c", false, false},
		{"[", "a", false, true},
	} {
		matched, err := MatchGlobParents(x.Pattern, x.Path)
		t.Logf("LOG: match(%q, %q) = %t, %v", x.Pattern, x.Path, matched, err)

		if matched != x.Match {
			if x.Match {
				t.Errorf("ERR: match(%q, %q) expected match", x.Pattern, x.Path)
			} else {
				t.Errorf("ERR: match(%q, %q) expected no match", x.Pattern, x.Path)
			}
		}
		if err != nil != x.Error {
			if x.Error {
				t.Errorf("ERR: match(%q, %q) expected error, got nil", x.Pattern, x.Path)
			} else {
				t.Errorf("ERR: match(%q, %q) expected no error, got %v", x.Pattern, x.Path, err)
			}
		}
	}
}

func TestFormatBytesSI(t *testing.T) {
	for _, x := range []struct {
		In  int64
		Out string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500, "1.5 kB"},
		{-1500, "-1.5 kB"},
		{2_500_000, "2.5 MB"},
	} {
		if s := FormatBytesSI(x.In); s != x.Out {
			t.Errorf("ERR: format(%d) = %q, expected %q", x.In, s, x.Out)
		}
	}
}

func TestFormatRatio(t *testing.T) {
	if s := FormatRatio(25, 100); s != " 25.0%" {
		t.Errorf("ERR: got %q", s)
	}
	if s := FormatRatio(1, 0); s != "-" {
		t.Errorf("ERR: got %q", s)
	}
}
