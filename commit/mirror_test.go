package commit

import "testing"

func TestMirrorAddHasRemove(t *testing.T) {
	m := NewMirror()
	if m.Has(1, "a.txt") {
		t.Fatal("empty mirror should report nothing present")
	}
	m.Add(1, "a.txt")
	if !m.Has(1, "a.txt") {
		t.Fatal("expected a.txt to be present after Add")
	}
	m.Remove(1, "a.txt")
	if m.Has(1, "a.txt") {
		t.Fatal("expected a.txt to be gone after Remove")
	}
}

func TestMirrorForkCopiesParentTree(t *testing.T) {
	m := NewMirror()
	m.Add(1, "trunk/a.txt")
	m.Add(1, "trunk/b.txt")

	m.Fork(1, 2)

	if !m.Has(2, "trunk/a.txt") || !m.Has(2, "trunk/b.txt") {
		t.Fatal("expected Fork to copy every path from the parent LOD")
	}
	m.Add(1, "trunk/c.txt")
	if m.Has(2, "trunk/c.txt") {
		t.Fatal("Fork must be a one-time snapshot, not a live link")
	}
}

func TestMirrorHasAnyUnder(t *testing.T) {
	m := NewMirror()
	m.Add(1, "dir/sub/file.txt")

	if !m.HasAnyUnder(1, "dir") {
		t.Fatal("expected dir to still hold content")
	}
	if !m.HasAnyUnder(1, "dir/sub") {
		t.Fatal("expected dir/sub to still hold content")
	}
	m.Remove(1, "dir/sub/file.txt")
	if m.HasAnyUnder(1, "dir/sub") {
		t.Fatal("expected dir/sub to be empty once its only file is removed")
	}
}
