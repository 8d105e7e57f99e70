package store

import "testing"

type fixture struct {
	Name  string
	Count int
}

func TestIndexedStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := Create[fixture](dir, "widgets", 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Append(1, fixture{Name: "a", Count: 1}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(2, fixture{Name: "b", Count: 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if rec, ok, err := w.Get(1); err != nil || !ok || rec.Name != "a" {
		t.Fatalf("Get(1) pre-commit = %+v, %v, %v", rec, ok, err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open[fixture](dir, "widgets", 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec, ok, err := r.Get(2)
	if err != nil || !ok {
		t.Fatalf("Get(2) post-commit = %+v, %v, %v", rec, ok, err)
	}
	if rec.Name != "b" || rec.Count != 2 {
		t.Errorf("Get(2) = %+v, want {b 2}", rec)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	var seen []string
	if err := r.Iter(func(id int64, rec fixture) error {
		seen = append(seen, rec.Name)
		return nil
	}); err != nil {
		t.Fatalf("Iter: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("Iter order = %v, want [a b]", seen)
	}
}

func TestIndexedStoreDuplicateIDRejected(t *testing.T) {
	dir := t.TempDir()
	w, _ := Create[fixture](dir, "dupes", 1)
	if err := w.Append(1, fixture{Name: "a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := w.Append(1, fixture{Name: "b"}); err == nil {
		t.Error("expected error appending duplicate id")
	}
}

func TestIndexedStoreAppendAfterCommitRejected(t *testing.T) {
	dir := t.TempDir()
	w, _ := Create[fixture](dir, "sealed", 1)
	_ = w.Append(1, fixture{Name: "a"})
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := w.Append(2, fixture{Name: "b"}); err == nil {
		t.Error("expected error appending after commit")
	}
}

func TestKeyedStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewKeyedStoreString[int](dir, "counts", 1)
	_ = w.Put("zeta", 26)
	_ = w.Put("alpha", 1)
	_ = w.Put("mu", 13)
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	r, err := OpenKeyedStore[int](dir, "counts", 1, false)
	if err != nil {
		t.Fatalf("OpenKeyedStore: %v", err)
	}
	if v, ok := r.Get("mu"); !ok || v != 13 {
		t.Errorf("Get(mu) = %d, %v, want 13, true", v, ok)
	}
	var order []string
	r.Each(func(key interface{}, value int) {
		order = append(order, key.(string))
	})
	if len(order) != 3 || order[0] != "alpha" || order[1] != "mu" || order[2] != "zeta" {
		t.Errorf("Each order = %v, want [alpha mu zeta]", order)
	}
}

func TestKeyedStorePutAfterCommitRejected(t *testing.T) {
	dir := t.TempDir()
	w := NewKeyedStoreString[int](dir, "sealed-kv", 1)
	_ = w.Put("a", 1)
	if err := w.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := w.Put("b", 2); err == nil {
		t.Error("expected error putting after commit")
	}
}

func TestManagerRefusesUndeclaredArtifact(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	m.BeginPass("collect")
	if _, err := CreateIndexed[fixture](m, "revisions", 1); err == nil {
		t.Error("expected error creating undeclared artifact")
	}
	m.DeclareWrite("revisions")
	if _, err := CreateIndexed[fixture](m, "revisions", 1); err != nil {
		t.Errorf("declared write still rejected: %v", err)
	}
	if _, err := OpenIndexed[fixture](m, "revisions", 1); err == nil {
		t.Error("expected error opening a write-only declared artifact for reading")
	}
}

func TestManagerStatePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	m1 := NewManager(dir)
	if err := m1.CompletePass("collect"); err != nil {
		t.Fatalf("CompletePass: %v", err)
	}
	if err := m1.CompletePass("classify_symbols"); err != nil {
		t.Fatalf("CompletePass: %v", err)
	}

	m2 := NewManager(dir)
	st, err := m2.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st.LastCompletedPass != "classify_symbols" {
		t.Errorf("LastCompletedPass = %q, want classify_symbols", st.LastCompletedPass)
	}
	if !st.HasCompleted("collect") || !st.HasCompleted("classify_symbols") {
		t.Errorf("HasCompleted missing entries: %+v", st)
	}
	if st.HasCompleted("build_changesets") {
		t.Error("HasCompleted true for a pass that never ran")
	}
}
