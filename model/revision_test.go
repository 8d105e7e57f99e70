package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRevisionNumber(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		trunk  bool
		branch bool
	}{
		{"1.1", "1.1", true, false},
		{"1.3.2.4", "1.3.2.4", false, false},
		{"1.3.2", "1.3.2", false, true},
	}
	for _, c := range cases {
		rn, err := ParseRevisionNumber(c.in)
		require.NoErrorf(t, err, "ParseRevisionNumber(%q)", c.in)
		assert.Equal(t, c.want, rn.String())
		assert.Equalf(t, c.trunk, rn.IsTrunk(), "IsTrunk(%q)", c.in)
		assert.Equalf(t, c.branch, rn.IsBranch(), "IsBranch(%q)", c.in)
	}
}

func TestRevisionNumberLess(t *testing.T) {
	a, _ := ParseRevisionNumber("1.2")
	b, _ := ParseRevisionNumber("1.10")
	if !a.Less(b) {
		t.Errorf("expected 1.2 < 1.10 numerically, not lexically")
	}
	if b.Less(a) {
		t.Errorf("1.10 should not be less than 1.2")
	}
}

func TestBranchPointNumber(t *testing.T) {
	rn, _ := ParseRevisionNumber("1.3.2.4")
	branch := rn.BranchNumber()
	if branch.String() != "1.3.2" {
		t.Errorf("BranchNumber() = %s, want 1.3.2", branch.String())
	}
	root := branch.BranchPointNumber()
	if root.String() != "1.3" {
		t.Errorf("BranchPointNumber() = %s, want 1.3", root.String())
	}
}

func TestMetadataInterning(t *testing.T) {
	store := NewMetadataStore()
	id1 := store.Intern("alice", "fix bug")
	id2 := store.Intern("alice", "fix bug")
	id3 := store.Intern("alice", "add feature")
	assert.Equal(t, id1, id2, "identical (author, log) pairs should intern to the same id")
	assert.NotEqual(t, id1, id3, "distinct log messages should intern to distinct ids")
	assert.Equal(t, 2, store.Len())
}

func TestSymbolSortedParentVotes(t *testing.T) {
	s := NewSymbol(1, 1, "REL1")
	s.Vote(TrunkLOD)
	s.Vote(TrunkLOD)
	s.Vote(5)
	votes := s.SortedParentVotes()
	if len(votes) != 2 || votes[0].Parent != TrunkLOD || votes[0].Count != 2 {
		t.Fatalf("unexpected vote order: %+v", votes)
	}
}
