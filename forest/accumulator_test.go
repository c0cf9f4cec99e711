package forest

import "testing"

func leaves(n int) []Leaf {
	out := make([]Leaf, n)
	for i := range out {
		out[i] = Leaf{Hash: leafHash(byte(i)), Remember: true}
	}
	return out
}

func TestAccumulatorAddPerfectTreeRoot(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(8)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	roots, err := f.Roots()
	if err != nil {
		t.Fatalf("Roots: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("Roots() len = %d, want 1 for 8 leaves", len(roots))
	}

	h := DefaultHasher
	l := make([]Hash, 8)
	for i := range l {
		l[i] = leafHash(byte(i))
	}
	row1 := []Hash{h.ParentHash(l[0], l[1]), h.ParentHash(l[2], l[3]), h.ParentHash(l[4], l[5]), h.ParentHash(l[6], l[7])}
	row2 := []Hash{h.ParentHash(row1[0], row1[1]), h.ParentHash(row1[2], row1[3])}
	want := h.ParentHash(row2[0], row2[1])

	if roots[0] != want {
		t.Fatalf("Roots()[0] = %x, want %x", roots[0], want)
	}
}

func TestAccumulatorAddDuplicateRejected(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(2)); err != nil {
		t.Fatal(err)
	}
	err := f.Add([]Leaf{{Hash: leafHash(0)}})
	ferr, ok := err.(*Error)
	if !ok || ferr.Kind != ErrDuplicateLeaf {
		t.Fatalf("Add duplicate: got %v, want ErrDuplicateLeaf", err)
	}
	if f.NumLeaves() != 2 {
		t.Fatalf("NumLeaves() = %d after rejected Add, want unchanged 2", f.NumLeaves())
	}
}

func TestAccumulatorAddDuplicateWithinBatchRejected(t *testing.T) {
	f := New(64)
	err := f.Add([]Leaf{{Hash: leafHash(1)}, {Hash: leafHash(1)}})
	ferr, ok := err.(*Error)
	if !ok || ferr.Kind != ErrDuplicateLeaf {
		t.Fatalf("Add batch duplicate: got %v, want ErrDuplicateLeaf", err)
	}
	if f.NumLeaves() != 0 {
		t.Fatalf("NumLeaves() = %d after rejected batch Add, want 0", f.NumLeaves())
	}
}

func TestAccumulatorRemoveThenProveSurvivors(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(7)); err != nil {
		t.Fatal(err)
	}

	removedPos := []uint64{2, 5}
	if err := f.Remove(removedPos); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.NumLeaves() != 5 {
		t.Fatalf("NumLeaves() = %d, want 5 after removing 2 of 7", f.NumLeaves())
	}

	for _, pos := range removedPos {
		if _, present := f.GetLeaf(leafHash(byte(pos))); present {
			t.Fatalf("leaf %d still present after Remove", pos)
		}
	}

	roots, err := f.Roots()
	if err != nil {
		t.Fatal(err)
	}

	survivors := []byte{0, 1, 3, 4, 6}
	for _, b := range survivors {
		pos, present := f.GetLeaf(leafHash(b))
		if !present {
			t.Fatalf("survivor leaf %d missing after Remove", b)
		}
		proof, err := f.Prove([]Hash{leafHash(b)})
		if err != nil {
			t.Fatalf("Prove(%d): %v", pos, err)
		}
		ok, err := VerifyProof(roots, f.NumLeaves(), []uint64{pos}, []Hash{leafHash(b)}, proof.Proof, DefaultHasher)
		if err != nil {
			t.Fatalf("VerifyProof(%d): %v", pos, err)
		}
		if !ok {
			t.Fatalf("VerifyProof(%d) = false, want true", pos)
		}
	}
}

func TestAccumulatorRemoveBadTarget(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(4)); err != nil {
		t.Fatal(err)
	}
	if err := f.Remove([]uint64{10}); err == nil {
		t.Fatal("Remove out-of-range target: want error")
	}
	if err := f.Remove([]uint64{1, 1}); err == nil {
		t.Fatal("Remove duplicate target: want error")
	}
}

func TestAccumulatorModify(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(4)); err != nil {
		t.Fatal(err)
	}
	newLeaf := Leaf{Hash: leafHash(100)}
	if err := f.Modify([]uint64{0}, []Leaf{newLeaf}); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	if f.NumLeaves() != 4 {
		t.Fatalf("NumLeaves() = %d after Modify(-1,+1), want 4", f.NumLeaves())
	}
	if _, present := f.GetLeaf(leafHash(0)); present {
		t.Fatal("leaf 0 still present after Modify removed it")
	}
	if _, present := f.GetLeaf(newLeaf.Hash); !present {
		t.Fatal("new leaf missing after Modify")
	}
}
