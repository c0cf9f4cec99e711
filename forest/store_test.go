package forest

import "testing"

func leafHash(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestRAMStoreAppendAndRead(t *testing.T) {
	s := newRAMStore()
	for i := byte(0); i < 4; i++ {
		if err := s.AppendLeaf(leafHash(i)); err != nil {
			t.Fatalf("AppendLeaf(%d): %v", i, err)
		}
	}
	if s.NumLeaves() != 4 {
		t.Fatalf("NumLeaves() = %d, want 4", s.NumLeaves())
	}
	for i := uint64(0); i < 4; i++ {
		got, err := s.Read(i)
		if err != nil {
			t.Fatalf("Read(%d): %v", i, err)
		}
		if got != leafHash(byte(i)) {
			t.Fatalf("Read(%d) = %v, want leaf %d", i, got, i)
		}
	}
}

func TestRAMStoreDuplicateLeaf(t *testing.T) {
	s := newRAMStore()
	h := leafHash(1)
	if err := s.AppendLeaf(h); err != nil {
		t.Fatal(err)
	}
	err := s.AppendLeaf(h)
	ferr, ok := err.(*Error)
	if !ok || ferr.Kind != ErrDuplicateLeaf {
		t.Fatalf("AppendLeaf duplicate: got %v, want ErrDuplicateLeaf", err)
	}
}

func TestRAMStoreSwapRangeUpdatesPosMap(t *testing.T) {
	s := newRAMStore()
	for i := byte(0); i < 4; i++ {
		if err := s.AppendLeaf(leafHash(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SwapRange(0, 2, 1); err != nil {
		t.Fatalf("SwapRange: %v", err)
	}
	got0, _ := s.Read(0)
	got2, _ := s.Read(2)
	if got0 != leafHash(2) || got2 != leafHash(0) {
		t.Fatalf("SwapRange did not swap row data: pos0=%v pos2=%v", got0, got2)
	}
	if pos, ok := s.PositionOf(leafHash(2)); !ok || pos != 0 {
		t.Fatalf("PositionOf(leaf2) = (%d, %v), want (0, true)", pos, ok)
	}
	if pos, ok := s.PositionOf(leafHash(0)); !ok || pos != 2 {
		t.Fatalf("PositionOf(leaf0) = (%d, %v), want (2, true)", pos, ok)
	}
}

func TestRAMStoreTruncateTo(t *testing.T) {
	s := newRAMStore()
	for i := byte(0); i < 8; i++ {
		if err := s.AppendLeaf(leafHash(i)); err != nil {
			t.Fatal(err)
		}
	}
	s.rows = append(s.rows, make([]Hash, 4), make([]Hash, 2), make([]Hash, 1))
	if err := s.TruncateTo(4); err != nil {
		t.Fatalf("TruncateTo: %v", err)
	}
	if s.NumLeaves() != 4 {
		t.Fatalf("NumLeaves() after truncate = %d, want 4", s.NumLeaves())
	}
	if len(s.rows[1]) != 2 || len(s.rows[2]) != 1 || len(s.rows[3]) != 0 {
		t.Fatalf("row lengths after truncate = %v", []int{len(s.rows[1]), len(s.rows[2]), len(s.rows[3])})
	}
}
