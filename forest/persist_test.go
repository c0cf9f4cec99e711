package forest

import (
	"bytes"
	"testing"
)

func TestCommitRestoreRoundTrip(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(7)); err != nil {
		t.Fatal(err)
	}
	if err := f.Remove([]uint64{2}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := f.Commit(&buf); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	restored, err := Restore(&buf, 64)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.NumLeaves() != f.NumLeaves() {
		t.Fatalf("NumLeaves() after restore = %d, want %d", restored.NumLeaves(), f.NumLeaves())
	}

	wantRoots, err := f.Roots()
	if err != nil {
		t.Fatal(err)
	}
	gotRoots, err := restored.Roots()
	if err != nil {
		t.Fatal(err)
	}
	if len(gotRoots) != len(wantRoots) {
		t.Fatalf("Roots() len after restore = %d, want %d", len(gotRoots), len(wantRoots))
	}
	for i := range wantRoots {
		if gotRoots[i] != wantRoots[i] {
			t.Fatalf("Roots()[%d] after restore = %x, want %x", i, gotRoots[i], wantRoots[i])
		}
	}

	for _, b := range []byte{0, 1, 3, 4, 5, 6} {
		if _, present := restored.GetLeaf(leafHash(b)); !present {
			t.Fatalf("leaf %d missing after restore", b)
		}
	}
}
