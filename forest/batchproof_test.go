package forest

import "testing"

func TestBatchProofSerializeRoundTrip(t *testing.T) {
	bp := BatchProof{
		Targets: []uint64{1, 4, 9},
		Proof:   []Hash{leafHash(1), leafHash(2)},
	}
	b := bp.Serialize()
	if len(b) != bp.SerializeSize() {
		t.Fatalf("Serialize len = %d, want %d", len(b), bp.SerializeSize())
	}
	got, err := DeserializeBatchProof(b)
	if err != nil {
		t.Fatalf("DeserializeBatchProof: %v", err)
	}
	if len(got.Targets) != len(bp.Targets) || len(got.Proof) != len(bp.Proof) {
		t.Fatalf("round trip length mismatch: got %+v", got)
	}
	for i := range bp.Targets {
		if got.Targets[i] != bp.Targets[i] {
			t.Fatalf("Targets[%d] = %d, want %d", i, got.Targets[i], bp.Targets[i])
		}
	}
	for i := range bp.Proof {
		if got.Proof[i] != bp.Proof[i] {
			t.Fatalf("Proof[%d] mismatch", i)
		}
	}
}

func TestVerifyProofRejectsTamperedHash(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(5)); err != nil {
		t.Fatal(err)
	}
	roots, err := f.Roots()
	if err != nil {
		t.Fatal(err)
	}
	pos, ok := f.GetLeaf(leafHash(2))
	if !ok {
		t.Fatal("leaf 2 missing")
	}
	proof, err := f.Prove([]Hash{leafHash(2)})
	if err != nil {
		t.Fatal(err)
	}

	wrongHash := leafHash(99)
	ok2, err := VerifyProof(roots, f.NumLeaves(), []uint64{pos}, []Hash{wrongHash}, proof.Proof, DefaultHasher)
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Fatal("VerifyProof accepted a tampered leaf hash")
	}

	ok3, err := VerifyProof(roots, f.NumLeaves(), []uint64{pos}, []Hash{leafHash(2)}, proof.Proof, DefaultHasher)
	if err != nil {
		t.Fatal(err)
	}
	if !ok3 {
		t.Fatal("VerifyProof rejected a genuine proof")
	}
}

func TestProveUnknownLeafRejected(t *testing.T) {
	f := New(64)
	if err := f.Add(leaves(4)); err != nil {
		t.Fatal(err)
	}
	_, err := f.Prove([]Hash{leafHash(99)})
	ferr, ok := err.(*Error)
	if !ok || ferr.Kind != ErrUnknownLeaf {
		t.Fatalf("Prove unknown leaf: got %v, want ErrUnknownLeaf", err)
	}
}
