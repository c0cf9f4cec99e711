package forest

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// BatchProof bundles the positions a caller asked to prove with the
// minimal set of sibling hashes (in ProofPositions order) needed to
// recompute every root their subtrees feed into. Grounded on
// BatchProof in accumulator.h and its Go cousin
// accumulator/batchproof.go, whose 4-byte big-endian length-prefixed
// wire format this mirrors.
type BatchProof struct {
	Targets []uint64
	Proof   []Hash
}

// SerializeSize returns the exact byte length Serialize will produce.
func (bp BatchProof) SerializeSize() int {
	return 4 + 8*len(bp.Targets) + 4 + 32*len(bp.Proof)
}

// Serialize writes bp's wire form: a 4-byte target count, that many
// 8-byte big-endian positions, a 4-byte proof-hash count, then that
// many 32-byte hashes.
func (bp BatchProof) Serialize() []byte {
	buf := make([]byte, bp.SerializeSize())
	off := 0
	binary.BigEndian.PutUint32(buf[off:], uint32(len(bp.Targets)))
	off += 4
	for _, t := range bp.Targets {
		binary.BigEndian.PutUint64(buf[off:], t)
		off += 8
	}
	binary.BigEndian.PutUint32(buf[off:], uint32(len(bp.Proof)))
	off += 4
	for _, h := range bp.Proof {
		copy(buf[off:], h[:])
		off += 32
	}
	return buf
}

// DeserializeBatchProof parses the format Serialize writes.
func DeserializeBatchProof(b []byte) (BatchProof, error) {
	r := bytes.NewReader(b)
	var targetCount uint32
	if err := binary.Read(r, binary.BigEndian, &targetCount); err != nil {
		return BatchProof{}, newErr(ErrCorruptFile, "reading target count: %v", err)
	}
	targets := make([]uint64, targetCount)
	for i := range targets {
		if err := binary.Read(r, binary.BigEndian, &targets[i]); err != nil {
			return BatchProof{}, newErr(ErrCorruptFile, "reading target %d: %v", i, err)
		}
	}
	var proofCount uint32
	if err := binary.Read(r, binary.BigEndian, &proofCount); err != nil {
		return BatchProof{}, newErr(ErrCorruptFile, "reading proof count: %v", err)
	}
	proof := make([]Hash, proofCount)
	for i := range proof {
		if _, err := r.Read(proof[i][:]); err != nil {
			return BatchProof{}, newErr(ErrCorruptFile, "reading proof hash %d: %v", i, err)
		}
	}
	return BatchProof{Targets: targets, Proof: proof}, nil
}

// Prove builds a BatchProof for targetHashes, the leaf hashes a caller
// wants to prove (spec.md §4.5 step 1, §6). Each hash is resolved to
// its row-0 position through the store's position map, failing with
// unknown-leaf on any miss, before following RamForest::Prove
// (ram_forest.cpp): sort the resolved positions, sanity-check, compute
// ProofPositions, then read each position's current hash out of the
// store.
func (a *Accumulator) Prove(targetHashes []Hash) (BatchProof, error) {
	state := ForestState{NumLeaves: a.store.NumLeaves()}

	targets := make([]uint64, len(targetHashes))
	for i, th := range targetHashes {
		pos, found := a.store.PositionOf(th)
		if !found {
			return BatchProof{}, newErr(ErrUnknownLeaf, "leaf %d not in forest", i)
		}
		targets[i] = pos
	}

	sorted := append([]uint64(nil), targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if !state.CheckTargetsSanity(sorted) {
		return BatchProof{}, newErr(ErrBadTarget, "targets out of range or duplicated")
	}

	proofPositions := state.ProofPositions(sorted)
	proof := make([]Hash, len(proofPositions))
	for i, p := range proofPositions {
		h, err := a.store.Read(p)
		if err != nil {
			return BatchProof{}, err
		}
		proof[i] = h
	}

	return BatchProof{Targets: targets, Proof: proof}, nil
}

type posHash struct {
	pos uint64
	h   Hash
}

// VerifyProof recomputes every root a batch proof's targets feed into
// and reports whether they match roots. It is a pure function of its
// arguments, supplementing RamForest::Verify, which
// _examples/original_source/src/ram_forest.cpp leaves as a TODO stub
// that only checks position-map membership; this mirror algorithm
// actually recomputes and compares hashes, the way
// accumulator/batchproof.go's verifyBatchProof does against a loaded
// forest.
func VerifyProof(roots []Hash, numLeaves uint64, targets []uint64, targetHashes []Hash, proof []Hash, hasher Hasher) (bool, error) {
	if len(targets) != len(targetHashes) {
		return false, newErr(ErrBadTarget, "targets/hashes length mismatch")
	}
	if hasher == nil {
		hasher = DefaultHasher
	}
	state := ForestState{NumLeaves: numLeaves}

	cur := make([]posHash, len(targets))
	for i := range targets {
		cur[i] = posHash{targets[i], targetHashes[i]}
	}
	sort.Slice(cur, func(i, j int) bool { return cur[i].pos < cur[j].pos })

	sortedPositions := make([]uint64, len(cur))
	for i, ph := range cur {
		sortedPositions[i] = ph.pos
	}
	if !state.CheckTargetsSanity(sortedPositions) {
		return false, newErr(ErrBadTarget, "targets out of range or duplicated")
	}

	rootPositions := state.RootPositions()
	if len(rootPositions) != len(roots) {
		return false, newErr(ErrBadTarget, "expected %d roots, got %d", len(rootPositions), len(roots))
	}
	rootIdx := make(map[uint64]Hash, len(roots))
	for i, p := range rootPositions {
		rootIdx[p] = roots[i]
	}

	h := state.forestRows()
	proofIdx := 0
	for row := uint8(0); len(cur) > 0 && row <= h+1; row++ {
		var next []posHash
		for i := 0; i < len(cur); {
			p := cur[i].pos
			pHash := cur[i].h
			if state.HasRoot(row) && state.RootPosition(row) == p {
				expected, ok := rootIdx[p]
				if !ok || pHash != expected {
					return false, nil
				}
				i++
				continue
			}

			sib := state.Sibling(p)
			var sibHash Hash
			if i+1 < len(cur) && cur[i+1].pos == sib {
				sibHash = cur[i+1].h
				i += 2
			} else {
				if proofIdx >= len(proof) {
					return false, newErr(ErrCorruptFile, "proof ran out of sibling hashes")
				}
				sibHash = proof[proofIdx]
				proofIdx++
				i++
			}

			leftHash, rightHash := pHash, sibHash
			if sib < p {
				leftHash, rightHash = sibHash, pHash
			}
			next = append(next, posHash{state.Parent(p), hasher.ParentHash(leftHash, rightHash)})
		}
		sort.Slice(next, func(i, j int) bool { return next[i].pos < next[j].pos })
		cur = next
	}

	return true, nil
}
