package forest

import "math/bits"

// ForestState is a pure value type carrying only the current leaf
// count. Every layout query is a total function of this integer,
// reconstructed fresh on every call rather than cached across
// mutations — the design explicitly rejected by spec.md §9 in favor of
// the "pass-by-value, no global" strategy the original C++
// implementation uses (`ForestState state(m_num_leaves)` constructed
// locally in every `RamForest` method, `_examples/original_source/src/ram_forest.cpp`).
type ForestState struct {
	NumLeaves uint64
}

// NumRows returns the bit-length of NumLeaves (0 if NumLeaves is 0).
// This is the bound HasRoot and RootPositions scan over; it is one
// larger than forestRows exactly when NumLeaves is an exact power of
// two, because the tallest root then sits at row forestRows itself.
// See SPEC_FULL.md's "Resolved Open Questions" for why these two
// quantities are not the same.
func (s ForestState) NumRows() uint8 {
	return uint8(bits.Len64(s.NumLeaves))
}

// forestRows is ceil(log2(NumLeaves)): the exponent of the enlarged,
// padded binary tree that the row-major position numbering is laid out
// against. It is the teacher's "forestRows" parameter
// (accumulator/utils.go's treeRows), recomputed from NumLeaves alone
// instead of lagging behind as a monotonic capacity field.
func (s ForestState) forestRows() uint8 {
	if s.NumLeaves == 0 {
		return 0
	}
	return uint8(bits.Len64(s.NumLeaves - 1))
}

// HasRoot reports whether a perfect tree of 2^row leaves currently
// exists, i.e. whether the row-th bit of NumLeaves is set.
func (s ForestState) HasRoot(row uint8) bool {
	if row >= 64 {
		return false
	}
	return (s.NumLeaves>>row)&1 == 1
}

// mask returns (2<<h)-1, the address mask for an enlarged tree of
// height h. h can legally reach 63 (NumLeaves up to 2^63 per spec.md
// §3); then 1<<(h+1) is 0 under Go's shift rules and the subtraction
// wraps to the all-ones mask.
func mask(h uint8) uint64 {
	return (uint64(1) << (h + 1)) - 1
}

// RootPosition returns the position of the root at the given row.
// HasRoot(row) must be true; behavior is undefined otherwise (spec.md
// §4.1).
func (s ForestState) RootPosition(row uint8) uint64 {
	h := s.forestRows()
	m := mask(h)
	before := s.NumLeaves & (m << (row + 1))
	shifted := (before >> row) | (m << (h + 1 - row))
	return shifted & m
}

// RootPositions returns the positions of all current roots, taller
// trees first (i.e. descending by row), matching the taller-tree-first
// ordering §2 and §6 require of Roots().
func (s ForestState) RootPositions() []uint64 {
	if s.NumLeaves == 0 {
		return nil
	}
	h := s.forestRows()
	roots := make([]uint64, 0, bits.OnesCount64(s.NumLeaves))
	for row := int16(h); row >= 0; row-- {
		r := uint8(row)
		if s.HasRoot(r) {
			roots = append(roots, s.RootPosition(r))
		}
	}
	return roots
}

// DetectRow infers the row of pos from the leading-ones prefix of pos,
// counted against forestRows. Grounded on the teacher's detectRow
// (accumulator/utils.go), generalized to the recomputed forestRows.
func (s ForestState) DetectRow(pos uint64) uint8 {
	h := s.forestRows()
	marker := uint64(1) << h
	var row uint8
	for pos&marker != 0 {
		row++
		marker >>= 1
	}
	return row
}

// RowOffset returns the first (leftmost) position on the row that pos
// belongs to.
func (s ForestState) RowOffset(pos uint64) uint64 {
	return s.rowOffsetForRow(s.DetectRow(pos))
}

// rowOffsetForRow is the leftmost position on the given row, derived
// directly from the "row r contains 2^H, 2^H+2^(H-1), ..." layout of
// spec.md §3 (H being forestRows here); row 0 correctly falls out of
// the same formula as offset 0.
func (s ForestState) rowOffsetForRow(row uint8) uint64 {
	h := s.forestRows()
	return (uint64(1) << (h + 1)) - (uint64(1) << (h - row + 1))
}

// Parent returns the nominal parent of pos in the enlarged tree. If pos
// is currently a root, this is a nominal parent in an abstract larger
// tree, not a real forest node; callers decide root-ness separately via
// HasRoot + RootPosition (spec.md §4.1).
func (s ForestState) Parent(pos uint64) uint64 {
	h := s.forestRows()
	return (pos >> 1) | (uint64(1) << h)
}

// Child returns the left (lr=0) or right (lr=1) child of pos.
func (s ForestState) Child(pos uint64, lr uint8) uint64 {
	h := s.forestRows()
	left := (pos << 1) & mask(h)
	return left | uint64(lr&1)
}

// Sibling returns the position's sibling (the other child of its
// parent).
func (s ForestState) Sibling(pos uint64) uint64 {
	return pos ^ 1
}

// LeftDescendant returns the leftmost descendant of pos dropRows rows
// below it (dropRows=0 returns pos itself).
func (s ForestState) LeftDescendant(pos uint64, dropRows uint8) uint64 {
	if dropRows == 0 {
		return pos
	}
	h := s.forestRows()
	return (pos << dropRows) & mask(h)
}

// CheckTargetsSanity reports whether sortedTargets are all row-0
// positions, strictly increasing, and within bounds.
func (s ForestState) CheckTargetsSanity(sortedTargets []uint64) bool {
	for i, t := range sortedTargets {
		if t >= s.NumLeaves {
			return false
		}
		if i > 0 && sortedTargets[i-1] >= t {
			return false
		}
	}
	return true
}

// ProofPositions returns the minimal ordered sequence of sibling
// positions needed, together with sortedTargets' hashes, to re-derive
// every root their trees feed into. Positions are emitted ascending
// within each row, rows bottom-up, per spec.md §4.5.
func (s ForestState) ProofPositions(sortedTargets []uint64) []uint64 {
	h := s.forestRows()
	current := append([]uint64(nil), sortedTargets...)

	var proof []uint64
	for row := uint8(0); len(current) > 0 && row <= h+1; row++ {
		var next []uint64
		for i := 0; i < len(current); {
			p := current[i]
			if s.HasRoot(row) && p == s.RootPosition(row) {
				// Roots need no proof and have no parent to continue to.
				i++
				continue
			}
			sib := s.Sibling(p)
			if i+1 < len(current) && current[i+1] == sib {
				// Both siblings are already known; only their parent
				// needs to be derived further up.
				i += 2
			} else {
				proof = append(proof, sib)
				i++
			}
			next = append(next, s.Parent(p))
		}
		current = next
	}
	return proof
}
