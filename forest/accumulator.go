package forest

import (
	"sort"

	"github.com/btcsuite/btclog"
)

// backend is the small capability set the modification engine drives,
// translating the position algebra's verdicts into store writes. It is
// the Go shape of the original C++ Accumulator's pure-virtual contract
// (NewLeaf, MergeRoot, SwapSubTrees, FinalizeRemove in
// _examples/original_source/src/accumulator.h), implemented here once
// against Store so any Store (ram or disk-backed) gets Add/Remove/
// Modify for free.
type backend interface {
	// NewLeaf appends a freshly added leaf as its own one-node root.
	NewLeaf(l Leaf) error
	// MergeRoot combines two adjacent roots into a parent at parentPos,
	// already computed by the caller.
	MergeRoot(parentPos uint64, parentHash Hash) error
	// SwapSubTrees exchanges the entire subtrees rooted at from and to,
	// which must be on the same row.
	SwapSubTrees(from, to uint64) error
	// FinalizeRemove drops position-map entries and truncates row
	// storage down to next's leaf count once a Remove's swaps have
	// rearranged surviving data into the low end of every row.
	FinalizeRemove(next ForestState) error
}

// ramBackend implements backend directly against a Store, grounded on
// RamForest's own method bodies (ram_forest.cpp): SwapSubTrees there
// walks LeftDescendant(pos, row) down to row 0 and climbs back up via
// Parent, swapping one row at a time; that walk is reproduced here
// unchanged, just expressed against the Store interface instead of
// RamForest's private m_data field directly.
type ramBackend struct {
	store Store
}

func (b *ramBackend) NewLeaf(l Leaf) error {
	return b.store.AppendLeaf(l.Hash)
}

func (b *ramBackend) MergeRoot(parentPos uint64, parentHash Hash) error {
	return b.store.Write(parentPos, parentHash)
}

func (b *ramBackend) SwapSubTrees(from, to uint64) error {
	state := ForestState{NumLeaves: b.store.NumLeaves()}
	row := state.DetectRow(from)
	if state.DetectRow(to) != row {
		return newErr(ErrOutOfRange, "SwapSubTrees: %d and %d are on different rows", from, to)
	}
	fromLeaf := state.LeftDescendant(from, row)
	toLeaf := state.LeftDescendant(to, row)
	for rng := uint64(1) << row; rng > 0; rng >>= 1 {
		if err := b.store.SwapRange(fromLeaf, toLeaf, rng); err != nil {
			return err
		}
		fromLeaf = state.Parent(fromLeaf)
		toLeaf = state.Parent(toLeaf)
	}
	return nil
}

func (b *ramBackend) FinalizeRemove(next ForestState) error {
	cur := b.store.NumLeaves()
	for pos := next.NumLeaves; pos < cur; pos++ {
		if err := b.store.DeleteLeafAt(pos); err != nil {
			return err
		}
	}
	return b.store.TruncateTo(next.NumLeaves)
}

// Accumulator is the modification and query engine: Add, Remove,
// Modify, Roots and GetLeaf, all driving a Store through a backend.
// Grounded on Accumulator in accumulator.h, minus the pointer-based
// Node/NodePtr bookkeeping the C++ needs and Go doesn't (§9): roots are
// never cached, only ever recomputed on demand from ForestState.
type Accumulator struct {
	store   Store
	hasher  Hasher
	backend backend
	pool    *NodePool
	logger  btclog.Logger
}

// defaultPoolCapacity bounds the number of simultaneously open Node
// views a single Remove call's rehash pass will allocate when the
// caller didn't ask for a specific NodePool size. It only needs to
// cover one row's worth of dirty positions at a time, so this is
// generous rather than tight.
const defaultPoolCapacity = 4096

func newAccumulator(store Store, hasher Hasher, maxNodes int) *Accumulator {
	if hasher == nil {
		hasher = DefaultHasher
	}
	if maxNodes <= 0 {
		maxNodes = defaultPoolCapacity
	}
	return &Accumulator{
		store:   store,
		hasher:  hasher,
		backend: &ramBackend{store: store},
		pool:    NewNodePool(maxNodes),
		logger:  btclog.Disabled,
	}
}

// SetLogger directs the accumulator's Add/Remove trace logging to l,
// replacing the teacher's scattered bridgeVerbose-gated fmt.Printf
// calls (forest.go in the teacher) with a real leveled logger. A nil
// logger is treated as btclog.Disabled.
func (a *Accumulator) SetLogger(l btclog.Logger) {
	if l == nil {
		l = btclog.Disabled
	}
	a.logger = l
}

// NumLeaves is the current number of leaves committed to the forest.
func (a *Accumulator) NumLeaves() uint64 {
	return a.store.NumLeaves()
}

// Add appends leaves one at a time, merging roots as the binary
// expansion of the leaf count carries, per spec.md §4.4 / Accumulator::Add.
// The whole batch is rejected (no leaves added) if any leaf in it is
// already present or repeated within the batch.
func (a *Accumulator) Add(leaves []Leaf) error {
	if len(leaves) == 0 {
		return nil
	}
	seen := make(map[MiniHash]bool, len(leaves))
	for _, l := range leaves {
		if _, found := a.store.PositionOf(l.Hash); found {
			return newErr(ErrDuplicateLeaf, "leaf already present")
		}
		if seen[l.Hash.Mini()] {
			return newErr(ErrDuplicateLeaf, "duplicate leaf within batch")
		}
		seen[l.Hash.Mini()] = true
	}

	final := ForestState{NumLeaves: a.store.NumLeaves() + uint64(len(leaves))}
	a.store.Reserve(final)

	for _, l := range leaves {
		if err := a.addOne(l); err != nil {
			return err
		}
	}
	a.logger.Debugf("added %d leaves, %d total", len(leaves), a.store.NumLeaves())
	return nil
}

func (a *Accumulator) addOne(l Leaf) error {
	before := a.store.NumLeaves()
	if err := a.backend.NewLeaf(l); err != nil {
		return err
	}

	state := ForestState{NumLeaves: before + 1}
	pos := before
	curHash, err := a.store.Read(pos)
	if err != nil {
		return err
	}

	for row := uint8(0); (before>>row)&1 == 1; row++ {
		siblingPos := state.Sibling(pos)
		siblingHash, err := a.store.Read(siblingPos)
		if err != nil {
			return err
		}
		parentHash := a.hasher.ParentHash(siblingHash, curHash)
		parentPos := state.Parent(pos)
		if err := a.backend.MergeRoot(parentPos, parentHash); err != nil {
			return err
		}
		pos, curHash = parentPos, parentHash
	}
	return nil
}

// Remove deletes the leaves at the given row-0 positions. targets need
// not be sorted but must be distinct and in range; positions are
// resolved to the surviving forest by repeated subtree swaps followed
// by an ascending rehash of everything a swap touched, then a single
// FinalizeRemove truncation, grounded on the twin-extraction and
// swap-climb pattern of Accumulator::Remove / RamForest's
// SwapSubTrees+FinalizeRemove pairing.
func (a *Accumulator) Remove(targets []uint64) error {
	if len(targets) == 0 {
		return nil
	}
	state := ForestState{NumLeaves: a.store.NumLeaves()}
	sorted := append([]uint64(nil), targets...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	if !state.CheckTargetsSanity(sorted) {
		return newErr(ErrBadTarget, "targets out of range")
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return newErr(ErrBadTarget, "duplicate target %d", sorted[i])
		}
	}

	h := state.forestRows()
	newNumLeaves := state.NumLeaves - uint64(len(sorted))
	dels := sorted
	var dirty []uint64

	for row := uint8(0); row <= h && len(dels) > 0; row++ {
		width := state.NumLeaves >> row
		if width == 0 {
			break
		}
		offset := state.rowOffsetForRow(row)
		// keepBoundary is the first position on this row that the
		// post-removal truncation drops. A single already at or past it
		// needs no replacement: it is already headed for the tail
		// FinalizeRemove truncates away.
		keepBoundary := offset + (newNumLeaves >> row)

		var singles, twinParents []uint64
		delSet := make(map[uint64]bool, len(dels))
		for _, d := range dels {
			delSet[d] = true
		}
		for i := 0; i < len(dels); {
			p := dels[i]
			sib := state.Sibling(p)
			if i+1 < len(dels) && dels[i+1] == sib {
				twinParents = append(twinParents, state.Parent(p))
				i += 2
				continue
			}
			singles = append(singles, p)
			i++
		}

		var needSwap []uint64
		for _, s := range singles {
			if s < keepBoundary {
				needSwap = append(needSwap, s)
			}
		}

		var replacements []uint64
		cursor := offset + width - 1
		for len(replacements) < len(needSwap) && cursor >= keepBoundary {
			if !delSet[cursor] {
				replacements = append(replacements, cursor)
			}
			if cursor == keepBoundary {
				break
			}
			cursor--
		}

		for i, single := range needSwap {
			if i >= len(replacements) {
				continue
			}
			repl := replacements[i]
			if repl == single {
				continue
			}
			if err := a.backend.SwapSubTrees(repl, single); err != nil {
				return err
			}
			dirty = append(dirty, state.Parent(single))
		}

		dels = twinParents
	}

	sort.Slice(dirty, func(i, j int) bool { return dirty[i] < dirty[j] })
	dirty = dedupeSorted(dirty)
	for len(dirty) > 0 {
		var next []uint64
		handles := make([]NodeHandle, len(dirty))
		for i, pos := range dirty {
			handles[i] = a.pool.Alloc(pos)
		}
		for i, pos := range dirty {
			row := state.DetectRow(pos)
			n := node{store: a.store, hasher: a.hasher, state: state, pos: a.pool.Position(handles[i])}
			if _, err := n.ReHash(); err != nil {
				return err
			}
			if state.HasRoot(row) && state.RootPosition(row) == pos {
				a.pool.Free(handles[i])
				continue
			}
			next = append(next, state.Parent(pos))
			a.pool.Free(handles[i])
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		dirty = dedupeSorted(next)
	}

	if err := a.backend.FinalizeRemove(ForestState{NumLeaves: newNumLeaves}); err != nil {
		return err
	}
	a.logger.Debugf("removed %d leaves, %d remain", len(sorted), newNumLeaves)
	return nil
}

// Modify deletes dels and then adds adds in one call, the batched form
// most callers want (a block of spent and created outputs at once).
// There is no rollback on a partial failure; callers that need
// transactional semantics across process restarts should Commit a
// snapshot first.
func (a *Accumulator) Modify(dels []uint64, adds []Leaf) error {
	if err := a.Remove(dels); err != nil {
		return err
	}
	return a.Add(adds)
}

// Roots returns the current root hashes, tallest tree first.
func (a *Accumulator) Roots() ([]Hash, error) {
	state := ForestState{NumLeaves: a.store.NumLeaves()}
	positions := state.RootPositions()
	roots := make([]Hash, len(positions))
	for i, pos := range positions {
		h, err := a.store.Read(pos)
		if err != nil {
			return nil, err
		}
		roots[i] = h
	}
	return roots, nil
}

// GetLeaf returns whether h is currently a leaf and, if so, its
// position.
func (a *Accumulator) GetLeaf(h Hash) (pos uint64, present bool) {
	return a.store.PositionOf(h)
}

func dedupeSorted(s []uint64) []uint64 {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
