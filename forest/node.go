package forest

// node is a view of a single forest position against a store and the
// forest state at the time of the call. It carries no identity beyond
// its position, mirroring RamForest::Node in
// _examples/original_source/src/ram_forest.cpp but as a plain value
// type instead of a pool-allocated pointer, since Go needs neither
// pointer stability nor manual lifetime management to get the same
// behavior (§4.3, §9).
type node struct {
	store  Store
	hasher Hasher
	state  ForestState
	pos    uint64
}

// GetHash reads this node's current hash from the store.
func (n node) GetHash() (Hash, error) {
	return n.store.Read(n.pos)
}

// ReHash recomputes this node's hash from its two children and writes
// it back to the store, returning the new hash. Grounded on
// RamForest::Node::ReHash (ram_forest.cpp), generalized to recompute
// child/parent addressing from n.state on every call instead of a
// cached forestRows.
func (n node) ReHash() (Hash, error) {
	leftPos := n.state.Child(n.pos, 0)
	rightPos := n.state.Child(n.pos, 1)
	left, err := n.store.Read(leftPos)
	if err != nil {
		return Hash{}, err
	}
	right, err := n.store.Read(rightPos)
	if err != nil {
		return Hash{}, err
	}
	h := n.hasher.ParentHash(left, right)
	if err := n.store.Write(n.pos, h); err != nil {
		return Hash{}, err
	}
	return h, nil
}

// Parent returns the node's parent position and whether one exists.
// A node that is currently a root has no parent in the live forest,
// even though ForestState.Parent would still compute one against the
// enlarged nominal tree; ok is false in that case, matching
// RamForest::Node::Parent's nullptr-for-roots behavior.
func (n node) Parent() (pos uint64, ok bool) {
	row := n.state.DetectRow(n.pos)
	if n.state.HasRoot(row) && n.state.RootPosition(row) == n.pos {
		return 0, false
	}
	return n.state.Parent(n.pos), true
}
