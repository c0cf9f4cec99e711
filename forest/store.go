package forest

// Store is the row-indexed hash storage and leaf-position index
// described in spec.md §4.2, generalizing the teacher's ForestData
// interface (accumulator/forestdata.go) from a single flat byte array
// to the row-major slice-of-rows layout spec.md §3 specifies, and
// folding in the leaf hash -> position map (R3) the teacher keeps as a
// sibling field (accumulator's Forest.positionMap).
//
// Implementations: ramStore (in-memory, this file) and LevelStore
// (goleveldb-backed, levelstore.go).
type Store interface {
	// Read returns the hash at pos. Fails with ErrOutOfRange if row or
	// offset is invalid for the current leaf count.
	Read(pos uint64) (Hash, error)

	// Write stores h at pos, growing rows as needed. Used by node
	// rehashing and root merging to place freshly computed internal
	// hashes; never used for row 0, which only grows through
	// AppendLeaf.
	Write(pos uint64, h Hash) error

	// SwapRange swaps `count` consecutive hashes starting at from with
	// those starting at to. from and to must be on the same row and
	// the ranges must be disjoint and in bounds. When the row is 0,
	// the corresponding position-map entries are swapped too.
	SwapRange(from, to, count uint64) error

	// AppendLeaf appends h to row 0 and indexes it in the position
	// map. Fails with ErrDuplicateLeaf if h is already present.
	AppendLeaf(h Hash) error

	// TruncateTo resizes every row r to floor(newNumLeaves/2^r), so a
	// row keeps only nodes whose subtrees are complete; no entry is kept
	// for a partial subtree. It does not touch the position map; callers
	// must remove the corresponding leaf entries first (DeleteLeafAt).
	TruncateTo(newNumLeaves uint64) error

	// PositionOf looks up a leaf hash's current position.
	PositionOf(h Hash) (uint64, bool)

	// DeleteLeafAt removes the position-map entry for the leaf
	// currently stored at pos (a row-0 position).
	DeleteLeafAt(pos uint64) error

	// NumLeaves is the current row-0 length.
	NumLeaves() uint64

	// Reserve grows row capacity ahead of a batch of appends, mirroring
	// the teacher's m_data.at(row).reserve(...) in RamForest::Add
	// (ram_forest.cpp).
	Reserve(state ForestState)

	// Close releases any resources the store holds open.
	Close() error
}

// ramStore is an in-memory Store, grounded on the teacher's
// ramForestData (accumulator/forestdata.go) but laid out as one slice
// of hashes per row instead of one flat byte array, matching spec.md
// §3's row-major model directly.
type ramStore struct {
	rows   [][]Hash
	posmap map[MiniHash]uint64
}

func newRAMStore() *ramStore {
	return &ramStore{
		rows:   [][]Hash{{}},
		posmap: make(map[MiniHash]uint64),
	}
}

func (s *ramStore) state() ForestState {
	return ForestState{NumLeaves: s.NumLeaves()}
}

func (s *ramStore) NumLeaves() uint64 {
	if len(s.rows) == 0 {
		return 0
	}
	return uint64(len(s.rows[0]))
}

func (s *ramStore) ensureRow(row uint8) {
	for uint8(len(s.rows)) <= row {
		s.rows = append(s.rows, nil)
	}
}

func (s *ramStore) ensureLen(row uint8, length uint64) {
	s.ensureRow(row)
	for uint64(len(s.rows[row])) < length {
		s.rows[row] = append(s.rows[row], empty)
	}
}

func (s *ramStore) Read(pos uint64) (Hash, error) {
	st := s.state()
	row := st.DetectRow(pos)
	offset := st.RowOffset(pos)
	if row >= uint8(len(s.rows)) || pos < offset || pos-offset >= uint64(len(s.rows[row])) {
		return Hash{}, newErr(ErrOutOfRange, "position %d not in forest (numLeaves=%d)", pos, st.NumLeaves)
	}
	return s.rows[row][pos-offset], nil
}

func (s *ramStore) Write(pos uint64, h Hash) error {
	st := s.state()
	row := st.DetectRow(pos)
	offset := st.RowOffset(pos)
	if pos < offset {
		return newErr(ErrOutOfRange, "position %d below row offset %d", pos, offset)
	}
	s.ensureLen(row, pos-offset+1)
	s.rows[row][pos-offset] = h
	return nil
}

func (s *ramStore) SwapRange(from, to, count uint64) error {
	st := s.state()
	row := st.DetectRow(from)
	if row != st.DetectRow(to) {
		return newErr(ErrOutOfRange, "swap range rows differ: %d vs %d", from, to)
	}
	offset := st.RowOffset(from)
	if row >= uint8(len(s.rows)) {
		return newErr(ErrOutOfRange, "swap range row %d not allocated", row)
	}
	rowData := s.rows[row]
	for i := uint64(0); i < count; i++ {
		ai, bi := from-offset+i, to-offset+i
		if ai >= uint64(len(rowData)) || bi >= uint64(len(rowData)) {
			return newErr(ErrOutOfRange, "swap range out of bounds at row %d", row)
		}
		rowData[ai], rowData[bi] = rowData[bi], rowData[ai]
		if row == 0 {
			s.posmap[rowData[ai].Mini()] = from + i
			s.posmap[rowData[bi].Mini()] = to + i
		}
	}
	return nil
}

func (s *ramStore) AppendLeaf(h Hash) error {
	if _, found := s.posmap[h.Mini()]; found {
		return newErr(ErrDuplicateLeaf, "leaf already present")
	}
	pos := s.NumLeaves()
	s.rows[0] = append(s.rows[0], h)
	s.posmap[h.Mini()] = pos
	return nil
}

func (s *ramStore) TruncateTo(newNumLeaves uint64) error {
	n := newNumLeaves
	for row := 0; row < len(s.rows); row++ {
		rowLen := n
		if uint64(len(s.rows[row])) > rowLen {
			s.rows[row] = s.rows[row][:rowLen]
		}
		n >>= 1
	}
	return nil
}

func (s *ramStore) PositionOf(h Hash) (uint64, bool) {
	pos, found := s.posmap[h.Mini()]
	return pos, found
}

func (s *ramStore) DeleteLeafAt(pos uint64) error {
	h, err := s.Read(pos)
	if err != nil {
		return err
	}
	delete(s.posmap, h.Mini())
	return nil
}

func (s *ramStore) Reserve(state ForestState) {
	h := state.forestRows()
	s.ensureRow(h)
	n := state.NumLeaves
	for row := uint8(0); row <= h && int(row) < len(s.rows); row++ {
		if uint64(cap(s.rows[row])) < n {
			grown := make([]Hash, len(s.rows[row]), n)
			copy(grown, s.rows[row])
			s.rows[row] = grown
		}
		n >>= 1
	}
}

func (s *ramStore) Close() error { return nil }
