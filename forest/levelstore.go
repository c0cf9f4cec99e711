package forest

import (
	"encoding/binary"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelStore is a goleveldb-backed Store, the disk-resident analogue
// of ramStore for forests too large to keep fully in memory. Grounded
// on the teacher's own direct leveldb.DB usage in bridgenode/dbworker.go
// and its diskForestData/cacheForestData split
// (accumulator/forestdatacache.go), generalized here to the row-major
// key layout the rest of this package uses instead of a flat byte
// array.
//
// Keys are 9 bytes: a 1-byte row index followed by an 8-byte
// big-endian in-row offset, except for the reserved metaNumLeavesKey
// that tracks the leaf count across restarts.
type LevelStore struct {
	db        *leveldb.DB
	posmap    map[MiniHash]uint64
	numLeaves uint64
}

var metaNumLeavesKey = []byte{0xFF}

func rowKey(row uint8, idx uint64) []byte {
	k := make([]byte, 9)
	k[0] = row
	binary.BigEndian.PutUint64(k[1:], idx)
	return k
}

// OpenLevelStore opens (or creates) a goleveldb database at path and
// wraps it as a Store, replaying row 0 to rebuild the in-memory
// position-map index.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	s := &LevelStore{db: db, posmap: make(map[MiniHash]uint64)}

	if v, err := db.Get(metaNumLeavesKey, nil); err == nil {
		s.numLeaves = binary.BigEndian.Uint64(v)
	} else if err != leveldb.ErrNotFound {
		db.Close()
		return nil, err
	}

	for i := uint64(0); i < s.numLeaves; i++ {
		v, err := db.Get(rowKey(0, i), nil)
		if err != nil {
			db.Close()
			return nil, err
		}
		var h Hash
		copy(h[:], v)
		s.posmap[h.Mini()] = i
	}
	return s, nil
}

func (s *LevelStore) state() ForestState {
	return ForestState{NumLeaves: s.numLeaves}
}

func (s *LevelStore) putNumLeaves(n uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	s.numLeaves = n
	return s.db.Put(metaNumLeavesKey, buf[:], nil)
}

func (s *LevelStore) Read(pos uint64) (Hash, error) {
	st := s.state()
	row := st.DetectRow(pos)
	offset := st.RowOffset(pos)
	if pos < offset {
		return Hash{}, newErr(ErrOutOfRange, "position %d below row offset", pos)
	}
	v, err := s.db.Get(rowKey(row, pos-offset), nil)
	if err == leveldb.ErrNotFound {
		return Hash{}, newErr(ErrOutOfRange, "position %d not in forest", pos)
	} else if err != nil {
		return Hash{}, err
	}
	var h Hash
	copy(h[:], v)
	return h, nil
}

func (s *LevelStore) Write(pos uint64, h Hash) error {
	st := s.state()
	row := st.DetectRow(pos)
	offset := st.RowOffset(pos)
	if pos < offset {
		return newErr(ErrOutOfRange, "position %d below row offset", pos)
	}
	return s.db.Put(rowKey(row, pos-offset), h[:], nil)
}

func (s *LevelStore) SwapRange(from, to, count uint64) error {
	st := s.state()
	row := st.DetectRow(from)
	if row != st.DetectRow(to) {
		return newErr(ErrOutOfRange, "swap range rows differ")
	}
	offset := st.RowOffset(from)

	batch := new(leveldb.Batch)
	for i := uint64(0); i < count; i++ {
		aKey, bKey := rowKey(row, from-offset+i), rowKey(row, to-offset+i)
		av, err := s.db.Get(aKey, nil)
		if err != nil {
			return err
		}
		bv, err := s.db.Get(bKey, nil)
		if err != nil {
			return err
		}
		batch.Put(aKey, bv)
		batch.Put(bKey, av)
		if row == 0 {
			var ah, bh Hash
			copy(ah[:], av)
			copy(bh[:], bv)
			s.posmap[bh.Mini()] = from + i
			s.posmap[ah.Mini()] = to + i
		}
	}
	return s.db.Write(batch, nil)
}

func (s *LevelStore) AppendLeaf(h Hash) error {
	if _, found := s.posmap[h.Mini()]; found {
		return newErr(ErrDuplicateLeaf, "leaf already present")
	}
	pos := s.numLeaves
	if err := s.db.Put(rowKey(0, pos), h[:], nil); err != nil {
		return err
	}
	s.posmap[h.Mini()] = pos
	return s.putNumLeaves(pos + 1)
}

func (s *LevelStore) TruncateTo(newNumLeaves uint64) error {
	st := s.state()
	h := st.forestRows()
	batch := new(leveldb.Batch)
	n := st.NumLeaves
	target := newNumLeaves
	for row := uint8(0); row <= h; row++ {
		for i := target; i < n; i++ {
			batch.Delete(rowKey(row, i))
		}
		n >>= 1
		target >>= 1
	}
	if err := s.db.Write(batch, nil); err != nil {
		return err
	}
	return s.putNumLeaves(newNumLeaves)
}

func (s *LevelStore) PositionOf(h Hash) (uint64, bool) {
	pos, found := s.posmap[h.Mini()]
	return pos, found
}

func (s *LevelStore) DeleteLeafAt(pos uint64) error {
	h, err := s.Read(pos)
	if err != nil {
		return err
	}
	delete(s.posmap, h.Mini())
	return nil
}

func (s *LevelStore) NumLeaves() uint64 {
	return s.numLeaves
}

// Reserve is a no-op for LevelStore: goleveldb has no row-capacity
// concept to preallocate.
func (s *LevelStore) Reserve(ForestState) {}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
