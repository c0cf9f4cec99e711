package forest

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// Commit writes a flat snapshot of the forest to w: an 8-byte
// big-endian leaf count, followed by every row's hashes in row order,
// 32 bytes each. Grounded on RamForest::Commit (ram_forest.cpp), whose
// byte layout this reproduces exactly so snapshots are interchangeable
// with a from-scratch reading of the same row data.
func (f *Forest) Commit(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var head [8]byte
	binary.BigEndian.PutUint64(head[:], f.store.NumLeaves())
	if _, err := bw.Write(head[:]); err != nil {
		return err
	}

	state := ForestState{NumLeaves: f.store.NumLeaves()}
	h := state.forestRows()
	for row := uint8(0); row <= h; row++ {
		width := state.NumLeaves >> row
		offset := state.rowOffsetForRow(row)
		for i := uint64(0); i < width; i++ {
			hv, err := f.store.Read(offset + i)
			if err != nil {
				return err
			}
			if _, err := bw.Write(hv[:]); err != nil {
				return err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	f.logger.Debugf("committed snapshot, %d leaves", state.NumLeaves)
	return nil
}

// Restore rebuilds a Forest from a snapshot written by Commit,
// grounded on RamForest's file-restoring constructor (ram_forest.cpp),
// which reads the leaf count, refills m_data row by row, repopulates
// the position map from row 0, and rebuilds the root list from
// RootPositions — the last of which falls out for free here since
// Roots() recomputes from ForestState on demand.
func Restore(r io.Reader, maxNodes int) (*Forest, error) {
	br := bufio.NewReader(r)
	var head [8]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return nil, newErr(ErrCorruptFile, "reading leaf count: %v", err)
	}
	numLeaves := binary.BigEndian.Uint64(head[:])

	store := newRAMStore()
	state := ForestState{NumLeaves: numLeaves}
	h := state.forestRows()
	if numLeaves > 0 {
		store.rows = make([][]Hash, h+1)
		for row := uint8(0); row <= h; row++ {
			width := numLeaves >> row
			store.rows[row] = make([]Hash, width)
			for i := uint64(0); i < width; i++ {
				var hv Hash
				if _, err := io.ReadFull(br, hv[:]); err != nil {
					return nil, newErr(ErrCorruptFile, "reading row %d entry %d: %v", row, i, err)
				}
				store.rows[row][i] = hv
				if row == 0 {
					store.posmap[hv.Mini()] = i
				}
			}
		}
	}

	return newForest(store, maxNodes, "", nil), nil
}

// Forest is the concrete, ready-to-use accumulator: an Accumulator
// driving an in-memory row store, optionally backed by a file path for
// Close to auto-commit to. OpenLevelStore (levelstore.go) opens a
// goleveldb-backed Store, but no exported constructor builds a Forest
// or Accumulator on top of it.
type Forest struct {
	*Accumulator
	store *ramStore
	path  string
	file  *os.File
}

func newForest(store *ramStore, maxNodes int, path string, file *os.File) *Forest {
	return &Forest{
		Accumulator: newAccumulator(store, DefaultHasher, maxNodes),
		store:       store,
		path:        path,
		file:        file,
	}
}

// New creates an empty, in-memory Forest with room for maxNodes
// simultaneously open node handles during Remove.
func New(maxNodes int) *Forest {
	return newForest(newRAMStore(), maxNodes, "", nil)
}

// Open restores a Forest from the snapshot at path if it exists, or
// creates a fresh empty one otherwise, and remembers path so Close can
// commit back to it. Grounded on RamForest's two constructors
// (fresh vs. file-backed) in ram_forest.h/.cpp.
func Open(path string, maxNodes int) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			ff := New(maxNodes)
			ff.path = path
			return ff, nil
		}
		return nil, err
	}
	defer f.Close()

	restored, err := Restore(f, maxNodes)
	if err != nil {
		return nil, err
	}
	restored.path = path
	return restored, nil
}

// Close commits the current forest state to Forest's path, if any, and
// releases the underlying store.
func (f *Forest) Close() error {
	if f.path != "" {
		out, err := os.Create(f.path)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := f.Commit(out); err != nil {
			return err
		}
	}
	return f.store.Close()
}
