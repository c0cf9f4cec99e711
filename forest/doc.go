// Package forest implements a dynamic hash-based accumulator over a
// forest of perfect binary Merkle trees (a Utreexo-style accumulator).
//
// The accumulator commits to a multiset of 32-byte leaves by keeping the
// roots of a forest whose tree sizes follow the binary expansion of the
// current leaf count. Leaves can be added, deleted, and proven with
// batch inclusion proofs against the current root set.
//
// Hashing is pluggable through Hasher (SHA-512/256 by default, BLAKE2b
// as an alternative). Forest keeps its rows in memory and persists them
// as the flat snapshot in persist.go; levelstore.go adds a
// goleveldb-backed Store. Transport is left to callers.
package forest
