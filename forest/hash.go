package forest

import (
	"crypto/sha512"

	"golang.org/x/crypto/blake2b"

	"github.com/hashforest/utreexo/internal/bytepool"
)

// Hash is an opaque 32-byte leaf or node value.
type Hash [32]byte

// empty is the zero hash, named after the teacher's package-level
// `empty` (accumulator/forest.go). ramStore uses it to fill row slots
// before their hash is written. It is not reserved: Add accepts the
// zero hash as a leaf like any other value.
var empty Hash

// MiniHash is a 12-byte digest used as the position-map key, mirroring
// the teacher's Hash.Mini() (accumulator/types.go). 12 bytes is plenty
// to avoid collisions among real leaves while keeping the map small.
type MiniHash [12]byte

// Mini returns the position-map key for h.
func (h Hash) Mini() (m MiniHash) {
	copy(m[:], h[:12])
	return m
}

// Leaf is a hash together with advisory metadata about whether a caller
// wants proving data retained for it. The forest engine treats leaves
// uniformly regardless of Remember.
type Leaf struct {
	Hash     Hash
	Remember bool
}

// Hasher computes the parent hash of two child hashes. It is the sole
// cryptographic collaborator the engine consults; implementations must
// be deterministic and side-effect free.
type Hasher interface {
	ParentHash(left, right Hash) Hash
}

// Sha512_256Hasher is the default Hasher, grounded on the teacher's
// parentHash (accumulator/types.go), which hashes the concatenation of
// both children with SHA-512/256.
type Sha512_256Hasher struct{}

// ParentHash implements Hasher.
func (Sha512_256Hasher) ParentHash(left, right Hash) Hash {
	buf := bytepool.Get(64)
	defer bytepool.Free(buf)
	copy(buf.B[:32], left[:])
	copy(buf.B[32:], right[:])
	return sha512.Sum512_256(buf.B)
}

// Blake2bHasher is an alternative Hasher backed by BLAKE2b-256, offered
// as a faster option on platforms without SHA-512 acceleration. It
// exercises the same pluggable seam as Sha512_256Hasher.
type Blake2bHasher struct{}

// ParentHash implements Hasher.
func (Blake2bHasher) ParentHash(left, right Hash) Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only errors for a non-nil key longer than 64
		// bytes; we never pass a key, so this can't happen.
		panic(err)
	}
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// DefaultHasher is used when a Forest is constructed without an
// explicit Hasher.
var DefaultHasher Hasher = Sha512_256Hasher{}
