package forest

import "fmt"

// ErrorKind classifies the recoverable error conditions of §7. Fatal
// conditions (pool exhaustion, invariant violations) are not ErrorKinds;
// they panic, matching the teacher's own panic(err)/panic("...") calls
// for conditions it treats as unrecoverable (accumulator/forest.go,
// forestdatacache.go).
type ErrorKind int

const (
	// ErrDuplicateLeaf: Add saw a hash already present; no state change.
	ErrDuplicateLeaf ErrorKind = iota
	// ErrUnknownLeaf: Prove given a hash not in the position map.
	ErrUnknownLeaf
	// ErrBadTarget: Remove given a target that is not row-0, out of
	// range, or duplicated.
	ErrBadTarget
	// ErrCorruptFile: Restore could not parse the snapshot.
	ErrCorruptFile
	// ErrOutOfRange: Read/SwapRange addressed a position outside the
	// current forest.
	ErrOutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDuplicateLeaf:
		return "duplicate-leaf"
	case ErrUnknownLeaf:
		return "unknown-leaf"
	case ErrBadTarget:
		return "bad-target"
	case ErrCorruptFile:
		return "corrupt-file"
	case ErrOutOfRange:
		return "out-of-range"
	default:
		return "unknown-error-kind"
	}
}

// Error is the concrete error type returned for recoverable conditions.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// newErr builds an *Error; callers distinguish kinds with a type
// assertion to *Error and a Kind comparison rather than errors.Is,
// since almost every caller wants the Kind, not a singleton sentinel.
func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// poolExhaustedMsg documents why pool exhaustion panics rather than
// returning an Error: §5 and §7 both call it a fatal, non-recoverable
// condition ("aborts the operation and leaves the engine in an
// unspecified-but-safe state; callers should discard it").
const poolExhaustedMsg = "forest: node pool exhausted (pool-exhausted)"
