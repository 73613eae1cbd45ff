package ledger

// WriteState is the lifecycle position of a transaction write.
//
//	Draft -> Validated -> Persisted -> Propagated -> Committed
//
// Validation failures end in Rejected with nothing persisted. Any failure
// after persistence ends in RolledBack and leaves all balances unchanged.
type WriteState int

const (
	Draft WriteState = iota
	Validated
	Persisted
	Propagated
	Committed
	Rejected
	RolledBack
)

func (s WriteState) String() string {
	switch s {
	case Draft:
		return "draft"
	case Validated:
		return "validated"
	case Persisted:
		return "persisted"
	case Propagated:
		return "propagated"
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}
