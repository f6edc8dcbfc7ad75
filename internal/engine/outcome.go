package engine

// Outcome reports what an operation did to the store.
type Outcome int

const (
	// Failed means the operation returned an error before writing.
	Failed Outcome = iota
	// Applied means the write committed. It can come with a refresh error,
	// in which case the snapshot is stale until the next Refresh.
	Applied
	// Noop means there was nothing to change: an empty name, a repeated
	// union-add, a status the book already has.
	Noop
	// Declined means the user said no at the confirmation prompt.
	Declined
	// Rejected means another removal was in flight.
	Rejected
)

var outcomeNames = [...]string{"failed", "applied", "noop", "declined", "rejected"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}
