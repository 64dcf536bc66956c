package operation

// State is the lifecycle position of an operation.
type State int32

// Operation states. Paused is resumable; Finished and Aborted are terminal.
const (
	Ready State = iota
	Running
	Paused
	Finished
	Aborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Finished || s == Aborted
}

// Kind names the operation type. It prefixes text keys ("copy.title") and
// is stored in history records.
type Kind string

// Operation kinds.
const (
	KindScan   Kind = "scan"
	KindDelete Kind = "delete"
	KindCopy   Kind = "copy"
	KindMove   Kind = "move"
	KindSearch Kind = "search"
)
