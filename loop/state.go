package loop

// State is the position of the invocation loop.
type State int32

const (
	Idle State = iota
	Invoking
	Reporting
	TerminatedInitError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Invoking:
		return "invoking"
	case Reporting:
		return "reporting"
	case TerminatedInitError:
		return "terminated_init_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further cycle may run.
func (s State) Terminal() bool {
	return s == TerminatedInitError
}
