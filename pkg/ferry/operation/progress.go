package operation

// Snapshot is the observer-facing progress record. Percentages are in
// [0, 100].
type Snapshot struct {
	Title string

	Row1Label string
	Row1Value string
	Row2Label string
	Row2Value string

	Progress1Label string
	Progress1      float64
	Progress2Label string
	Progress2      float64

	// Undetermined means there is no known total; Progress1 is meaningless.
	Undetermined bool
}

// Observer displays the progress of one operation. It is created only once
// the operation has run longer than the progress delay, and all calls come
// from the operation's goroutine.
type Observer interface {
	Update(s Snapshot)
	Close()
}

// Controller lets an observer steer the operation it displays.
type Controller interface {
	Abort()
	Pause()
	Resume()
	State() State
}

// ObserverFactory creates the observer for an operation, starting from the
// progress gathered so far.
type ObserverFactory func(ctl Controller, initial Snapshot) Observer
