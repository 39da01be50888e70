package session

// Counters tallies committed decisions for the lifetime of the process.
type Counters struct {
	Deleted uint64
	Kept    uint64
}

// Total is the number of committed items.
func (c Counters) Total() uint64 {
	return c.Deleted + c.Kept
}

func (c *Counters) record(outcome Outcome) {
	switch outcome {
	case OutcomeDelete:
		c.Deleted++
	case OutcomeKeep:
		c.Kept++
	}
}
