package batch

import (
	"fmt"

	"mediasort/internal/services"
)

// Counters tallies one category's scan.
type Counters struct {
	Scanned   int
	Inserted  int
	Updated   int
	Skipped   int
	Unmatched int
	Failed    int
}

// Record increments the counter for outcome.
func (c *Counters) Record(outcome services.Outcome) {
	switch outcome {
	case services.OutcomeSkipped:
		c.Skipped++
	case services.OutcomeUnmatched:
		c.Unmatched++
	default:
		c.Failed++
	}
}

// Add sums two counter sets.
func (c Counters) Add(other Counters) Counters {
	return Counters{
		Scanned:   c.Scanned + other.Scanned,
		Inserted:  c.Inserted + other.Inserted,
		Updated:   c.Updated + other.Updated,
		Skipped:   c.Skipped + other.Skipped,
		Unmatched: c.Unmatched + other.Unmatched,
		Failed:    c.Failed + other.Failed,
	}
}

// String renders the summary line body.
func (c Counters) String() string {
	return fmt.Sprintf("scanned=%d, inserted=%d, updated=%d, skipped=%d, unmatched=%d, failed=%d",
		c.Scanned, c.Inserted, c.Updated, c.Skipped, c.Unmatched, c.Failed)
}
