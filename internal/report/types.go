package report

// Status is the result of processing one file.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusGenerated Status = "generated"
	StatusFailed    Status = "failed"
)

// Outcome records what happened to a single file during a run.
// Err is set only for StatusFailed.
type Outcome struct {
	Phase  string
	Path   string
	Status Status
	Err    error
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Outcomes []Outcome
	Counts   map[Status]int
	DryRun   bool
}

// Summarize counts outcomes by status. The outcomes slice is copied.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{
		Outcomes: append([]Outcome(nil), outcomes...),
		Counts:   make(map[Status]int, 5),
	}
	for _, o := range outcomes {
		s.Counts[o.Status]++
	}
	return s
}

// Failed reports whether any outcome failed.
func (s Summary) Failed() bool {
	return s.Counts[StatusFailed] > 0
}

// Errors returns the errors of failed outcomes in processing order.
func (s Summary) Errors() []error {
	var errs []error
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed && o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
