package structured

// OutcomeKind classifies the result of one attempt.
type OutcomeKind int

const (
	// OutcomeSuccess ends the run with a validated response.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRetryable consumes one attempt and moves on to the next.
	OutcomeRetryable
	// OutcomeFatal ends the run with the attempt's error.
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the result of one attempt.
type Outcome struct {
	Kind     OutcomeKind
	Response Response
	Err      error
}

func success(resp Response) Outcome { return Outcome{Kind: OutcomeSuccess, Response: resp} }
func retryable(err error) Outcome   { return Outcome{Kind: OutcomeRetryable, Err: err} }
func fatal(err error) Outcome       { return Outcome{Kind: OutcomeFatal, Err: err} }
