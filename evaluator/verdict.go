package evaluator

// Status is the outward category of an evaluation outcome.
type Status string

// Evaluation outcome categories.
const (
	StatusCorrect   Status = "CORRECT"   // every step succeeded and the results match exactly.
	StatusIncorrect Status = "INCORRECT" // participant-attributable: validation, execution or comparison failure.
	StatusError     Status = "ERROR"     // system-attributable: solution failure or rate limit; retryable.
)

// ExecutionMetadata carries the participant query runtime facts attached
// to a correct verdict.
type ExecutionMetadata struct {
	DurationMS   int64 `json:"duration_ms"`
	RowsReturned int   `json:"rows_returned"`
}

// A Verdict is the final outcome of one submission evaluation. Feedback
// is human-readable and never contains raw driver errors.
type Verdict struct {
	Status   Status             `json:"status"`
	Feedback string             `json:"feedback,omitempty"`
	Metadata *ExecutionMetadata `json:"execution_metadata,omitempty"`
}

func correctVerdict(duration int64, rows int) Verdict {
	return Verdict{Status: StatusCorrect, Metadata: &ExecutionMetadata{DurationMS: duration, RowsReturned: rows}}
}

func incorrectVerdict(feedback string) Verdict {
	return Verdict{Status: StatusIncorrect, Feedback: feedback}
}

func errorVerdict(feedback string) Verdict {
	return Verdict{Status: StatusError, Feedback: feedback}
}

// Score aggregates the verdicts of one attempt into a percentage:
// correct verdicts / total verdicts * 100. An empty attempt scores zero.
func Score(verdicts []Verdict) float64 {
	if len(verdicts) == 0 {
		return 0
	}
	correct := 0
	for _, v := range verdicts {
		if v.Status == StatusCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(verdicts)) * 100
}
