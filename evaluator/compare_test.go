package evaluator

import (
	"strings"
	"testing"
)

func assertVerdict(t *testing.T, v Verdict, status Status, feedbackSubstr string) {
	t.Helper()
	if v.Status != status {
		t.Fatalf("got status %s (feedback %q) - expected %s", v.Status, v.Feedback, status)
	}
	if !strings.Contains(v.Feedback, feedbackSubstr) {
		t.Fatalf("feedback %q - expected to contain %q", v.Feedback, feedbackSubstr)
	}
}

func rs(cols []string, rows ...[]any) *ResultSet {
	return &ResultSet{Columns: cols, Rows: rows}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name           string
		user, solution *ResultSet
		status         Status
		feedbackSubstr string
	}{
		{
			name:     "identical",
			user:     rs([]string{"id", "name"}, []any{int64(1), "a"}, []any{int64(2), "b"}),
			solution: rs([]string{"id", "name"}, []any{int64(1), "a"}, []any{int64(2), "b"}),
			status:   StatusCorrect,
		},
		{
			name:     "column case folds equal",
			user:     rs([]string{"Id", "Name"}, []any{int64(1), "a"}),
			solution: rs([]string{"id", "name"}, []any{int64(1), "a"}),
			status:   StatusCorrect,
		},
		{
			name:     "both empty",
			user:     rs([]string{"id"}),
			solution: rs([]string{"id"}),
			status:   StatusCorrect,
		},
		{
			name:           "column count mismatch",
			user:           rs([]string{"id"}, []any{int64(1)}),
			solution:       rs([]string{"id", "name"}, []any{int64(1), "a"}),
			status:         StatusIncorrect,
			feedbackSubstr: "Column count mismatch: got 1, expected 2",
		},
		{
			name:           "column name mismatch",
			user:           rs([]string{"Id", "Name"}, []any{int64(1), "a"}),
			solution:       rs([]string{"id", "title"}, []any{int64(1), "a"}),
			status:         StatusIncorrect,
			feedbackSubstr: "Column names or order mismatch",
		},
		{
			name:           "column order mismatch",
			user:           rs([]string{"name", "id"}),
			solution:       rs([]string{"id", "name"}),
			status:         StatusIncorrect,
			feedbackSubstr: "Column names or order mismatch",
		},
		{
			name:           "row count mismatch",
			user:           rs([]string{"id"}, []any{int64(1)}),
			solution:       rs([]string{"id"}, []any{int64(1)}, []any{int64(2)}),
			status:         StatusIncorrect,
			feedbackSubstr: "Row count mismatch: got 1, expected 2",
		},
		{
			name:           "empty vs non-empty",
			user:           rs([]string{"id"}),
			solution:       rs([]string{"id"}, []any{int64(1)}),
			status:         StatusIncorrect,
			feedbackSubstr: "Row count mismatch",
		},
		{
			name:           "value mismatch",
			user:           rs([]string{"id"}, []any{int64(1)}, []any{int64(3)}),
			solution:       rs([]string{"id"}, []any{int64(1)}, []any{int64(2)}),
			status:         StatusIncorrect,
			feedbackSubstr: "values or order are incorrect",
		},
		{
			name:           "order mismatch",
			user:           rs([]string{"id"}, []any{int64(2)}, []any{int64(1)}),
			solution:       rs([]string{"id"}, []any{int64(1)}, []any{int64(2)}),
			status:         StatusIncorrect,
			feedbackSubstr: "values or order are incorrect",
		},
		{
			name:     "null cells compare equal",
			user:     rs([]string{"id", "name"}, []any{int64(1), nil}),
			solution: rs([]string{"id", "name"}, []any{int64(1), nil}),
			status:   StatusCorrect,
		},
		{
			name:           "null vs value",
			user:           rs([]string{"name"}, []any{nil}),
			solution:       rs([]string{"name"}, []any{"a"}),
			status:         StatusIncorrect,
			feedbackSubstr: "values or order are incorrect",
		},
		{
			name:     "normalized decimals compare equal",
			user:     rs([]string{"amount"}, []any{1.0001}),
			solution: rs([]string{"amount"}, []any{1.0001}),
			status:   StatusCorrect,
		},
		{
			name:     "byte cells compare structurally",
			user:     rs([]string{"blob"}, []any{[]byte{1, 2}}),
			solution: rs([]string{"blob"}, []any{[]byte{1, 2}}),
			status:   StatusCorrect,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertVerdict(t, Compare(test.user, test.solution), test.status, test.feedbackSubstr)
		})
	}
}

func TestScore(t *testing.T) {
	correct := Verdict{Status: StatusCorrect}
	incorrect := Verdict{Status: StatusIncorrect}
	errored := Verdict{Status: StatusError}

	tests := []struct {
		name     string
		verdicts []Verdict
		want     float64
	}{
		{name: "empty", verdicts: nil, want: 0},
		{name: "all correct", verdicts: []Verdict{correct, correct}, want: 100},
		{name: "half", verdicts: []Verdict{correct, incorrect}, want: 50},
		{name: "error counts as not correct", verdicts: []Verdict{correct, errored, incorrect, correct}, want: 50},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Score(test.verdicts); got != test.want {
				t.Fatalf("got %v - expected %v", got, test.want)
			}
		})
	}
}
