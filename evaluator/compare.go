package evaluator

import (
	"fmt"
	"strings"
)

/*
Compare decides whether the participant result set matches the solution
result set. The decision is strictly ordered on both axes: column
sequences must agree position by position (case-folded) and row sequences
must agree row by row, cell by cell on normalized values.

Questions carry an order-sensitivity flag in the catalog, but Compare
deliberately ignores it: every comparison is ordered, which is why
Validate demands an ORDER BY. A future revision may fall back to multiset
equality for order-insensitive questions.

The first triggering branch wins:

 1. column count mismatch
 2. column name/order mismatch
 3. exact match -> Correct
 4. row count mismatch
 5. equal counts, unequal values or order
*/
func Compare(user, solution *ResultSet) Verdict {
	userCols := foldColumns(user.Columns)
	solCols := foldColumns(solution.Columns)

	if len(userCols) != len(solCols) {
		return incorrectVerdict(fmt.Sprintf(
			"Column count mismatch: got %d, expected %d. Check your SELECT projection.",
			len(userCols), len(solCols)))
	}

	for i := range userCols {
		if userCols[i] != solCols[i] {
			return incorrectVerdict(fmt.Sprintf(
				"Column names or order mismatch. You have: %s | Expected: %s. Check your aliases.",
				strings.Join(userCols, ", "), strings.Join(solCols, ", ")))
		}
	}

	if resultRowsEqual(user, solution) {
		return Verdict{Status: StatusCorrect}
	}

	if user.NumRows() != solution.NumRows() {
		return incorrectVerdict(fmt.Sprintf(
			"Row count mismatch: got %d, expected %d. Verify your filters and the row cap.",
			user.NumRows(), solution.NumRows()))
	}

	return incorrectVerdict("Row count matches but values or order are incorrect. Verify your filters and sorting.")
}

func resultRowsEqual(a, b *ResultSet) bool {
	if len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		if !rowEqual(a.Rows[i], b.Rows[i]) {
			return false
		}
	}
	return true
}
