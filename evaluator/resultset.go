package evaluator

import (
	"bytes"
	"time"
)

// A ResultSet is the normalized outcome of one query execution: an
// ordered column name sequence and an ordered row sequence. Every row has
// one cell per column, in column order. With case-insensitive columns
// configured, the names are already case-folded.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// NumRows returns the number of rows of the result set.
func (rs *ResultSet) NumRows() int { return len(rs.Rows) }

// A QueryResult is a ResultSet together with its execution duration,
// measured from connection acquisition to fetch completion.
type QueryResult struct {
	ResultSet
	Duration time.Duration
}

// valueEqual compares two normalized cells. Normalized values are nil,
// int64, float64, string, bool or []byte; only the byte slice needs
// structural comparison.
func valueEqual(a, b any) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	if _, ok := b.([]byte); ok {
		return false
	}
	return a == b
}

// rowEqual compares two rows cell by cell.
func rowEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
