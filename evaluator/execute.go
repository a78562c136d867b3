package evaluator

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// A Target selects the database a query runs against: the router
// (optionally pinned to the primary) or an explicit connection spec.
type Target struct {
	ForcePrimary bool
	Explicit     *ConnectionSpec
}

// An ExecError is the outcome of a failed query execution. Feedback is
// sanitized for the participant and never carries the raw driver error
// verbatim; the cause remains available via Unwrap for logging.
type ExecError struct {
	Feedback string
	Duration time.Duration
	cause    error
}

func (e *ExecError) Error() string { return e.Feedback }
func (e *ExecError) Unwrap() error { return e.cause }

// Sanitized feedback messages for classified driver errors.
const (
	feedbackTimeout     = "Query execution timed out. Limit your query's complexity or check for missing joins."
	feedbackNotFound    = "Table or column not found. Check your spelling against the database schema."
	feedbackSyntaxError = "SQL Syntax Error. Review your query structure."
)

// exact numeric types delivered by the driver as their string representation.
var decimalTypeNames = map[string]bool{
	"DECIMAL": true, "NUMERIC": true, "MONEY": true, "SMALLMONEY": true,
}

/*
Execute runs a query against the selected target and returns its
normalized result set with the execution duration.

The call acquires a run permit first and releases it on every exit path.
The connection is opened under the connect timeout, the statement runs
under the query timeout, and at most MaxResultRows rows are fetched - in
addition to the TOP cap the rewrite injects, as defense in depth. Duration
is measured from connection acquisition in both the success and the
failure path. A failure is returned as *ExecError carrying sanitized
feedback. Caller cancellation via ctx surfaces as the timeout class.
*/
func (ev *Evaluator) Execute(ctx context.Context, query, userID string, target Target) (*QueryResult, error) {
	if err := ev.governor.acquire(ctx); err != nil {
		return nil, &ExecError{Feedback: feedbackTimeout, cause: err}
	}
	defer ev.governor.release()

	start := time.Now()
	fail := func(err error) (*QueryResult, error) {
		duration := time.Since(start)
		ev.metrics.addCounterValue(counterQueryErrors, 1)
		ev.metrics.addQueryDuration(duration.Milliseconds())
		ev.logger.Error("query execution failed", "user", userID, "error", err)
		return nil, &ExecError{Feedback: sanitizeQueryError(err), Duration: duration, cause: err}
	}

	conn, spec, err := ev.connect(ctx, target)
	if err != nil {
		return fail(err)
	}
	defer conn.Close()

	rewritten := RewriteTopN(query, ev.cfg.MaxResultRows)

	qctx, cancel := context.WithTimeout(ctx, ev.cfg.QueryTimeout)
	defer cancel()

	ev.metrics.addCounterValue(counterQueriesRun, 1)
	rows, err := conn.QueryContext(qctx, rewritten)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	rs, err := ev.fetch(rows)
	if err != nil {
		return fail(err)
	}

	duration := time.Since(start)
	ev.metrics.addQueryDuration(duration.Milliseconds())
	ev.logger.Info("query executed", "user", userID, "target", spec.Label,
		"rows", rs.NumRows(), "duration", duration)
	return &QueryResult{ResultSet: *rs, Duration: duration}, nil
}

func (ev *Evaluator) connect(ctx context.Context, target Target) (*sql.Conn, ConnectionSpec, error) {
	if target.Explicit != nil {
		conn, err := ev.router.connect(ctx, *target.Explicit)
		return conn, *target.Explicit, err
	}
	return ev.router.acquire(ctx, target.ForcePrimary)
}

// fetch reads column metadata and up to MaxResultRows rows, normalizing
// cell values on the way. Column names are case-folded once per result
// set when configured.
func (ev *Evaluator) fetch(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if ev.cfg.CaseInsensitiveColumns {
		cols = foldColumns(cols)
	}

	norm := normalizer{decimalPrecision: ev.cfg.DecimalPrecision, stripStrings: ev.cfg.StripStrings}
	normalize := ev.columnNormalizers(rows, len(cols), norm)

	rs := &ResultSet{Columns: cols}
	for len(rs.Rows) < ev.cfg.MaxResultRows && rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			vals[i] = normalize[i](v)
		}
		rs.Rows = append(rs.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// columnNormalizers picks the normalization per column from the driver
// type metadata: exact numerics round to floats, dates render date-only,
// everything else goes through the generic value normalization.
func (ev *Evaluator) columnNormalizers(rows *sql.Rows, numCols int, norm normalizer) []func(any) any {
	fns := make([]func(any) any, numCols)
	for i := range fns {
		fns[i] = norm.value
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil || len(colTypes) != numCols {
		return fns
	}
	for i, ct := range colTypes {
		switch name := strings.ToUpper(ct.DatabaseTypeName()); {
		case decimalTypeNames[name]:
			fns[i] = norm.decimal
		case name == "DATE":
			fns[i] = norm.date
		}
	}
	return fns
}

// sanitizeQueryError maps a driver error onto user-safe feedback. The
// classification is on the lowercased message; unknown errors surface
// truncated, never verbatim beyond 100 runes.
func sanitizeQueryError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout"):
		return feedbackTimeout
	case strings.Contains(msg, "invalid object name") || strings.Contains(msg, "does not exist"):
		return feedbackNotFound
	case strings.Contains(msg, "syntax error"):
		return feedbackSyntaxError
	default:
		return "Database Error: " + truncate(err.Error(), 100)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
