package evaluator

import (
	"fmt"
	"regexp"
	"strings"
)

// topInjectRE locates the first SELECT of a query, skipping over a single
// optional leading CTE (WITH name AS ( ... )) and keeping an optional
// DISTINCT attached. (?is): case-insensitive, dot matches newline.
var topInjectRE = regexp.MustCompile(`(?is)^(\s*WITH\s+.*?\bAS\s+\(.*?\)\s*)?(\s*SELECT\b)(\s+DISTINCT\b)?`)

// topFollowsRE reports a TOP clause directly after the injection point,
// i.e. a query that already carries a row cap.
var topFollowsRE = regexp.MustCompile(`(?i)^\s*TOP\b`)

/*
RewriteTopN injects a hard row cap into a validated SELECT, returning a
query that yields at most n rows regardless of the inner query.

The cap is injected as TOP (n) directly after the first SELECT (after
DISTINCT if present), preserving a single leading CTE prefix. A query
whose first SELECT already has a TOP clause is returned unchanged, so
rewriting is idempotent. Queries the pattern does not match - e.g.
chained CTEs beyond the first - fall back to wrapping:
SELECT TOP (n) * FROM (query) AS q. The wrapper is best effort only, as
SQL Server rejects a plain ORDER BY inside the derived table.
*/
func RewriteTopN(query string, n int) string {
	clean := strings.TrimRight(strings.TrimSpace(query), ";")
	clean = strings.TrimSpace(clean)

	loc := topInjectRE.FindStringSubmatchIndex(clean)
	if loc == nil {
		return fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS q", n, clean)
	}
	if topFollowsRE.MatchString(clean[loc[1]:]) {
		return clean
	}
	return topInjectRE.ReplaceAllString(clean, fmt.Sprintf("${1}${2}${3} TOP (%d)", n))
}
