package evaluator

import (
	"regexp"
	"strings"
)

// bannedTokens are the statement keywords and server-side commands a
// submitted query must not contain, matched case-insensitively as whole
// words against the uppercased query.
var bannedTokens = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "TRUNCATE",
	"ALTER", "EXEC", "EXECUTE", "MERGE", "GRANT",
	"REVOKE", "XP_CMDSHELL", "SP_CONFIGURE", "OPENROWSET",
	"OPENDATASOURCE", "CREATE", "INTO", "OUTPUT", "BACKUP", "RESTORE",
}

var bannedTokenREs = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(bannedTokens))
	for i, token := range bannedTokens {
		res[i] = regexp.MustCompile(`\b` + token + `\b`)
	}
	return res
}()

// A RejectionError is returned by Validate for a query that must not run.
// Its message is safe to surface to the participant.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

func reject(reason string) error { return &RejectionError{Reason: reason} }

/*
Validate decides whether a submitted query is allowed to run.
It returns nil for an admissible query and a *RejectionError otherwise.

Validate is a deliberately strict string-level filter, not a SQL parser:
the rules below are evaluated in order, the first rejection wins, and no
attempt is made to strip comments or tokenize string literals. False
positives on unusual but legal queries are accepted in exchange for
ruling out every unsafe or non-deterministic one.
*/
func Validate(query string, isSolution bool) error {
	clean := strings.TrimSpace(query)
	upper := strings.ToUpper(clean)

	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return reject("Query must be a SELECT statement.")
	}

	// Any semicolon before the trimmed end means more than one statement.
	if i := strings.IndexByte(clean, ';'); i >= 0 {
		if strings.ContainsRune(strings.TrimRight(strings.TrimRight(clean, " \t\r\n"), ";"), ';') {
			return reject("Multi-statement queries are disallowed for security.")
		}
	}

	if strings.Contains(clean, "--") || strings.Contains(clean, "/*") {
		return reject("SQL comments are disallowed to ensure clarity and block obfuscated injections.")
	}

	for i, re := range bannedTokenREs {
		if re.MatchString(upper) {
			return reject("Unauthorized token detected: " + bannedTokens[i])
		}
	}

	if !strings.Contains(upper, "ORDER BY") {
		if isSolution {
			return reject("Solution query must include ORDER BY for deterministic scoring.")
		}
		return reject("ORDER BY is required for deterministic scoring. Add ORDER BY and retry.")
	}

	return nil
}
