// Package guard validates generated SQL before it reaches the relational
// store: read-only enforcement, mutation keyword blocking, and tenant
// scoping of caller-identifying literals.
package guard

import (
	"regexp"
	"strings"
)

// Rejection reasons, in rule order. The first violated rule wins.
const (
	ReasonNotReadOnly       = "not-read-only"
	ReasonForbiddenKeyword  = "forbidden-keyword"
	ReasonCrossTenantAccess = "cross-tenant-access"
)

// CallerScopeColumn is the column whose literal value must match the
// authenticated caller for row-level access control.
const CallerScopeColumn = "client_id"

// forbiddenKeywords are mutating or schema-touching commands blocked as
// standalone tokens anywhere in the query, including after a statement
// separator. This also defeats multi-statement injection ("; DROP ...").
var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "truncate", "alter", "create",
	"replace", "rename", "grant", "revoke", "attach", "detach", "pragma",
}

var (
	tokenSplit = regexp.MustCompile(`[^a-z0-9_]+`)
	// client_id = 'X' or client_id LIKE 'X'; literal captured for tenant check
	scopeLiteral = regexp.MustCompile(`client_id\s*(?:=|like)\s*'([^']*)'`)
	aggregateTok = regexp.MustCompile(`\b(?:group\s+by|(?:count|avg|sum|max|min)\s*\()`)
)

// Decision is the guard's verdict. The guard never executes the query and
// never panics; failure is always a rejection returned to the caller.
type Decision struct {
	Accepted bool
	Reason   string
}

func accepted() Decision {
	return Decision{Accepted: true}
}

func rejected(reason string) Decision {
	return Decision{Accepted: false, Reason: reason}
}

// Validate applies the rules in order and short-circuits on the first
// violation.
func Validate(query, callerID string) Decision {
	normalized := normalize(query)

	// Rule 1: leading keyword must be the read-only selection keyword.
	if !strings.HasPrefix(normalized, "select") || !isTokenBoundary(normalized, len("select")) {
		return rejected(ReasonNotReadOnly)
	}

	// Rule 2: no mutating keyword as a standalone token anywhere.
	for _, token := range tokenSplit.Split(normalized, -1) {
		if isForbidden(token) {
			return rejected(ReasonForbiddenKeyword)
		}
	}

	// Rule 3: caller-scoping literals must belong to the caller, unless the
	// query is an aggregate. Known gap: literals inside joins or subqueries
	// that reference another tenant indirectly are not analyzed; tightening
	// this changes which queries are accepted.
	if !aggregateTok.MatchString(normalized) {
		for _, match := range scopeLiteral.FindAllStringSubmatch(normalized, -1) {
			if !strings.EqualFold(match[1], callerID) {
				return rejected(ReasonCrossTenantAccess)
			}
		}
	}

	return accepted()
}

// IsAggregate reports whether the query is classified as aggregate
// (contains a grouping or aggregate-function token).
func IsAggregate(query string) bool {
	return aggregateTok.MatchString(normalize(query))
}

func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(query))), " ")
}

func isForbidden(token string) bool {
	for _, kw := range forbiddenKeywords {
		if token == kw {
			return true
		}
	}
	return false
}

// isTokenBoundary reports whether position i in s ends a standalone token,
// so "selection ..." does not pass as "select".
func isTokenBoundary(s string, i int) bool {
	if len(s) == i {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '_'
}
