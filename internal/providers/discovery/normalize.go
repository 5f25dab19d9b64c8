package discovery

import "strings"

// corporateSuffixes are trade-name tail tokens that carry no identity.
// "Stone Brewing Company", "Stone Brewing" and "Stone Brewing Co." all
// normalize to "stone".
var corporateSuffixes = map[string]struct{}{
	"company":   {},
	"co":        {},
	"inc":       {},
	"llc":       {},
	"ltd":       {},
	"brewery":   {},
	"breweries": {},
	"brewing":   {},
	"beer":      {},
}

// Normalize canonicalizes a vendor name for history comparison: lowercase,
// trimmed, inner whitespace collapsed, corporate suffix tokens stripped
// from the tail. The last remaining token is never stripped, so a name
// like "Brewery" survives as itself. Normalize is idempotent.
func Normalize(name string) string {
	raw := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	tokens := raw[:0]
	for _, token := range raw {
		if token = strings.Trim(token, ".,"); token != "" {
			tokens = append(tokens, token)
		}
	}

	for len(tokens) > 1 {
		if _, ok := corporateSuffixes[tokens[len(tokens)-1]]; !ok {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}
