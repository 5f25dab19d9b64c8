package discovery

import "strings"

// stateNames maps US state postal abbreviations to the full lowercase name
// form the directory expects, with underscores for spaces.
var stateNames = map[string]string{
	"AL": "alabama",
	"AK": "alaska",
	"AZ": "arizona",
	"AR": "arkansas",
	"CA": "california",
	"CO": "colorado",
	"CT": "connecticut",
	"DE": "delaware",
	"FL": "florida",
	"GA": "georgia",
	"HI": "hawaii",
	"ID": "idaho",
	"IL": "illinois",
	"IN": "indiana",
	"IA": "iowa",
	"KS": "kansas",
	"KY": "kentucky",
	"LA": "louisiana",
	"ME": "maine",
	"MD": "maryland",
	"MA": "massachusetts",
	"MI": "michigan",
	"MN": "minnesota",
	"MS": "mississippi",
	"MO": "missouri",
	"MT": "montana",
	"NE": "nebraska",
	"NV": "nevada",
	"NH": "new_hampshire",
	"NJ": "new_jersey",
	"NM": "new_mexico",
	"NY": "new_york",
	"NC": "north_carolina",
	"ND": "north_dakota",
	"OH": "ohio",
	"OK": "oklahoma",
	"OR": "oregon",
	"PA": "pennsylvania",
	"RI": "rhode_island",
	"SC": "south_carolina",
	"SD": "south_dakota",
	"TN": "tennessee",
	"TX": "texas",
	"UT": "utah",
	"VT": "vermont",
	"VA": "virginia",
	"WA": "washington",
	"WV": "west_virginia",
	"WI": "wisconsin",
	"WY": "wyoming",
	"DC": "district_of_columbia",
}

// ResolveState maps a state abbreviation to the directory's full-name form.
// Values that are already full names pass through lowercased with spaces
// replaced by underscores.
func ResolveState(state string) string {
	trimmed := strings.TrimSpace(state)
	if full, ok := stateNames[strings.ToUpper(trimmed)]; ok {
		return full
	}
	return strings.ReplaceAll(strings.ToLower(trimmed), " ", "_")
}
