package models

// FieldUnavailable marks a field the external source was asked for but did
// not know. It distinguishes "requested but unknown" from "not requested".
const FieldUnavailable = "Unavailable"

// CandidateVenue is one discovered vendor location. Optional fields absent
// from the external source hold FieldUnavailable, never an empty string.
type CandidateVenue struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	AddressOne   string `json:"address1"`
	AddressTwo   string `json:"address2"`
	AddressThree string `json:"address3"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	WebsiteURL   string `json:"websiteUrl"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

// DisplayAddress joins the known address parts for presentation and
// enrichment prompts, skipping unavailable ones.
func (v *CandidateVenue) DisplayAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{v.AddressOne, v.City, v.State, v.PostalCode} {
		if p != "" && p != FieldUnavailable {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// HasWebsite reports whether the venue carries a usable website URL.
func (v *CandidateVenue) HasWebsite() bool {
	return v.WebsiteURL != "" && v.WebsiteURL != FieldUnavailable
}
