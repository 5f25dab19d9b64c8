package models

// ClientProfile is an immutable snapshot of a customer record, built by the
// profile provider on read and never persisted beyond the response.
type ClientProfile struct {
	ClientID       string   `json:"clientId"`
	ClientName     string   `json:"clientName"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	PostalCode     string   `json:"postalCode"`
	TopCategories  []string `json:"topCategories"`  // most-preferred first
	TopRecentItems []string `json:"topRecentItems"` // most recent first
	RecentVendors  []string `json:"recentVendors"`
	VisitedVendors []string `json:"visitedVendors"` // full history, raw names
}

// TopCategory returns the most-preferred category, or empty when the
// profile carries none.
func (p *ClientProfile) TopCategory() string {
	if len(p.TopCategories) == 0 {
		return ""
	}
	return p.TopCategories[0]
}
