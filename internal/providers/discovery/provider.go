// Package discovery searches the external vendor directory and filters out
// every venue the caller has already visited. The provider holds no mutable
// state, so one instance serves concurrent runs for different callers.
package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	stderrors "brewscout/internal/common/errors"
	commonhttp "brewscout/internal/common/http"
	"brewscout/internal/common/logger"
	"brewscout/internal/common/validation"
	"brewscout/internal/models"
)

type Config struct {
	BaseURL    string
	PageSize   int
	Timeout    time.Duration
	MaxResults int
}

type Provider struct {
	config     Config
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewProvider(cfg Config, log logger.Logger) *Provider {
	return &Provider{
		config:     cfg,
		httpClient: commonhttp.NewClient(cfg.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "discovery-provider",
		}),
	}
}

// directoryRecord is the external directory's wire shape. Latitude and
// longitude arrive as strings or numbers depending on the endpoint version.
type directoryRecord struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	BreweryType  *string     `json:"brewery_type"`
	AddressOne   *string     `json:"address_1"`
	AddressTwo   *string     `json:"address_2"`
	AddressThree *string     `json:"address_3"`
	City         *string     `json:"city"`
	State        *string     `json:"state"`
	PostalCode   *string     `json:"postal_code"`
	Country      *string     `json:"country"`
	Phone        *string     `json:"phone"`
	WebsiteURL   *string     `json:"website_url"`
	Latitude     interface{} `json:"latitude"`
	Longitude    interface{} `json:"longitude"`
}

// FindNew queries the directory by city, state and category, drops every
// venue whose normalized name matches a normalized entry of the caller's
// visited history, and returns the survivors in the directory's own order.
// The second return value is the raw directory count before filtering, so
// callers can tell "nothing out there" from "nothing new".
func (p *Provider) FindNew(ctx context.Context, city, state, category string, visitedHistory []string) ([]models.CandidateVenue, int, error) {
	records, err := p.search(ctx, city, state, category)
	if err != nil {
		return nil, 0, err
	}

	visited := make(map[string]struct{}, len(visitedHistory))
	for _, name := range visitedHistory {
		visited[Normalize(name)] = struct{}{}
	}

	candidates := make([]models.CandidateVenue, 0, len(records))
	for _, record := range records {
		if _, seen := visited[Normalize(record.Name)]; seen {
			continue
		}
		candidates = append(candidates, mapRecord(record))
		if p.config.MaxResults > 0 && len(candidates) >= p.config.MaxResults {
			break
		}
	}

	p.logger.Info("directory search completed", map[string]interface{}{
		"city":      city,
		"state":     state,
		"category":  category,
		"returned":  len(records),
		"survivors": len(candidates),
	})

	return candidates, len(records), nil
}

func (p *Provider) search(ctx context.Context, city, state, category string) ([]directoryRecord, error) {
	params := url.Values{}
	if city != "" {
		params.Set("by_city", city)
	}
	if state != "" {
		params.Set("by_state", ResolveState(state))
	}
	if category != "" {
		params.Set("by_type", category)
	}
	params.Set("per_page", strconv.Itoa(p.config.PageSize))

	endpoint := fmt.Sprintf("%s?%s", p.config.BaseURL, params.Encode())

	resp, err := p.httpClient.GetJSON(ctx, endpoint)
	if err != nil {
		if isTimeout(err) {
			return nil, stderrors.NewExternalTimeoutError("directory")
		}
		return nil, stderrors.NewExternalServiceError("directory", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, stderrors.NewExternalServiceError("directory",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, stderrors.NewExternalServiceError("directory", err)
	}

	var rawRecords []json.RawMessage
	if err := json.Unmarshal(body, &rawRecords); err != nil {
		return nil, stderrors.NewExternalServiceError("directory",
			fmt.Errorf("malformed directory response: %w", err))
	}

	records := make([]directoryRecord, 0, len(rawRecords))
	for _, raw := range rawRecords {
		if err := validation.ValidateDirectoryRecord(raw); err != nil {
			// One malformed record does not fail the search.
			p.logger.Warn("dropping invalid directory record", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		var record directoryRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			p.logger.Warn("dropping undecodable directory record", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

func mapRecord(record directoryRecord) models.CandidateVenue {
	return models.CandidateVenue{
		ID:           record.ID,
		Name:         record.Name,
		Category:     orUnavailable(record.BreweryType),
		AddressOne:   orUnavailable(record.AddressOne),
		AddressTwo:   orUnavailable(record.AddressTwo),
		AddressThree: orUnavailable(record.AddressThree),
		City:         orUnavailable(record.City),
		State:        orUnavailable(record.State),
		PostalCode:   orUnavailable(record.PostalCode),
		Country:      orUnavailable(record.Country),
		Phone:        orUnavailable(record.Phone),
		WebsiteURL:   orUnavailable(record.WebsiteURL),
		Latitude:     coordinate(record.Latitude),
		Longitude:    coordinate(record.Longitude),
	}
}

func orUnavailable(value *string) string {
	if value == nil || *value == "" {
		return models.FieldUnavailable
	}
	return *value
}

func coordinate(value interface{}) string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return models.FieldUnavailable
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return models.FieldUnavailable
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
