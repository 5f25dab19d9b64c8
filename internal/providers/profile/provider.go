// Package profile fronts the relational customer store. Every query it
// executes, including the ones it builds itself, passes through the
// read-only guard first.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	stderrors "brewscout/internal/common/errors"
	"brewscout/internal/common/logger"
	"brewscout/internal/guard"
	"brewscout/internal/models"
)

// schemaDescription is the schema context handed to the translator.
const schemaDescription = `Table customers:
  client_id TEXT PRIMARY KEY        -- authenticated caller identifier, e.g. 'CLT-001'
  client_name TEXT                  -- display name
  client_city TEXT
  client_state TEXT                 -- full state name, not abbreviation
  postal_code TEXT
  top3_brewery_types TEXT           -- JSON array, most-preferred first
  top5_beers_recently TEXT          -- JSON array
  top3_breweries_recently TEXT      -- JSON array
  brewery_history TEXT              -- JSON array of every visited vendor name`

const profileColumns = "client_id, client_name, client_city, client_state, postal_code, " +
	"top3_brewery_types, top5_beers_recently, top3_breweries_recently, brewery_history"

// Translator converts a natural language question into a candidate SQL
// query. Determinism is fixed at the translator boundary.
type Translator interface {
	Translate(ctx context.Context, question, schemaDescription string) (string, error)
}

// Lookup carries the identifiers available for a profile fetch. ClientID is
// the primary key; PostalCode plus ClientName form the secondary lookup.
type Lookup struct {
	ClientID   string
	PostalCode string
	ClientName string
}

type Provider struct {
	db         *sql.DB
	translator Translator
	logger     logger.Logger
}

func NewProvider(db *sql.DB, translator Translator, log logger.Logger) *Provider {
	return &Provider{
		db:         db,
		translator: translator,
		logger: log.With(map[string]interface{}{
			"component": "profile-provider",
		}),
	}
}

// FetchProfile retrieves the client profile. The primary lookup is by
// client identifier; on a miss the (postal code, display name) pair is
// tried before declaring not found. Both queries are provider-constructed
// and still pass through the guard, as defense in depth.
func (p *Provider) FetchProfile(ctx context.Context, lookup Lookup) (*models.ClientProfile, error) {
	if lookup.ClientID != "" {
		query := fmt.Sprintf(
			"SELECT %s FROM customers WHERE client_id = '%s'",
			profileColumns, escapeLiteral(lookup.ClientID),
		)
		profile, found, err := p.queryProfile(ctx, query, lookup.ClientID)
		if err != nil {
			return nil, err
		}
		if found {
			p.logger.Info("profile found by client id", map[string]interface{}{
				"clientId": lookup.ClientID,
			})
			return profile, nil
		}
	}

	if lookup.PostalCode != "" && lookup.ClientName != "" {
		query := fmt.Sprintf(
			"SELECT %s FROM customers WHERE postal_code = '%s' AND LOWER(client_name) LIKE '%%%s%%'",
			profileColumns, escapeLiteral(lookup.PostalCode),
			escapeLiteral(strings.ToLower(lookup.ClientName)),
		)
		profile, found, err := p.queryProfile(ctx, query, lookup.ClientID)
		if err != nil {
			return nil, err
		}
		if found {
			p.logger.Info("profile found by postal code and name", map[string]interface{}{
				"postalCode": lookup.PostalCode,
			})
			return profile, nil
		}
	}

	p.logger.Warn("profile not found", map[string]interface{}{
		"clientId": lookup.ClientID,
	})
	return nil, stderrors.NewProfileNotFoundError(lookup.ClientID)
}

func (p *Provider) queryProfile(ctx context.Context, query, callerID string) (*models.ClientProfile, bool, error) {
	if decision := guard.Validate(query, callerID); !decision.Accepted {
		return nil, false, stderrors.NewValidationRejectedError(decision.Reason, query)
	}

	row := p.db.QueryRowContext(ctx, query)

	var profile models.ClientProfile
	var topCategories, topItems, recentVendors, history string
	err := row.Scan(
		&profile.ClientID, &profile.ClientName, &profile.City, &profile.State,
		&profile.PostalCode, &topCategories, &topItems, &recentVendors, &history,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, stderrors.NewQueryExecutionFailedError(err)
	}

	decodeJSONColumn(topCategories, &profile.TopCategories)
	decodeJSONColumn(topItems, &profile.TopRecentItems)
	decodeJSONColumn(recentVendors, &profile.RecentVendors)
	decodeJSONColumn(history, &profile.VisitedVendors)

	return &profile, true, nil
}

// RunAnalyticalQuery answers a natural language question against the
// customer store. The translated query is fence-stripped, guarded, executed
// only on acceptance, and the rows are classified per the analytical
// result invariant before returning.
func (p *Provider) RunAnalyticalQuery(ctx context.Context, question, callerID string) (*models.AnalyticalResult, error) {
	callerContext := p.resolveCallerContext(ctx, callerID)

	query, err := p.translator.Translate(ctx, buildAnalyticalQuestion(question, callerID, callerContext), schemaDescription)
	if err != nil {
		return nil, stderrors.NewExternalServiceError("translator", err)
	}

	query = StripCodeFence(query)

	if decision := guard.Validate(query, callerID); !decision.Accepted {
		p.logger.Warn("analytical query rejected", map[string]interface{}{
			"reason": decision.Reason,
		})
		return nil, stderrors.NewValidationRejectedError(decision.Reason, query)
	}

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError(err)
	}
	defer rows.Close()

	resultRows, err := scanRows(rows)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError(err)
	}

	result, err := classifyResult(query, resultRows, callerID)
	if err != nil {
		return nil, err
	}

	p.logger.Info("analytical query executed", map[string]interface{}{
		"kind":     string(result.Kind),
		"rowCount": len(result.Rows),
	})

	return result, nil
}

// classifyResult tags the row set. Rows carrying the caller-scoping column
// are per-caller and every one of them must belong to the caller; rows
// without it under an aggregate query form an aggregate result.
func classifyResult(query string, rows []models.AnalyticalRow, callerID string) (*models.AnalyticalResult, error) {
	identifying := false
	for _, row := range rows {
		if _, ok := row[guard.CallerScopeColumn]; ok {
			identifying = true
			break
		}
	}

	if identifying {
		for _, row := range rows {
			owner, _ := row[guard.CallerScopeColumn].(string)
			if !strings.EqualFold(owner, callerID) {
				return nil, stderrors.NewValidationRejectedError(guard.ReasonCrossTenantAccess, query)
			}
		}
		return &models.AnalyticalResult{Kind: models.AnalyticalPerCaller, Rows: rows, Query: query}, nil
	}

	if guard.IsAggregate(query) {
		return &models.AnalyticalResult{Kind: models.AnalyticalAggregate, Rows: rows, Query: query}, nil
	}

	// Non-aggregate rows with no identifying column are still the caller's
	// own data projection.
	return &models.AnalyticalResult{Kind: models.AnalyticalPerCaller, Rows: rows, Query: query}, nil
}

// resolveCallerContext fetches the caller's city and state so questions
// like "my city" scope to both city and state with the full state name.
// Failures degrade to an empty context rather than failing the question.
func (p *Provider) resolveCallerContext(ctx context.Context, callerID string) string {
	query := fmt.Sprintf(
		"SELECT client_city, client_state FROM customers WHERE client_id = '%s'",
		escapeLiteral(callerID),
	)
	if decision := guard.Validate(query, callerID); !decision.Accepted {
		return ""
	}

	var city, state string
	if err := p.db.QueryRowContext(ctx, query).Scan(&city, &state); err != nil {
		return ""
	}
	return fmt.Sprintf(
		"The authenticated caller lives in %s, %s. When the question references "+
			"'my city', filter by client_city = '%s' AND client_state = '%s'; never "+
			"filter by city alone. State values are full names, not abbreviations.",
		city, state, escapeLiteral(city), escapeLiteral(state),
	)
}

func buildAnalyticalQuestion(question, callerID, callerContext string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nThe authenticated caller is ")
	b.WriteString(callerID)
	b.WriteString(". Queries about this caller's own data and aggregate ")
	b.WriteString("statistics (COUNT, AVG, GROUP BY) are allowed; individual data ")
	b.WriteString("of other callers must not be selected.")
	if callerContext != "" {
		b.WriteString("\n")
		b.WriteString(callerContext)
	}
	return b.String()
}

// StripCodeFence removes surrounding markdown code fences from translator
// output, e.g. "```sql\nSELECT 1\n```".
func StripCodeFence(query string) string {
	query = strings.TrimSpace(query)
	if !strings.HasPrefix(query, "```") {
		return query
	}
	query = strings.TrimPrefix(query, "```sql")
	query = strings.TrimPrefix(query, "```")
	query = strings.TrimSuffix(strings.TrimSpace(query), "```")
	return strings.TrimSpace(query)
}

func escapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

func decodeJSONColumn(raw string, out *[]string) {
	if raw == "" {
		return
	}
	// Malformed history columns degrade to empty rather than failing the fetch.
	_ = json.Unmarshal([]byte(raw), out)
}

func scanRows(rows *sql.Rows) ([]models.AnalyticalRow, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []models.AnalyticalRow
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(models.AnalyticalRow, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
