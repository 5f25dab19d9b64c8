package models

// AnalyticalKind tags an analytical result as either rows scoped to the
// authenticated caller or an anonymized aggregate row set.
type AnalyticalKind string

const (
	AnalyticalPerCaller AnalyticalKind = "per_caller"
	AnalyticalAggregate AnalyticalKind = "aggregate"
)

// AnalyticalRow is one result row keyed by column name.
type AnalyticalRow map[string]interface{}

// AnalyticalResult is a tagged analytical query result.
//
// Invariant: a per-caller result carries only rows whose owning identifier
// equals the authenticated caller's identifier; an aggregate result carries
// no per-row identifying column.
type AnalyticalResult struct {
	Kind  AnalyticalKind  `json:"kind"`
	Rows  []AnalyticalRow `json:"rows"`
	Query string          `json:"query"`
}
