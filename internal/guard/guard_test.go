package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const callerID = "CLT-001"

func TestValidate_ReadOnlyRule(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"insert statement", "INSERT INTO customers VALUES ('x')"},
		{"update statement", "UPDATE customers SET client_name = 'x'"},
		{"delete statement", "DELETE FROM customers"},
		{"with clause", "WITH t AS (SELECT 1) SELECT * FROM t"},
		{"empty query", ""},
		{"whitespace only", "   \t\n  "},
		{"select prefix of longer word", "SELECTION FROM customers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Validate(tt.query, callerID)
			assert.False(t, decision.Accepted)
			assert.Equal(t, ReasonNotReadOnly, decision.Reason)
		})
	}
}

func TestValidate_ForbiddenKeywordRule(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"multi-statement drop", "SELECT 1; DROP TABLE customers"},
		{"multi-statement delete", "SELECT 1; DELETE FROM customers"},
		{"embedded truncate", "SELECT * FROM customers; TRUNCATE customers"},
		{"pragma", "SELECT 1; PRAGMA table_info(customers)"},
		{"mixed case", "select 1; DrOp table customers"},
		{"attach", "SELECT 1; ATTACH DATABASE 'x' AS y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Validate(tt.query, callerID)
			assert.False(t, decision.Accepted)
			assert.Equal(t, ReasonForbiddenKeyword, decision.Reason)
		})
	}
}

func TestValidate_ForbiddenKeywordMustBeStandaloneToken(t *testing.T) {
	// Column and string content containing a keyword as a substring is fine.
	tests := []string{
		"SELECT last_update FROM customers WHERE client_id = 'CLT-001'",
		"SELECT * FROM customers WHERE client_name = 'Updated Brewing' AND client_id = 'CLT-001'",
		"SELECT created_at FROM customers WHERE client_id = 'CLT-001'",
	}

	for _, query := range tests {
		decision := Validate(query, callerID)
		assert.True(t, decision.Accepted, "query should be accepted: %s", query)
	}
}

func TestValidate_CrossTenantRule(t *testing.T) {
	t.Run("other caller literal rejected", func(t *testing.T) {
		decision := Validate("SELECT * FROM customers WHERE client_id = 'CLT-999'", callerID)
		assert.False(t, decision.Accepted)
		assert.Equal(t, ReasonCrossTenantAccess, decision.Reason)
	})

	t.Run("own literal accepted", func(t *testing.T) {
		decision := Validate("SELECT * FROM customers WHERE client_id = 'CLT-001'", callerID)
		assert.True(t, decision.Accepted)
	})

	t.Run("own literal case-insensitive", func(t *testing.T) {
		decision := Validate("SELECT * FROM customers WHERE client_id = 'clt-001'", callerID)
		assert.True(t, decision.Accepted)
	})

	t.Run("aggregate with foreign literal accepted", func(t *testing.T) {
		query := "SELECT client_state, COUNT(*) FROM customers WHERE client_id != 'CLT-999' GROUP BY client_state"
		decision := Validate(query, callerID)
		assert.True(t, decision.Accepted)
	})

	t.Run("group by without function accepted", func(t *testing.T) {
		query := "SELECT client_state FROM customers GROUP BY client_state"
		decision := Validate(query, callerID)
		assert.True(t, decision.Accepted)
	})

	t.Run("like with foreign literal rejected", func(t *testing.T) {
		decision := Validate("SELECT * FROM customers WHERE client_id LIKE 'CLT-9%'", callerID)
		assert.False(t, decision.Accepted)
		assert.Equal(t, ReasonCrossTenantAccess, decision.Reason)
	})
}

func TestValidate_RuleOrderShortCircuits(t *testing.T) {
	// A non-select query referencing another tenant reports not-read-only,
	// because rule 1 runs first.
	decision := Validate("UPDATE customers SET x = 1 WHERE client_id = 'CLT-999'", callerID)
	assert.Equal(t, ReasonNotReadOnly, decision.Reason)

	// A select with both a forbidden keyword and a foreign literal reports
	// the keyword, because rule 2 runs before rule 3.
	decision = Validate("SELECT 1; DROP TABLE customers; SELECT * FROM customers WHERE client_id = 'CLT-999'", callerID)
	assert.Equal(t, ReasonForbiddenKeyword, decision.Reason)
}

func TestIsAggregate(t *testing.T) {
	assert.True(t, IsAggregate("SELECT COUNT(*) FROM customers"))
	assert.True(t, IsAggregate("SELECT client_state, avg(orders) FROM customers GROUP BY client_state"))
	assert.False(t, IsAggregate("SELECT * FROM customers WHERE client_id = 'CLT-001'"))
	assert.False(t, IsAggregate("SELECT max_order_size FROM customers WHERE client_id = 'CLT-001'"))
}
