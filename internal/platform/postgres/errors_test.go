package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPQErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "payments_invoice_payload_key"})
	check := &pq.Error{Code: "23514", Constraint: "gifts_available_range"}
	fk := &pq.Error{Code: "23503"}

	ok, name := IsUniqueViolation(unique)
	assert.True(t, ok)
	assert.Equal(t, "payments_invoice_payload_key", name)

	ok, name = IsCheckViolation(check)
	assert.True(t, ok)
	assert.Equal(t, "gifts_available_range", name)

	assert.True(t, IsForeignKeyViolation(fk))

	ok, _ = IsUniqueViolation(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsForeignKeyViolation(check))
}
