package pos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertAmount(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func newOpenSession(t *testing.T, tenantID uuid.UUID) *CashRegisterSession {
	t.Helper()
	s, err := OpenSession(tenantID, uuid.New(), uuid.New(), dec("100"), "")
	require.NoError(t, err)
	return s
}

func newTestPromotion(t *testing.T, promoType PromotionType, value string) *Promotion {
	t.Helper()
	now := time.Now()
	p, err := NewPromotion(uuid.New(), "Weekend deal", promoType, dec(value), now.Add(-time.Hour), now.Add(time.Hour), nil, nil)
	require.NoError(t, err)
	return p
}
