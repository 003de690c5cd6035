package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	posapp "github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	h := newPOSHarness(t, NewSharedTestDB(t))
	tenantA, tenantB := uuid.New(), uuid.New()
	a, b := h.client(tenantA), h.client(tenantB)

	juice := h.createProduct(t, a, "JUICE", "3.00")
	h.receiveStock(t, a, juice.ID, "10", "")
	sessionA := h.openSession(t, a, uuid.New(), "0")

	resp := a.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
		"session_id": sessionA.ID,
		"items":      []map[string]any{{"product_id": juice.ID, "quantity": "1"}},
		"payments":   []map[string]any{{"method": "CASH", "amount": "3"}},
	})
	resp.RequireStatus(t, http.StatusCreated)
	saleA := testutil.DecodeData[posapp.SaleResponse](t, resp)

	t.Run("reads are scoped to the tenant", func(t *testing.T) {
		b.Do(t, http.MethodGet, "/api/v1/pos/sales/"+saleA.ID.String(), nil).RequireStatus(t, http.StatusNotFound)
		b.Do(t, http.MethodGet, "/api/v1/pos/sessions/"+sessionA.ID.String(), nil).RequireStatus(t, http.StatusNotFound)
		b.Do(t, http.MethodGet, "/api/v1/catalog/products/"+juice.ID.String(), nil).RequireStatus(t, http.StatusNotFound)

		resp := b.Do(t, http.MethodGet, "/api/v1/catalog/products", nil)
		resp.RequireStatus(t, http.StatusOK)
		assert.Empty(t, testutil.DecodeData[[]catalogapp.ProductResponse](t, resp))

		resp = b.Do(t, http.MethodGet, "/api/v1/pos/sales", nil)
		resp.RequireStatus(t, http.StatusOK)
		assert.Empty(t, testutil.DecodeData[[]posapp.SaleListResponse](t, resp))
	})

	t.Run("writes cannot reach another tenant's session or sale", func(t *testing.T) {
		sessionB := h.openSession(t, b, uuid.New(), "0")

		resp := b.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
			"session_id": sessionA.ID,
			"items":      []map[string]any{{"product_id": juice.ID, "quantity": "1"}},
			"payments":   []map[string]any{{"method": "CASH", "amount": "3"}},
		})
		resp.RequireStatus(t, http.StatusUnprocessableEntity)

		// Tenant B's own session cannot sell tenant A's product
		resp = b.Do(t, http.MethodPost, "/api/v1/pos/sales", map[string]any{
			"session_id": sessionB.ID,
			"items":      []map[string]any{{"product_id": juice.ID, "quantity": "1"}},
			"payments":   []map[string]any{{"method": "CASH", "amount": "3"}},
		})
		assert.NotEqual(t, http.StatusCreated, resp.Code)

		b.Do(t, http.MethodPost, "/api/v1/pos/sales/"+saleA.ID.String()+"/cancel", nil).RequireStatus(t, http.StatusNotFound)
		assert.True(t, dec("9").Equal(h.stockQuantity(t, tenantA, juice.ID)))
	})

	t.Run("the same product code may exist in both tenants", func(t *testing.T) {
		h.createProduct(t, b, "JUICE", "2.00")
		resp := a.Do(t, http.MethodPost, "/api/v1/catalog/products", map[string]any{
			"code": "JUICE", "name": "Duplicate", "unit": "pcs", "selling_price": "1",
		})
		resp.RequireStatus(t, http.StatusConflict)
	})

	t.Run("service calls are scoped by the explicit tenant", func(t *testing.T) {
		_, err := h.SaleService.GetSale(context.Background(), tenantB, saleA.ID)
		require.ErrorIs(t, err, shared.ErrNotFound)

		sale, err := h.SaleService.GetSale(context.Background(), tenantA, saleA.ID)
		require.NoError(t, err)
		assert.Equal(t, saleA.Reference, sale.Reference)
	})

	t.Run("requests without a tenant are rejected", func(t *testing.T) {
		anonymous := &testutil.APIClient{Handler: h.Engine}
		anonymous.Do(t, http.MethodGet, "/api/v1/pos/sales", nil).RequireStatus(t, http.StatusUnauthorized)
	})
}
