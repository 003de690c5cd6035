package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// ReceiveStockRequest represents goods delivered to a shop
type ReceiveStockRequest struct {
	ShopID      uuid.UUID        `json:"shop_id" binding:"required"`
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	Reference   string           `json:"reference" binding:"max=100"`
}

// ShopStockResponse represents a stock row in API responses
type ShopStockResponse struct {
	ID             uuid.UUID       `json:"id"`
	ShopID         uuid.UUID       `json:"shop_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	MinQuantity    decimal.Decimal `json:"min_quantity"`
	IsBelowMinimum bool            `json:"is_below_minimum"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// StockListFilter represents filter options for the stock list
type StockListFilter struct {
	ShopID       string `form:"shop_id" binding:"omitempty,uuid"`
	ProductID    string `form:"product_id" binding:"omitempty,uuid"`
	BelowMinimum *bool  `form:"below_minimum"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToShopStockResponse converts a domain ShopStock to ShopStockResponse
func ToShopStockResponse(s *inventory.ShopStock) ShopStockResponse {
	return ShopStockResponse{
		ID:             s.ID,
		ShopID:         s.ShopID,
		ProductID:      s.ProductID,
		Quantity:       s.Quantity,
		MinQuantity:    s.MinQuantity,
		IsBelowMinimum: s.IsBelowMinimum(),
		UpdatedAt:      s.UpdatedAt,
		Version:        s.Version,
	}
}

// ToShopStockResponses converts a slice of stock rows
func ToShopStockResponses(stocks []inventory.ShopStock) []ShopStockResponse {
	responses := make([]ShopStockResponse, len(stocks))
	for i := range stocks {
		responses[i] = ToShopStockResponse(&stocks[i])
	}
	return responses
}
