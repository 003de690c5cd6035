package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/shared"
)

// StockService handles per-shop stock maintenance
type StockService struct {
	txScope     TransactionScope
	stockRepo   inventory.ShopStockRepository
	productRepo catalog.ProductRepository
}

// NewStockService creates a new StockService
func NewStockService(txScope TransactionScope, stockRepo inventory.ShopStockRepository, productRepo catalog.ProductRepository) *StockService {
	return &StockService{
		txScope:     txScope,
		stockRepo:   stockRepo,
		productRepo: productRepo,
	}
}

// Receive books delivered goods into a shop's stock and records the movement.
// The stock row is created on first delivery.
func (s *StockService) Receive(ctx context.Context, tenantID uuid.UUID, req ReceiveStockRequest) (*ShopStockResponse, error) {
	if _, err := s.productRepo.FindByIDForTenant(ctx, tenantID, req.ProductID); err != nil {
		return nil, err
	}

	var stock *inventory.ShopStock
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		rows, err := repos.StockRepo().FindForUpdate(ctx, tenantID, req.ShopID, []uuid.UUID{req.ProductID})
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			stock = &rows[0]
		} else {
			stock, err = inventory.NewShopStock(tenantID, req.ShopID, req.ProductID)
			if err != nil {
				return err
			}
		}

		if err := stock.Receive(req.Quantity); err != nil {
			return err
		}
		if req.MinQuantity != nil {
			if err := stock.SetMinQuantity(*req.MinQuantity); err != nil {
				return err
			}
		}
		if err := repos.StockRepo().Save(ctx, stock); err != nil {
			return err
		}

		movement := inventory.NewStockMovement(stock, inventory.MovementTypeReceive, req.Quantity, nil, req.Reference)
		return repos.MovementRepo().Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	response := ToShopStockResponse(stock)
	return &response, nil
}

// List lists stock rows with filtering and pagination
func (s *StockService) List(ctx context.Context, tenantID uuid.UUID, filter StockListFilter) ([]ShopStockResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "updated_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
	if filter.ShopID != "" {
		domainFilter.Filters["shop_id"] = filter.ShopID
	}
	if filter.ProductID != "" {
		domainFilter.Filters["product_id"] = filter.ProductID
	}
	if filter.BelowMinimum != nil && *filter.BelowMinimum {
		domainFilter.Filters["below_minimum"] = true
	}

	stocks, err := s.stockRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.stockRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToShopStockResponses(stocks), total, nil
}
