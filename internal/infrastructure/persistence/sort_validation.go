package persistence

import (
	"strings"

	"github.com/retailpos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// sortColumns is the set of columns a list endpoint may order by. Client
// input never reaches the ORDER BY clause unless it names one of them.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
}

// newSortColumns allows id, created_at, updated_at and the given columns.
// fallback is a complete ORDER BY expression used when the request names
// nothing usable.
func newSortColumns(fallback string, columns ...string) sortColumns {
	allowed := map[string]struct{}{"id": {}, "created_at": {}, "updated_at": {}}
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback}
}

func (s sortColumns) allows(column string) bool {
	_, ok := s.allowed[column]
	return ok
}

// orderClause renders the ORDER BY expression for filter
func (s sortColumns) orderClause(filter shared.Filter) string {
	column := strings.TrimSpace(filter.OrderBy)
	if !s.allows(column) {
		return s.fallback
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}

// apply orders the query and, when a page size is set, limits it to the page
func (s sortColumns) apply(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = query.Order(s.orderClause(filter))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive contains pattern for LOWER(column) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

var (
	productSort   = newSortColumns("code ASC", "code", "name", "barcode", "status", "selling_price")
	customerSort  = newSortColumns("code ASC", "code", "name", "phone", "status", "credit_balance")
	shopStockSort = newSortColumns("updated_at DESC", "shop_id", "product_id", "quantity", "min_quantity")
	sessionSort   = newSortColumns("opened_at DESC", "shop_id", "cashier_id", "status", "opened_at", "closed_at", "total_sales")
	saleSort      = newSortColumns("created_at DESC", "reference", "status", "total", "amount_due", "session_id")
	promotionSort = newSortColumns("starts_at DESC", "name", "type", "starts_at", "ends_at", "is_active")
)
