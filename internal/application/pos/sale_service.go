package pos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/inventory"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// ReceiptRenderer turns a sale into a printable receipt
type ReceiptRenderer interface {
	Render(sale *pos.Sale) (string, error)
}

// SaleServiceConfig holds the tunables of the sale pipeline
type SaleServiceConfig struct {
	ReferencePrefix    string          // Default: POS
	ChangeRoundingUnit decimal.Decimal // Smallest coin for ROUND change; default 0.05
	// ClaimTTL bounds the in-flight claim on a client_ref; default 30s.
	// Committed sales are found through the unique client_ref instead.
	ClaimTTL time.Duration
}

// DefaultSaleServiceConfig returns the defaults
func DefaultSaleServiceConfig() SaleServiceConfig {
	return SaleServiceConfig{
		ReferencePrefix:    "POS",
		ChangeRoundingUnit: decimal.NewFromFloat(0.05),
		ClaimTTL:           30 * time.Second,
	}
}

// SaleService rings up sales and handles settlements, cancellations and verification
type SaleService struct {
	txScope        TransactionScope
	saleRepo       pos.SaleRepository
	config         SaleServiceConfig
	idempotency    shared.IdempotencyStore
	renderer       ReceiptRenderer
	eventPublisher shared.EventPublisher
	metrics        *telemetry.POSMetrics
}

// NewSaleService creates a new SaleService
func NewSaleService(txScope TransactionScope, saleRepo pos.SaleRepository, config SaleServiceConfig) *SaleService {
	defaults := DefaultSaleServiceConfig()
	if config.ReferencePrefix == "" {
		config.ReferencePrefix = defaults.ReferencePrefix
	}
	if !config.ChangeRoundingUnit.IsPositive() {
		config.ChangeRoundingUnit = defaults.ChangeRoundingUnit
	}
	if config.ClaimTTL <= 0 {
		config.ClaimTTL = defaults.ClaimTTL
	}
	return &SaleService{
		txScope:  txScope,
		saleRepo: saleRepo,
		config:   config,
	}
}

// SetEventPublisher sets the event publisher for sale events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore sets the store used to claim client references
func (s *SaleService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetReceiptRenderer sets the receipt renderer
func (s *SaleService) SetReceiptRenderer(renderer ReceiptRenderer) {
	s.renderer = renderer
}

// SetPOSMetrics sets the business metrics recorder
func (s *SaleService) SetPOSMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// CreateSale rings up a sale in one transaction: stock check and decrement,
// pricing and promotions, payments, change, customer credit and session totals.
// A request repeating the client_ref of an earlier sale returns that sale.
func (s *SaleService) CreateSale(ctx context.Context, tenantID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSessionID, req.SessionID.String(),
		telemetry.SpanAttrItemCount, len(req.Items),
	)

	var claimedKey string
	if req.ClientRef != "" {
		if replay, err := s.replay(ctx, tenantID, req.ClientRef); err != nil || replay != nil {
			return replay, err
		}
		if s.idempotency != nil {
			key := idempotencyKey(tenantID, req.ClientRef)
			claimed, err := s.idempotency.MarkProcessed(ctx, key, s.config.ClaimTTL)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, fmt.Errorf("claim idempotency key: %w", err)
			}
			if !claimed {
				// The first request may have committed between the lookup and the claim
				if replay, err := s.replay(ctx, tenantID, req.ClientRef); err != nil || replay != nil {
					return replay, err
				}
				return nil, pos.ErrRequestInProgress
			}
			claimedKey = key
		}
	}

	var result saleResult
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.POSOperationLabels(telemetry.OperationCreateSale, tenantID.String()), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			return s.createSaleTx(c, repos, tenantID, req, &result)
		})
	})
	if err != nil {
		if claimedKey != "" {
			_ = s.idempotency.Release(context.WithoutCancel(ctx), claimedKey)
		}
		if req.ClientRef != "" && errors.Is(err, shared.ErrAlreadyExists) {
			if replay, lookupErr := s.replay(ctx, tenantID, req.ClientRef); lookupErr == nil && replay != nil {
				return replay, nil
			}
		}
		if s.metrics != nil && errors.Is(err, pos.ErrInsufficientStock) {
			s.metrics.RecordStockRejection(ctx, tenantID, result.shopID)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	sale := result.sale
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, sale.ID.String(),
		telemetry.SpanAttrSaleReference, sale.Reference,
		telemetry.SpanAttrSaleStatus, string(sale.Status),
		telemetry.SpanAttrAmount, sale.Total.String(),
	)

	s.publish(ctx, sale, result.customer, result.stocks...)
	if s.metrics != nil {
		s.metrics.RecordSale(ctx, tenantID, sale.ShopID, string(sale.Status), sale.Total, len(sale.Items))
		for _, p := range sale.Payments {
			s.metrics.RecordPayment(ctx, tenantID, string(p.Method), telemetry.PaymentKindSale, p.Amount)
		}
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

type saleResult struct {
	sale     *pos.Sale
	customer *partner.Customer
	stocks   []*inventory.ShopStock
	shopID   uuid.UUID
}

func (s *SaleService) createSaleTx(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, req CreateSaleRequest, result *saleResult) error {
	session, err := lockOpenSession(ctx, repos, tenantID, req.SessionID)
	if err != nil {
		return err
	}
	result.shopID = session.ShopID

	requested, productIDs, err := requestedQuantities(req.Items)
	if err != nil {
		return err
	}

	stocks, err := repos.StockRepo().FindForUpdate(ctx, tenantID, session.ShopID, productIDs)
	if err != nil {
		return err
	}
	stockByProduct := make(map[uuid.UUID]*inventory.ShopStock, len(stocks))
	for i := range stocks {
		stockByProduct[stocks[i].ProductID] = &stocks[i]
	}

	products, err := repos.ProductRepo().FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return err
	}
	productByID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		productByID[products[i].ID] = &products[i]
	}

	for _, productID := range productIDs {
		product, ok := productByID[productID]
		if !ok {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Product %s not found", productID))
		}
		if !product.IsActive() {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Product %s is not for sale", product.Code))
		}
		available := decimal.Zero
		if stock, ok := stockByProduct[productID]; ok {
			available = stock.Quantity
		}
		if available.LessThan(requested[productID]) {
			return pos.NewInsufficientStockError(product.Code, requested[productID], available)
		}
	}

	now := time.Now()
	promotions := make(map[uuid.UUID]*pos.Promotion)
	lines := make([]pos.SaleLine, 0, len(req.Items))
	for _, item := range req.Items {
		product := productByID[item.ProductID]
		line := pos.SaleLine{
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.SellingPrice,
		}
		if item.PromotionID != nil {
			promotion, err := loadPromotion(ctx, repos, tenantID, *item.PromotionID, promotions)
			if err != nil {
				return err
			}
			if err := promotion.CheckApplicable(session.ShopID, product.ID, now); err != nil {
				return err
			}
			line.Promotion = promotion
		}
		lines = append(lines, line)
	}

	var customer *partner.Customer
	if req.CustomerID != nil {
		customer, err = repos.CustomerRepo().FindByIDForUpdate(ctx, tenantID, *req.CustomerID)
		if err != nil {
			return err
		}
		if !customer.IsActive() {
			return shared.NewDomainError("INVALID_STATE", "Customer is inactive")
		}
	}

	reference, err := repos.SaleRepo().GenerateReference(ctx, tenantID, s.config.ReferencePrefix)
	if err != nil {
		return err
	}

	payments := make([]pos.PaymentInput, len(req.Payments))
	for i, p := range req.Payments {
		payments[i] = pos.PaymentInput{
			Method:    pos.PaymentMethod(p.Method),
			Amount:    p.Amount,
			Reference: p.Reference,
		}
	}

	sale, err := pos.NewSale(pos.SaleDraft{
		TenantID:           tenantID,
		SessionID:          session.ID,
		ShopID:             session.ShopID,
		CashierID:          session.CashierID,
		CustomerID:         req.CustomerID,
		Reference:          reference,
		Lines:              lines,
		Payments:           payments,
		AmountGiven:        req.AmountGiven,
		ChangeAction:       pos.ChangeAction(req.ChangeAction),
		ChangeRoundingUnit: s.config.ChangeRoundingUnit,
		Notes:              req.Notes,
		ClientRef:          req.ClientRef,
	})
	if err != nil {
		return err
	}
	if err := repos.SaleRepo().Create(ctx, sale); err != nil {
		return err
	}

	if customer != nil {
		if err := applySaleCredit(ctx, repos, customer, sale); err != nil {
			return err
		}
	}

	movements := make([]inventory.StockMovement, 0, len(productIDs))
	for _, pq := range sale.QuantitiesByProduct() {
		stock := stockByProduct[pq.ProductID]
		if err := stock.Deduct(pq.Quantity); err != nil {
			return pos.NewInsufficientStockError(pq.ProductCode, pq.Quantity, stock.Quantity)
		}
		if err := repos.StockRepo().Save(ctx, stock); err != nil {
			return err
		}
		movements = append(movements, inventory.NewStockMovement(stock, inventory.MovementTypeSale, pq.Quantity.Neg(), &sale.ID, sale.Reference))
		result.stocks = append(result.stocks, stock)
	}
	if err := repos.MovementRepo().Create(ctx, movements...); err != nil {
		return err
	}

	if err := session.RecordSale(sale.Total); err != nil {
		return err
	}
	for _, p := range sale.Payments {
		if err := session.RecordPayment(p.Method, p.Amount); err != nil {
			return err
		}
	}
	if err := repos.SessionRepo().Save(ctx, session); err != nil {
		return err
	}

	result.sale = sale
	result.customer = customer
	return nil
}

// applySaleCredit consumes store credit used as a tender and books any amount
// left unpaid on the customer's balance
func applySaleCredit(ctx context.Context, repos TransactionalRepositories, customer *partner.Customer, sale *pos.Sale) error {
	source := partner.CreditSource{SaleID: &sale.ID, Reference: sale.Reference, OperatorID: &sale.CashierID}
	var entries []*partner.CreditTransaction

	if used := sale.PaidWith(pos.PaymentMethodCustomerCredit); used.IsPositive() {
		if customer.CreditBalance.LessThan(used) {
			return pos.NewInsufficientCreditError(customer.CreditBalance, used)
		}
		entry, err := customer.ConsumeCredit(used, source)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if sale.AmountDue.IsPositive() {
		entry, err := customer.ExtendCredit(sale.AmountDue, source)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil
	}

	if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
		return err
	}
	return repos.CreditRepo().Create(ctx, entries...)
}

// ProcessCreditPayment settles part or all of a sale's amount due with money
// received in the given open session
func (s *SaleService) ProcessCreditPayment(ctx context.Context, tenantID, saleID uuid.UUID, req CreditPaymentRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "credit_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID.String(),
		telemetry.SpanAttrSessionID, req.SessionID.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var sale *pos.Sale
	var customer *partner.Customer
	var payment *pos.SalePayment
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.POSOperationLabels(telemetry.OperationCreditPayment, tenantID.String()), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByIDForUpdate(c, tenantID, saleID)
			if err != nil {
				return err
			}
			if sale.Status == pos.SaleStatusCancelled {
				return pos.ErrSaleCancelled
			}
			if sale.IsSettled() {
				return pos.ErrAlreadySettled
			}

			session, err := lockOpenSession(c, repos, tenantID, req.SessionID)
			if err != nil {
				return err
			}

			payment, err = sale.ApplyCreditPayment(session.ID, pos.PaymentInput{
				Method:    pos.PaymentMethod(req.Method),
				Amount:    req.Amount,
				Reference: req.Reference,
			})
			if err != nil {
				return err
			}
			if err := session.RecordPayment(payment.Method, payment.Amount); err != nil {
				return err
			}

			if sale.CustomerID != nil {
				customer, err = repos.CustomerRepo().FindByIDForUpdate(c, tenantID, *sale.CustomerID)
				if err != nil {
					return err
				}
				entry, err := customer.SettleCredit(payment.Amount, partner.CreditSource{
					SaleID:     &sale.ID,
					Reference:  sale.Reference,
					OperatorID: &session.CashierID,
				})
				if err != nil {
					return err
				}
				if entry != nil {
					if err := repos.CustomerRepo().Save(c, customer); err != nil {
						return err
					}
					if err := repos.CreditRepo().Create(c, entry); err != nil {
						return err
					}
				}
			}

			if err := repos.SaleRepo().Update(c, sale); err != nil {
				return err
			}
			return repos.SessionRepo().Save(c, session)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, sale, customer)
	if s.metrics != nil {
		s.metrics.RecordPayment(ctx, tenantID, string(payment.Method), telemetry.PaymentKindSettlement, payment.Amount)
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// CancelSale voids a sale while its session is still open. Stock, session
// totals and the customer's credit balance are put back as they were.
func (s *SaleService) CancelSale(ctx context.Context, tenantID, saleID uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, saleID.String())

	var sale *pos.Sale
	var customer *partner.Customer
	var err error
	telemetry.WithProfilingLabels(ctx, telemetry.POSOperationLabels(telemetry.OperationCancelSale, tenantID.String()), func(c context.Context) {
		err = s.txScope.Execute(c, func(repos TransactionalRepositories) error {
			var err error
			sale, err = repos.SaleRepo().FindByIDForUpdate(c, tenantID, saleID)
			if err != nil {
				return err
			}
			if sale.Status == pos.SaleStatusCancelled {
				return pos.ErrSaleCancelled
			}
			for _, p := range sale.Payments {
				if p.SessionID != sale.SessionID {
					return shared.NewDomainError("INVALID_STATE", "Sale has settlements received in another session and cannot be cancelled")
				}
			}

			session, err := repos.SessionRepo().FindByIDForUpdate(c, tenantID, sale.SessionID)
			if err != nil {
				return err
			}
			if !session.IsOpen() {
				return pos.ErrAlreadyClosed
			}

			if err := sale.Cancel(req.Reason); err != nil {
				return err
			}
			if err := session.ReverseSale(sale.Total, sale.Payments); err != nil {
				return err
			}

			if err := restoreStock(c, repos, sale); err != nil {
				return err
			}

			if sale.CustomerID != nil {
				customer, err = repos.CustomerRepo().FindByIDForUpdate(c, tenantID, *sale.CustomerID)
				if err != nil {
					return err
				}
				if err := reverseSaleCredit(c, repos, customer, sale); err != nil {
					return err
				}
			}

			if err := repos.SaleRepo().Update(c, sale); err != nil {
				return err
			}
			return repos.SessionRepo().Save(c, session)
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, sale, customer)
	if s.metrics != nil {
		s.metrics.RecordSaleCancelled(ctx, tenantID)
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

func restoreStock(ctx context.Context, repos TransactionalRepositories, sale *pos.Sale) error {
	quantities := sale.QuantitiesByProduct()
	productIDs := make([]uuid.UUID, len(quantities))
	for i, pq := range quantities {
		productIDs[i] = pq.ProductID
	}

	stocks, err := repos.StockRepo().FindForUpdate(ctx, sale.TenantID, sale.ShopID, productIDs)
	if err != nil {
		return err
	}
	stockByProduct := make(map[uuid.UUID]*inventory.ShopStock, len(stocks))
	for i := range stocks {
		stockByProduct[stocks[i].ProductID] = &stocks[i]
	}

	movements := make([]inventory.StockMovement, 0, len(quantities))
	for _, pq := range quantities {
		stock, ok := stockByProduct[pq.ProductID]
		if !ok {
			stock, err = inventory.NewShopStock(sale.TenantID, sale.ShopID, pq.ProductID)
			if err != nil {
				return err
			}
		}
		if err := stock.Restore(pq.Quantity); err != nil {
			return err
		}
		if err := repos.StockRepo().Save(ctx, stock); err != nil {
			return err
		}
		movements = append(movements, inventory.NewStockMovement(stock, inventory.MovementTypeVoid, pq.Quantity, &sale.ID, sale.Reference))
	}
	return repos.MovementRepo().Create(ctx, movements...)
}

func reverseSaleCredit(ctx context.Context, repos TransactionalRepositories, customer *partner.Customer, sale *pos.Sale) error {
	source := partner.CreditSource{SaleID: &sale.ID, Reference: sale.Reference, OperatorID: &sale.CashierID}
	var entries []*partner.CreditTransaction

	if used := sale.PaidWith(pos.PaymentMethodCustomerCredit); used.IsPositive() {
		entry, err := customer.RefundCredit(used, source)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if sale.AmountDue.IsPositive() {
		entry, err := customer.WriteOffCredit(sale.AmountDue, source)
		if err != nil {
			return err
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil
	}

	if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
		return err
	}
	return repos.CreditRepo().Create(ctx, entries...)
}

// VerifySale looks a sale up by the token printed on its receipt. It is not
// scoped to a tenant and returns only the public projection.
func (s *SaleService) VerifySale(ctx context.Context, token string) (*SaleVerificationResponse, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, shared.ErrNotFound
	}
	sale, err := s.saleRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	response := ToSaleVerificationResponse(sale)
	return &response, nil
}

// GetSale retrieves a sale with its items and payments
func (s *SaleService) GetSale(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales lists sales with filtering and pagination
func (s *SaleService) ListSales(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]SaleListResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	domainFilter.Page, domainFilter.PageSize = pageDefaults(filter.Page, filter.PageSize)
	if filter.SessionID != "" {
		domainFilter.Filters["session_id"] = filter.SessionID
	}
	if filter.CustomerID != "" {
		domainFilter.Filters["customer_id"] = filter.CustomerID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	sales, err := s.saleRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.saleRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSaleListResponses(sales), total, nil
}

// GetReceipt renders the receipt of a sale
func (s *SaleService) GetReceipt(ctx context.Context, tenantID, saleID uuid.UUID) (string, error) {
	if s.renderer == nil {
		return "", shared.NewDomainError("NOT_CONFIGURED", "Receipt rendering is not configured")
	}
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return "", err
	}
	return s.renderer.Render(sale)
}

func (s *SaleService) replay(ctx context.Context, tenantID uuid.UUID, clientRef string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByClientRef(ctx, tenantID, clientRef)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	response := ToSaleResponse(sale)
	response.Replayed = true
	return &response, nil
}

func (s *SaleService) publish(ctx context.Context, sale *pos.Sale, customer *partner.Customer, stocks ...*inventory.ShopStock) {
	if s.eventPublisher == nil {
		return
	}
	events := append([]shared.DomainEvent{}, sale.GetDomainEvents()...)
	if customer != nil {
		events = append(events, customer.GetDomainEvents()...)
		customer.ClearDomainEvents()
	}
	for _, stock := range stocks {
		events = append(events, stock.GetDomainEvents()...)
		stock.ClearDomainEvents()
	}
	if len(events) > 0 {
		// Publish errors are logged by the event bus, not propagated
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	sale.ClearDomainEvents()
}

func idempotencyKey(tenantID uuid.UUID, clientRef string) string {
	return fmt.Sprintf("pos:sale:%s:%s", tenantID, clientRef)
}

// lockOpenSession loads and locks a session that must still be open
func lockOpenSession(ctx context.Context, repos TransactionalRepositories, tenantID, sessionID uuid.UUID) (*pos.CashRegisterSession, error) {
	session, err := repos.SessionRepo().FindByIDForUpdate(ctx, tenantID, sessionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, pos.ErrNoOpenSession
		}
		return nil, err
	}
	if !session.IsOpen() {
		return nil, pos.ErrNoOpenSession
	}
	return session, nil
}

// requestedQuantities sums quantities per product and returns the product IDs
// in the order their stock rows must be locked
func requestedQuantities(items []SaleItemInput) (map[uuid.UUID]decimal.Decimal, []uuid.UUID, error) {
	if len(items) == 0 {
		return nil, nil, shared.NewDomainError("NO_ITEMS", "Sale must have at least one item")
	}
	requested := make(map[uuid.UUID]decimal.Decimal, len(items))
	for _, item := range items {
		if !item.Quantity.IsPositive() {
			return nil, nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		requested[item.ProductID] = requested[item.ProductID].Add(item.Quantity)
	}
	ids := make([]uuid.UUID, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return requested, ids, nil
}

func loadPromotion(ctx context.Context, repos TransactionalRepositories, tenantID, id uuid.UUID, cache map[uuid.UUID]*pos.Promotion) (*pos.Promotion, error) {
	if p, ok := cache[id]; ok {
		return p, nil
	}
	p, err := repos.PromotionRepo().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, pos.NewInvalidPromotionError(id.String(), "promotion does not exist")
		}
		return nil, err
	}
	cache[id] = p
	return p, nil
}
