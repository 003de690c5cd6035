package pos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/pos"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
)

// SessionService opens, closes and reports on cash register sessions
type SessionService struct {
	txScope        TransactionScope
	sessionRepo    pos.SessionRepository
	saleRepo       pos.SaleRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.POSMetrics
}

// NewSessionService creates a new SessionService
func NewSessionService(txScope TransactionScope, sessionRepo pos.SessionRepository, saleRepo pos.SaleRepository) *SessionService {
	return &SessionService{
		txScope:     txScope,
		sessionRepo: sessionRepo,
		saleRepo:    saleRepo,
	}
}

// SetEventPublisher sets the event publisher for session events
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetPOSMetrics sets the business metrics recorder
func (s *SessionService) SetPOSMetrics(m *telemetry.POSMetrics) {
	s.metrics = m
}

// OpenSession opens a session for the cashier at a shop. A cashier can hold
// only one open session across all shops.
func (s *SessionService) OpenSession(ctx context.Context, tenantID uuid.UUID, req OpenSessionRequest) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pos_session", "open")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrShopID, req.ShopID.String(),
		telemetry.SpanAttrCashierID, req.CashierID.String(),
	)

	var session *pos.CashRegisterSession
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.SessionRepo().FindOpenByCashierForUpdate(ctx, tenantID, req.CashierID)
		if err == nil && existing != nil {
			return pos.ErrAlreadyOpen
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		session, err = pos.OpenSession(tenantID, req.ShopID, req.CashierID, req.OpeningAmount, req.Notes)
		if err != nil {
			return err
		}
		return repos.SessionRepo().Save(ctx, session)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, session)
	if s.metrics != nil {
		s.metrics.RecordSessionOpened(ctx, tenantID, session.ShopID)
	}

	response := ToSessionResponse(session)
	return &response, nil
}

// CloseSession closes an open session and computes its closing amount
func (s *SessionService) CloseSession(ctx context.Context, tenantID, sessionID uuid.UUID, req CloseSessionRequest) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pos_session", "close")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSessionID, sessionID.String())

	var session *pos.CashRegisterSession
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		session, err = repos.SessionRepo().FindByIDForUpdate(ctx, tenantID, sessionID)
		if err != nil {
			return err
		}
		if err := session.Close(req.ClosingNotes, req.CountedCash); err != nil {
			return err
		}
		return repos.SessionRepo().Save(ctx, session)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, session)
	if s.metrics != nil {
		s.metrics.RecordSessionClosed(ctx, tenantID, session.ShopID)
	}

	response := ToSessionResponse(session)
	return &response, nil
}

// GetSession retrieves a session by ID
func (s *SessionService) GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	response := ToSessionResponse(session)
	return &response, nil
}

// GetCurrentSession returns the cashier's open session
func (s *SessionService) GetCurrentSession(ctx context.Context, tenantID, cashierID uuid.UUID) (*SessionResponse, error) {
	session, err := s.sessionRepo.FindOpenByCashier(ctx, tenantID, cashierID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, pos.ErrNoOpenSession
		}
		return nil, err
	}
	response := ToSessionResponse(session)
	return &response, nil
}

// ListSessions lists sessions with filtering and pagination
func (s *SessionService) ListSessions(ctx context.Context, tenantID uuid.UUID, filter SessionListFilter) ([]SessionResponse, int64, error) {
	page, pageSize := pageDefaults(filter.Page, filter.PageSize)
	domainFilter := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  "opened_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
	if filter.ShopID != "" {
		domainFilter.Filters["shop_id"] = filter.ShopID
	}
	if filter.CashierID != "" {
		domainFilter.Filters["cashier_id"] = filter.CashierID
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	sessions, err := s.sessionRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.sessionRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToSessionResponses(sessions), total, nil
}

// GetSessionSummary groups the payments received in a session by method.
// The figures come from the payment rows, so settlements of older sales are included.
func (s *SessionService) GetSessionSummary(ctx context.Context, tenantID, sessionID uuid.UUID) (*SessionSummaryResponse, error) {
	session, err := s.sessionRepo.FindByIDForTenant(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	totals, err := s.saleRepo.SumPaymentsBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	summary := &SessionSummaryResponse{
		Session:      ToSessionResponse(session),
		Payments:     make([]MethodTotal, 0, len(pos.AllPaymentMethods)),
		ExpectedCash: session.OpeningAmount.Add(totals.Get(pos.PaymentMethodCash)),
		SalesCount:   session.SalesCount,
	}
	money := session.OpeningAmount
	for _, method := range pos.AllPaymentMethods {
		amount := totals.Get(method)
		summary.Payments = append(summary.Payments, MethodTotal{Method: string(method), Amount: amount})
		if method.IsMoneyReceived() {
			money = money.Add(amount)
		}
	}
	summary.MoneyTotal = money
	return summary, nil
}

func (s *SessionService) publish(ctx context.Context, session *pos.CashRegisterSession) {
	events := session.GetDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
	session.ClearDomainEvents()
}
