package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	posapp "github.com/retailpos/backend/internal/application/pos"
)

// SessionService is the cash register session use case surface
type SessionService interface {
	OpenSession(ctx context.Context, tenantID uuid.UUID, req posapp.OpenSessionRequest) (*posapp.SessionResponse, error)
	CloseSession(ctx context.Context, tenantID, sessionID uuid.UUID, req posapp.CloseSessionRequest) (*posapp.SessionResponse, error)
	GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*posapp.SessionResponse, error)
	GetCurrentSession(ctx context.Context, tenantID, cashierID uuid.UUID) (*posapp.SessionResponse, error)
	ListSessions(ctx context.Context, tenantID uuid.UUID, filter posapp.SessionListFilter) ([]posapp.SessionResponse, int64, error)
	GetSessionSummary(ctx context.Context, tenantID, sessionID uuid.UUID) (*posapp.SessionSummaryResponse, error)
}

// SessionHandler handles cash register session endpoints
type SessionHandler struct {
	BaseHandler
	sessionService SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessionService SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Open godoc
// @ID           openPOSSession
// @Summary      Open a cash register session
// @Description  Opens a session for a cashier at a shop. cashier_id defaults to the authenticated user.
// @Tags         pos-sessions
// @Accept       json
// @Produce      json
// @Param        request body posapp.OpenSessionRequest true "Session opening request"
// @Success      201 {object} APIResponse[posapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "ALREADY_OPEN"
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req posapp.OpenSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.CashierID == uuid.Nil {
		userID, err := getUserID(c)
		if err != nil {
			h.BadRequest(c, "cashier_id is required")
			return
		}
		req.CashierID = userID
	}

	session, err := h.sessionService.OpenSession(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Close godoc
// @ID           closePOSSession
// @Summary      Close a cash register session
// @Description  Freezes the session totals. Closing twice fails with ALREADY_CLOSED.
// @Tags         pos-sessions
// @Accept       json
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Param        request body posapp.CloseSessionRequest false "Closing notes and counted cash"
// @Success      200 {object} APIResponse[posapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "ALREADY_CLOSED"
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req posapp.CloseSessionRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	session, err := h.sessionService.CloseSession(c.Request.Context(), tenantID, sessionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetByID godoc
// @ID           getPOSSession
// @Summary      Get a cash register session
// @Tags         pos-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} APIResponse[posapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sessions/{id} [get]
func (h *SessionHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.sessionService.GetSession(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// GetCurrent godoc
// @ID           getCurrentPOSSession
// @Summary      Get the open session of a cashier
// @Description  Returns the cashier's open session, or NO_OPEN_SESSION. cashier_id defaults to the authenticated user.
// @Tags         pos-sessions
// @Produce      json
// @Param        cashier_id query string false "Cashier ID" format(uuid)
// @Success      200 {object} APIResponse[posapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "NO_OPEN_SESSION"
// @Security     BearerAuth
// @Router       /pos/sessions/current [get]
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var cashierID uuid.UUID
	var err error
	if raw := c.Query("cashier_id"); raw != "" {
		cashierID, err = uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid cashier_id format")
			return
		}
	} else if cashierID, err = getUserID(c); err != nil {
		h.BadRequest(c, "cashier_id is required")
		return
	}

	session, err := h.sessionService.GetCurrentSession(c.Request.Context(), tenantID, cashierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// List godoc
// @ID           listPOSSessions
// @Summary      List cash register sessions
// @Tags         pos-sessions
// @Produce      json
// @Param        shop_id query string false "Shop ID" format(uuid)
// @Param        cashier_id query string false "Cashier ID" format(uuid)
// @Param        status query string false "Status" Enums(OPEN, CLOSED)
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]posapp.SessionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter posapp.SessionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	sessions, total, err := h.sessionService.ListSessions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, sessions, total, page, pageSize)
}

// Summary godoc
// @ID           getPOSSessionSummary
// @Summary      Summarise a session
// @Description  Payments grouped by method, expected cash and sale count of a session.
// @Tags         pos-sessions
// @Produce      json
// @Param        id path string true "Session ID" format(uuid)
// @Success      200 {object} APIResponse[posapp.SessionSummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /pos/sessions/{id}/summary [get]
func (h *SessionHandler) Summary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	sessionID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.sessionService.GetSessionSummary(c.Request.Context(), tenantID, sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
