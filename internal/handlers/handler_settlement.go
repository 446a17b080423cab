package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
	"github.com/splitroomhq/splitroom_backend/internal/middleware"
)

// settlementHandler handles HTTP requests for settlement reports and the
// recorded settlement history.
type settlementHandler struct {
	settlementService portssvc.SettlementSvcFacade
	roomService       portssvc.RoomSvcFacade
}

// newSettlementHandler creates a new settlementHandler.
func newSettlementHandler(ss portssvc.SettlementSvcFacade, rs portssvc.RoomSvcFacade) *settlementHandler {
	return &settlementHandler{
		settlementService: ss,
		roomService:       rs,
	}
}

// RegisterSettlementRoutes registers all settlement-related routes.
func RegisterSettlementRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade, roomService portssvc.RoomSvcFacade) {
	h := newSettlementHandler(settlementService, roomService)

	rg.GET("/rooms/:room_id/settlement", h.getMonthlyReport)
	rg.GET("/rooms/:room_id/settlements", h.listRecordedSettlements)
	rg.POST("/rooms/:room_id/settlements", h.recordSettlement)
	rg.GET("/rooms/:room_id/members/:member_id/balance", h.getMemberBalance)
}

// getMonthlyReport godoc
// @Summary Get the monthly settlement report
// @Description Computes the obligation ledger, net balances, minimal payment plan, and aggregates for one calendar month. Members only.
// @Tags settlements
// @Produce json
// @Param room_id path string true "Room ID"
// @Param year query int true "Calendar year"
// @Param month query int true "Calendar month (1-12)"
// @Success 200 {object} dto.SettlementReportResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/settlement [get]
func (h *settlementHandler) getMonthlyReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	var params dto.SettlementQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	period := domain.Period{Year: params.Year, Month: time.Month(params.Month)}
	report, err := h.settlementService.GetMonthlyReport(c.Request.Context(), roomID, userID, period)
	if err != nil {
		respondWithError(c, logger, err, "Failed to compute settlement report")
		return
	}

	c.JSON(http.StatusOK, dto.ToSettlementReportResponse(report.Period, report.Result, report.Totals, report.RoomTotal, report.Stats))
}

// listRecordedSettlements godoc
// @Summary List recorded settlements
// @Description Retrieves the room's recorded settlement history, newest first. Members only.
// @Tags settlements
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} dto.ListRecordedSettlementsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/settlements [get]
func (h *settlementHandler) listRecordedSettlements(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	settlements, err := h.settlementService.ListRecordedSettlements(c.Request.Context(), roomID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list settlements")
		return
	}

	c.JSON(http.StatusOK, dto.ToListRecordedSettlementsResponse(settlements))
}

// recordSettlement godoc
// @Summary Record a settlement payment
// @Description Records a payment made outside the app between two roster members, shifting both overall balances. Members only.
// @Tags settlements
// @Accept json
// @Produce json
// @Param room_id path string true "Room ID"
// @Param settlement body dto.RecordSettlementRequest true "Settlement details"
// @Success 201 {object} dto.RecordedSettlementResponse
// @Failure 400 {object} map[string]string "Invalid input (self-settlement, non-positive amount, foreign member)"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/settlements [post]
func (h *settlementHandler) recordSettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	var req dto.RecordSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for record settlement request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	settlement, err := h.settlementService.RecordSettlement(c.Request.Context(), roomID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to record settlement")
		return
	}

	logger.Info("Settlement recorded", slog.String("room_id", roomID), slog.String("settlement_id", settlement.SettlementID))
	c.JSON(http.StatusCreated, dto.ToRecordedSettlementResponse(settlement))
}

// getMemberBalance godoc
// @Summary Get a roster member's overall balance
// @Description Computes a member's all-time net balance, adjusted by recorded settlements. Members only.
// @Tags settlements
// @Produce json
// @Param room_id path string true "Room ID"
// @Param member_id path string true "Member ID"
// @Success 200 {object} dto.MemberBalanceResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room or member not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/members/{member_id}/balance [get]
func (h *settlementHandler) getMemberBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")
	memberID := c.Param("member_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	// Balance computation has no caller gate of its own, so check room
	// membership here.
	if err := h.roomService.AuthorizeUserAction(c.Request.Context(), userID, roomID, domain.RoomRoleMember); err != nil {
		respondWithError(c, logger, err, "Failed to authorize request")
		return
	}

	balance, err := h.settlementService.GetMemberOverallBalance(c.Request.Context(), roomID, memberID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to compute member balance")
		return
	}

	c.JSON(http.StatusOK, dto.MemberBalanceResponse{MemberID: memberID, Balance: balance})
}
