package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
	"github.com/splitroomhq/splitroom_backend/internal/middleware"
)

// expenseHandler handles HTTP requests related to expenses.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

// newExpenseHandler creates a new expenseHandler.
func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{
		expenseService: es,
	}
}

// registerExpenseRoutes registers all expense-related routes.
func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)

	rg.POST("/rooms/:room_id/expenses", h.createExpense)
	rg.GET("/rooms/:room_id/expenses", h.listExpenses)

	expenses := rg.Group("/expenses")
	{
		expenses.GET("/:expense_id", h.getExpense)
		expenses.PUT("/:expense_id", h.updateExpense)
		expenses.DELETE("/:expense_id", h.deleteExpense)
	}
}

// createExpense godoc
// @Summary Record an expense
// @Description Records a new expense with its beneficiaries and payments. Members only.
// @Tags expenses
// @Accept json
// @Produce json
// @Param room_id path string true "Room ID"
// @Param expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseDetailsResponse
// @Failure 400 {object} map[string]string "Invalid input (bad split, unknown member, non-positive total)"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for create expense request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	details, err := h.expenseService.CreateExpense(c.Request.Context(), roomID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create expense")
		return
	}

	logger.Info("Expense created", slog.String("room_id", roomID), slog.String("expense_id", details.ExpenseID))
	c.JSON(http.StatusCreated, dto.ToExpenseDetailsResponse(details))
}

// listExpenses godoc
// @Summary List a room's expenses
// @Description Retrieves a paginated list of expenses, newest first. Members only.
// @Tags expenses
// @Produce json
// @Param room_id path string true "Room ID"
// @Param limit query int false "Max results (default 50)"
// @Param offset query int false "Offset for pagination"
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListRoomExpenses(c.Request.Context(), roomID, userID, params.Limit, params.Offset)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpensesResponse(expenses))
}

// getExpense godoc
// @Summary Get an expense
// @Description Retrieves an expense with its beneficiary and payment entries. Members only.
// @Tags expenses
// @Produce json
// @Param expense_id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseDetailsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expense_id} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("expense_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	details, err := h.expenseService.GetExpenseByID(c.Request.Context(), expenseID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseDetailsResponse(details))
}

// updateExpense godoc
// @Summary Update an expense
// @Description Replaces an expense's details and entries. Members only.
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense_id path string true "Expense ID"
// @Param expense body dto.UpdateExpenseRequest true "New expense details"
// @Success 200 {object} dto.ExpenseDetailsResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expense_id} [put]
func (h *expenseHandler) updateExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("expense_id")

	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for update expense request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	details, err := h.expenseService.UpdateExpense(c.Request.Context(), expenseID, req, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseDetailsResponse(details))
}

// deleteExpense godoc
// @Summary Delete an expense
// @Description Removes an expense and its entries. The creator may delete their own expense; others need admin.
// @Tags expenses
// @Produce json
// @Param expense_id path string true "Expense ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expense_id} [delete]
func (h *expenseHandler) deleteExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("expense_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), expenseID, userID); err != nil {
		respondWithError(c, logger, err, "Failed to delete expense")
		return
	}

	logger.Info("Expense deleted", slog.String("expense_id", expenseID), slog.String("user_id", userID))
	c.Status(http.StatusNoContent)
}
