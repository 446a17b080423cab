package services

import (
	"context"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
)

// ExpenseReaderSvc defines read operations for expense data
type ExpenseReaderSvc interface {
	// GetExpenseByID retrieves an expense with its beneficiary and payment
	// entries. Only room members can access it.
	GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.ExpenseDetails, error)

	// ListRoomExpenses retrieves a paginated list of a room's expenses, newest
	// first. Only room members can access it.
	ListRoomExpenses(ctx context.Context, roomID string, requestingUserID string, limit, offset int) ([]domain.Expense, error)
}

// ExpenseWriterSvc defines write operations for expense data
type ExpenseWriterSvc interface {
	// CreateExpense validates and persists a new expense with its entries.
	CreateExpense(ctx context.Context, roomID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.ExpenseDetails, error)

	// UpdateExpense replaces an expense's details and entries.
	UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, requestingUserID string) (*domain.ExpenseDetails, error)

	// DeleteExpense removes an expense and its entries.
	DeleteExpense(ctx context.Context, expenseID string, requestingUserID string) error
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
}
