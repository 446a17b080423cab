package repositories

import (
	"context"
	"time"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves a specific expense by its ID.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesByRoomID retrieves a paginated list of expenses for a room,
	// newest first.
	ListExpensesByRoomID(ctx context.Context, roomID string, limit int, offset int) ([]domain.Expense, error)

	// ListExpensesByDateRange retrieves all expenses of a room dated within
	// [start, end).
	ListExpensesByDateRange(ctx context.Context, roomID string, start, end time.Time) ([]domain.Expense, error)

	// FindBeneficiariesByExpenseIDs retrieves beneficiary entries for the given
	// expenses, keyed by expense ID.
	FindBeneficiariesByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]domain.BeneficiaryEntry, error)

	// FindPaymentsByExpenseIDs retrieves payment entries for the given expenses,
	// keyed by expense ID.
	FindPaymentsByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]domain.PaymentEntry, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense together with its beneficiary and
	// payment entries, atomically.
	SaveExpense(ctx context.Context, expense domain.Expense, beneficiaries []domain.BeneficiaryEntry, payments []domain.PaymentEntry) error

	// UpdateExpense replaces an expense's details and entries, atomically.
	UpdateExpense(ctx context.Context, expense domain.Expense, beneficiaries []domain.BeneficiaryEntry, payments []domain.PaymentEntry) error

	// DeleteExpense removes an expense and its entries.
	DeleteExpense(ctx context.Context, expenseID string) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}

// ExpenseRepositoryWithTx extends ExpenseRepositoryFacade with transaction capabilities
type ExpenseRepositoryWithTx interface {
	ExpenseRepositoryFacade
	TransactionManager
}
