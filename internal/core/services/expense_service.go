package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
	"github.com/splitroomhq/splitroom_backend/internal/utils"
)

// sumTolerance is how far entry sums may drift from the expense total before
// ingestion rejects them.
var sumTolerance = decimal.New(1, -2)

// expenseService handles business logic related to expenses and their entries.
type expenseService struct {
	BaseService
	expenseRepo portsrepo.ExpenseRepositoryFacade
	memberRepo  portsrepo.MemberRepositoryFacade
}

// ExpenseServiceOption configures optional dependencies of the expense service.
type ExpenseServiceOption func(*expenseService)

// WithExpenseRoomAuthorizer provides the room authorization dependency.
func WithExpenseRoomAuthorizer(authorizer portssvc.RoomAuthorizerSvc) ExpenseServiceOption {
	return func(s *expenseService) {
		s.RoomAuthorizer = authorizer
	}
}

// NewExpenseService creates a new expenseService.
func NewExpenseService(expenseRepo portsrepo.ExpenseRepositoryFacade, memberRepo portsrepo.MemberRepositoryFacade, opts ...ExpenseServiceOption) portssvc.ExpenseSvcFacade {
	s := &expenseService{
		expenseRepo: expenseRepo,
		memberRepo:  memberRepo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure expenseService implements the facade
var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// CreateExpense validates and persists a new expense with its entries.
func (s *expenseService) CreateExpense(ctx context.Context, roomID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.ExpenseDetails, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	if err := s.validateEntries(ctx, roomID, req.TotalAmount, req.Beneficiaries, req.Payments); err != nil {
		return nil, err
	}

	now := time.Now()
	expense := domain.Expense{
		ExpenseID:   uuid.NewString(),
		RoomID:      roomID,
		Name:        req.Name,
		TotalAmount: req.TotalAmount.Round(2),
		Date:        req.Date,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	beneficiaries, payments := toEntries(expense.ExpenseID, req.Beneficiaries, req.Payments)

	if err := s.expenseRepo.SaveExpense(ctx, expense, beneficiaries, payments); err != nil {
		s.LogError(ctx, err, "Failed to save expense", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.LogInfo(ctx, "Expense created", slog.String("expense_id", expense.ExpenseID), slog.String("room_id", roomID))
	return &domain.ExpenseDetails{
		Expense:       expense,
		Beneficiaries: beneficiaries,
		Payments:      payments,
	}, nil
}

// GetExpenseByID retrieves an expense with its entries.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.ExpenseDetails, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find expense", slog.String("expense_id", expenseID))
		}
		return nil, err
	}

	if err := s.AuthorizeUser(ctx, requestingUserID, expense.RoomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	ids := []string{expenseID}
	beneficiaries, err := s.expenseRepo.FindBeneficiariesByExpenseIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load beneficiaries", slog.String("expense_id", expenseID))
		return nil, fmt.Errorf("failed to load expense entries: %w", err)
	}
	payments, err := s.expenseRepo.FindPaymentsByExpenseIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load payments", slog.String("expense_id", expenseID))
		return nil, fmt.Errorf("failed to load expense entries: %w", err)
	}

	return &domain.ExpenseDetails{
		Expense:       *expense,
		Beneficiaries: beneficiaries[expenseID],
		Payments:      payments[expenseID],
	}, nil
}

// ListRoomExpenses retrieves a paginated list of a room's expenses.
func (s *expenseService) ListRoomExpenses(ctx context.Context, roomID string, requestingUserID string, limit, offset int) ([]domain.Expense, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	expenses, err := s.expenseRepo.ListExpensesByRoomID(ctx, roomID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list expenses", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	if expenses == nil {
		return []domain.Expense{}, nil
	}
	return expenses, nil
}

// UpdateExpense replaces an expense's details and entries.
func (s *expenseService) UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, requestingUserID string) (*domain.ExpenseDetails, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := s.AuthorizeUser(ctx, requestingUserID, expense.RoomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	if err := s.validateEntries(ctx, expense.RoomID, req.TotalAmount, req.Beneficiaries, req.Payments); err != nil {
		return nil, err
	}

	expense.Name = req.Name
	expense.TotalAmount = req.TotalAmount.Round(2)
	expense.Date = req.Date
	expense.LastUpdatedAt = time.Now()
	expense.LastUpdatedBy = requestingUserID

	beneficiaries, payments := toEntries(expense.ExpenseID, req.Beneficiaries, req.Payments)

	if err := s.expenseRepo.UpdateExpense(ctx, *expense, beneficiaries, payments); err != nil {
		s.LogError(ctx, err, "Failed to update expense", slog.String("expense_id", expenseID))
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	s.LogInfo(ctx, "Expense updated", slog.String("expense_id", expenseID))
	return &domain.ExpenseDetails{
		Expense:       *expense,
		Beneficiaries: beneficiaries,
		Payments:      payments,
	}, nil
}

// DeleteExpense removes an expense. The creator can delete their own expenses;
// anyone else needs the admin role.
func (s *expenseService) DeleteExpense(ctx context.Context, expenseID string, requestingUserID string) error {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return err
	}

	requiredRole := domain.RoomRoleMember
	if expense.CreatedBy != requestingUserID {
		requiredRole = domain.RoomRoleAdmin
	}
	if err := s.AuthorizeUser(ctx, requestingUserID, expense.RoomID, requiredRole); err != nil {
		return err
	}

	if err := s.expenseRepo.DeleteExpense(ctx, expenseID); err != nil {
		s.LogError(ctx, err, "Failed to delete expense", slog.String("expense_id", expenseID))
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.LogInfo(ctx, "Expense deleted", slog.String("expense_id", expenseID))
	return nil
}

// validateEntries enforces the ingestion rules: amounts are positive, every
// referenced member is on the room's roster exactly once per collection, and
// explicit shares and payments each sum to the expense total within a cent.
func (s *expenseService) validateEntries(ctx context.Context, roomID string, total decimal.Decimal, beneficiaries []dto.BeneficiaryInput, payments []dto.PaymentInput) error {
	if !total.GreaterThan(decimal.Zero) {
		return apperrors.NewValidationFailedError("total amount must be positive")
	}

	roster, err := s.memberRepo.ListMembersByRoomID(ctx, roomID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load roster for validation", slog.String("room_id", roomID))
		return fmt.Errorf("failed to load roster: %w", err)
	}
	known := make(map[string]bool, len(roster))
	for _, m := range roster {
		known[m.MemberID] = true
	}

	seen := make(map[string]bool, len(beneficiaries))
	explicit := false
	shareSum := decimal.Zero
	for _, b := range beneficiaries {
		if !known[b.MemberID] {
			return apperrors.NewValidationFailedError(fmt.Sprintf("beneficiary %s is not on the room roster", b.MemberID))
		}
		if seen[b.MemberID] {
			return apperrors.NewValidationFailedError(fmt.Sprintf("beneficiary %s appears more than once", b.MemberID))
		}
		seen[b.MemberID] = true
		if b.ShareAmount != nil {
			explicit = true
			if b.ShareAmount.IsNegative() {
				return apperrors.NewValidationFailedError("share amounts cannot be negative")
			}
			shareSum = shareSum.Add(*b.ShareAmount)
		}
	}
	if explicit && shareSum.Sub(total).Abs().GreaterThan(sumTolerance) {
		return apperrors.NewValidationFailedError(fmt.Sprintf("share amounts sum to %s, expected %s", utils.FormatAmount(shareSum), utils.FormatAmount(total)))
	}

	paidSum := decimal.Zero
	for _, p := range payments {
		if !known[p.MemberID] {
			return apperrors.NewValidationFailedError(fmt.Sprintf("payer %s is not on the room roster", p.MemberID))
		}
		if !p.PaidAmount.GreaterThan(decimal.Zero) {
			return apperrors.NewValidationFailedError("paid amounts must be positive")
		}
		paidSum = paidSum.Add(p.PaidAmount)
	}
	if paidSum.Sub(total).Abs().GreaterThan(sumTolerance) {
		return apperrors.NewValidationFailedError(fmt.Sprintf("payments sum to %s, expected %s", utils.FormatAmount(paidSum), utils.FormatAmount(total)))
	}

	return nil
}

// toEntries maps request inputs onto domain entries for one expense.
func toEntries(expenseID string, beneficiaries []dto.BeneficiaryInput, payments []dto.PaymentInput) ([]domain.BeneficiaryEntry, []domain.PaymentEntry) {
	beneficiaryEntries := make([]domain.BeneficiaryEntry, len(beneficiaries))
	for i, b := range beneficiaries {
		beneficiaryEntries[i] = domain.BeneficiaryEntry{
			ExpenseID:   expenseID,
			MemberID:    b.MemberID,
			ShareAmount: b.ShareAmount,
		}
	}
	paymentEntries := make([]domain.PaymentEntry, len(payments))
	for i, p := range payments {
		paymentEntries[i] = domain.PaymentEntry{
			ExpenseID:  expenseID,
			MemberID:   p.MemberID,
			PaidAmount: p.PaidAmount,
		}
	}
	return beneficiaryEntries, paymentEntries
}
