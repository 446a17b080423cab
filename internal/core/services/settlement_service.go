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
	"github.com/splitroomhq/splitroom_backend/internal/core/settlement"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
)

// settlementService assembles room snapshots and runs the settlement pipeline
// over them, and manages the recorded-settlement ledger.
type settlementService struct {
	BaseService
	expenseRepo    portsrepo.ExpenseRepositoryFacade
	memberRepo     portsrepo.MemberRepositoryFacade
	settlementRepo portsrepo.SettlementRepositoryFacade
}

// SettlementServiceOption configures optional dependencies of the settlement service.
type SettlementServiceOption func(*settlementService)

// WithSettlementRoomAuthorizer provides the room authorization dependency.
func WithSettlementRoomAuthorizer(authorizer portssvc.RoomAuthorizerSvc) SettlementServiceOption {
	return func(s *settlementService) {
		s.RoomAuthorizer = authorizer
	}
}

// NewSettlementService creates a new settlementService.
func NewSettlementService(
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	memberRepo portsrepo.MemberRepositoryFacade,
	settlementRepo portsrepo.SettlementRepositoryFacade,
	opts ...SettlementServiceOption,
) portssvc.SettlementSvcFacade {
	s := &settlementService{
		expenseRepo:    expenseRepo,
		memberRepo:     memberRepo,
		settlementRepo: settlementRepo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure settlementService implements the facades
var (
	_ portssvc.SettlementSvcFacade   = (*settlementService)(nil)
	_ portssvc.RoomBalanceCheckerSvc = (*settlementService)(nil)
)

// snapshot holds everything the pipeline needs for one room and date range.
type snapshot struct {
	expenses      []domain.Expense
	members       []domain.Member
	beneficiaries map[string][]domain.BeneficiaryEntry
	payments      map[string][]domain.PaymentEntry
}

// loadSnapshot assembles the room's expenses dated within [start, end) along
// with the roster and all entry collections.
func (s *settlementService) loadSnapshot(ctx context.Context, roomID string, start, end time.Time) (*snapshot, error) {
	expenses, err := s.expenseRepo.ListExpensesByDateRange(ctx, roomID, start, end)
	if err != nil {
		s.LogError(ctx, err, "Failed to load expenses for settlement", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}

	members, err := s.memberRepo.ListMembersByRoomID(ctx, roomID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load roster for settlement", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ExpenseID
	}

	beneficiaries := map[string][]domain.BeneficiaryEntry{}
	payments := map[string][]domain.PaymentEntry{}
	if len(ids) > 0 {
		beneficiaries, err = s.expenseRepo.FindBeneficiariesByExpenseIDs(ctx, ids)
		if err != nil {
			s.LogError(ctx, err, "Failed to load beneficiaries for settlement", slog.String("room_id", roomID))
			return nil, fmt.Errorf("failed to load expense entries: %w", err)
		}
		payments, err = s.expenseRepo.FindPaymentsByExpenseIDs(ctx, ids)
		if err != nil {
			s.LogError(ctx, err, "Failed to load payments for settlement", slog.String("room_id", roomID))
			return nil, fmt.Errorf("failed to load expense entries: %w", err)
		}
	}

	return &snapshot{
		expenses:      expenses,
		members:       members,
		beneficiaries: beneficiaries,
		payments:      payments,
	}, nil
}

// GetMonthlyReport computes the full settlement report for a room and period.
func (s *settlementService) GetMonthlyReport(ctx context.Context, roomID string, requestingUserID string, period domain.Period) (*portssvc.MonthlyReport, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	start := time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	snap, err := s.loadSnapshot(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}

	result := settlement.CalculateFull(snap.expenses, snap.members, snap.beneficiaries, snap.payments, period)
	totals := settlement.MonthlyTotals(snap.expenses, snap.members, snap.beneficiaries, snap.payments, period)

	s.LogDebug(ctx, "Settlement report computed",
		slog.String("room_id", roomID),
		slog.Int("year", period.Year),
		slog.Int("month", int(period.Month)),
		slog.Int("obligations", len(result.Obligations)),
		slog.Int("settlements", len(result.Settlements)))

	return &portssvc.MonthlyReport{
		Period:    period,
		Result:    result,
		Totals:    totals,
		RoomTotal: settlement.RoomTotal(snap.expenses, period),
		Stats:     settlement.Summarize(totals),
	}, nil
}

// GetMemberOverallBalance computes a roster member's all-time net balance:
// paid minus share over every expense, shifted by recorded settlements the
// member sent or received.
func (s *settlementService) GetMemberOverallBalance(ctx context.Context, roomID, memberID string) (decimal.Decimal, error) {
	// Open-ended range: all of the room's history.
	snap, err := s.loadSnapshot(ctx, roomID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return decimal.Zero, err
	}

	totals := settlement.OverallTotals(snap.expenses, snap.members, snap.beneficiaries, snap.payments)
	balance := decimal.Zero
	if t, ok := totals[memberID]; ok {
		balance = t.Balance
	}

	recorded, err := s.settlementRepo.ListSettlementsByRoomID(ctx, roomID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load recorded settlements", slog.String("room_id", roomID))
		return decimal.Zero, fmt.Errorf("failed to load recorded settlements: %w", err)
	}
	for _, r := range recorded {
		if r.FromMemberID == memberID {
			balance = balance.Add(r.Amount)
		}
		if r.ToMemberID == memberID {
			balance = balance.Sub(r.Amount)
		}
	}

	return balance.Round(2), nil
}

// ListRecordedSettlements retrieves the room's recorded settlement history.
func (s *settlementService) ListRecordedSettlements(ctx context.Context, roomID string, requestingUserID string) ([]domain.RecordedSettlement, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	settlements, err := s.settlementRepo.ListSettlementsByRoomID(ctx, roomID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list recorded settlements", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to list recorded settlements: %w", err)
	}
	if settlements == nil {
		return []domain.RecordedSettlement{}, nil
	}
	return settlements, nil
}

// RecordSettlement persists a settlement payment that happened outside the app.
func (s *settlementService) RecordSettlement(ctx context.Context, roomID string, req dto.RecordSettlementRequest, requestingUserID string) (*domain.RecordedSettlement, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}

	if req.FromMemberID == req.ToMemberID {
		return nil, apperrors.NewValidationFailedError("a member cannot settle with themselves")
	}
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, apperrors.NewValidationFailedError("settlement amount must be positive")
	}

	for _, memberID := range []string{req.FromMemberID, req.ToMemberID} {
		member, err := s.memberRepo.FindMemberByID(ctx, memberID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewValidationFailedError(fmt.Sprintf("member %s is not on the room roster", memberID))
			}
			return nil, fmt.Errorf("failed to validate member: %w", err)
		}
		if member.RoomID != roomID {
			return nil, apperrors.NewValidationFailedError(fmt.Sprintf("member %s is not on the room roster", memberID))
		}
	}

	now := time.Now()
	recorded := domain.RecordedSettlement{
		SettlementID: uuid.NewString(),
		RoomID:       roomID,
		FromMemberID: req.FromMemberID,
		ToMemberID:   req.ToMemberID,
		Amount:       req.Amount.Round(2),
		Note:         req.Note,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}

	if err := s.settlementRepo.SaveSettlement(ctx, recorded); err != nil {
		s.LogError(ctx, err, "Failed to save recorded settlement", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	s.LogInfo(ctx, "Settlement recorded",
		slog.String("room_id", roomID),
		slog.String("settlement_id", recorded.SettlementID),
		slog.String("from", recorded.FromMemberID),
		slog.String("to", recorded.ToMemberID))
	return &recorded, nil
}
