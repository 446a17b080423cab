package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	"github.com/splitroomhq/splitroom_backend/internal/core/settlement"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
)

// MonthlyReport bundles everything the settlement view of one calendar month
// needs: the pipeline output plus per-member and room-level aggregates.
type MonthlyReport struct {
	Period    domain.Period
	Result    settlement.Result
	Totals    map[string]domain.MemberTotals
	RoomTotal decimal.Decimal
	Stats     domain.SummaryStats
}

// RoomBalanceCheckerSvc is the narrow dependency room membership changes need:
// whether a roster member still has money outstanding.
type RoomBalanceCheckerSvc interface {
	// GetMemberOverallBalance computes a roster member's all-time net balance.
	GetMemberOverallBalance(ctx context.Context, roomID, memberID string) (decimal.Decimal, error)
}

// SettlementReaderSvc defines read operations on computed settlement state
type SettlementReaderSvc interface {
	// GetMonthlyReport computes the full settlement report for a room and
	// period. Only room members can access it.
	GetMonthlyReport(ctx context.Context, roomID string, requestingUserID string, period domain.Period) (*MonthlyReport, error)

	// GetMemberOverallBalance computes a roster member's all-time net balance:
	// computed balances across every month, adjusted by recorded settlements.
	GetMemberOverallBalance(ctx context.Context, roomID, memberID string) (decimal.Decimal, error)

	// ListRecordedSettlements retrieves the room's recorded settlement history,
	// newest first. Only room members can access it.
	ListRecordedSettlements(ctx context.Context, roomID string, requestingUserID string) ([]domain.RecordedSettlement, error)
}

// SettlementWriterSvc defines write operations for recorded settlements
type SettlementWriterSvc interface {
	// RecordSettlement persists a settlement payment that happened outside the
	// app, shifting both members' overall balances accordingly.
	RecordSettlement(ctx context.Context, roomID string, req dto.RecordSettlementRequest, requestingUserID string) (*domain.RecordedSettlement, error)
}

// SettlementSvcFacade combines all settlement-related service interfaces
type SettlementSvcFacade interface {
	SettlementReaderSvc
	SettlementWriterSvc
}
