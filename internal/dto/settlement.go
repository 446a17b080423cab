package dto

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	"github.com/splitroomhq/splitroom_backend/internal/core/settlement"
)

// --- Settlement DTOs ---

// SettlementQueryParams selects the calendar month of a settlement report.
type SettlementQueryParams struct {
	Year  int `form:"year" binding:"required,min=2000,max=2200"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// RecordSettlementRequest defines data for recording an out-of-app settlement
// payment between two roster members.
type RecordSettlementRequest struct {
	FromMemberID string          `json:"fromMemberID" binding:"required"`
	ToMemberID   string          `json:"toMemberID" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Note         string          `json:"note" binding:"max=200"`
}

// SettlementReportResponse is the full settlement view of one calendar month:
// the obligation ledger, compressed balances, minimal payment plan, and the
// period's aggregates.
type SettlementReportResponse struct {
	Year        int                   `json:"year"`
	Month       int                   `json:"month"`
	Obligations []domain.Obligation   `json:"obligations"`
	NetBalances []domain.NetBalance   `json:"netBalances"`
	Settlements []domain.Settlement   `json:"settlements"`
	Totals      []domain.MemberTotals `json:"totals"`
	RoomTotal   decimal.Decimal       `json:"roomTotal"`
	Stats       domain.SummaryStats   `json:"stats"`
}

// ToSettlementReportResponse flattens the pipeline output into a response.
// Map-backed collections are emitted sorted by member ID so responses are
// stable across requests.
func ToSettlementReportResponse(
	period domain.Period,
	result settlement.Result,
	totals map[string]domain.MemberTotals,
	roomTotal decimal.Decimal,
	stats domain.SummaryStats,
) SettlementReportResponse {
	balances := make([]domain.NetBalance, 0, len(result.NetBalances))
	for _, b := range result.NetBalances {
		balances = append(balances, b)
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].MemberID < balances[j].MemberID })

	totalsList := make([]domain.MemberTotals, 0, len(totals))
	for _, t := range totals {
		totalsList = append(totalsList, t)
	}
	sort.Slice(totalsList, func(i, j int) bool { return totalsList[i].MemberID < totalsList[j].MemberID })

	return SettlementReportResponse{
		Year:        period.Year,
		Month:       int(period.Month),
		Obligations: result.Obligations,
		NetBalances: balances,
		Settlements: result.Settlements,
		Totals:      totalsList,
		RoomTotal:   roomTotal,
		Stats:       stats,
	}
}

// RecordedSettlementResponse defines data returned for a recorded settlement.
type RecordedSettlementResponse struct {
	SettlementID string          `json:"settlementID"`
	RoomID       string          `json:"roomID"`
	FromMemberID string          `json:"fromMemberID"`
	ToMemberID   string          `json:"toMemberID"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	CreatedBy    string          `json:"createdBy"` // UserID
}

// ToRecordedSettlementResponse converts domain.RecordedSettlement to DTO.
func ToRecordedSettlementResponse(s *domain.RecordedSettlement) RecordedSettlementResponse {
	return RecordedSettlementResponse{
		SettlementID: s.SettlementID,
		RoomID:       s.RoomID,
		FromMemberID: s.FromMemberID,
		ToMemberID:   s.ToMemberID,
		Amount:       s.Amount,
		Note:         s.Note,
		CreatedAt:    s.CreatedAt,
		CreatedBy:    s.CreatedBy,
	}
}

// ListRecordedSettlementsResponse wraps a room's recorded settlement history.
type ListRecordedSettlementsResponse struct {
	Settlements []RecordedSettlementResponse `json:"settlements"`
}

// ToListRecordedSettlementsResponse converts a slice of domain.RecordedSettlement to DTO.
func ToListRecordedSettlementsResponse(ss []domain.RecordedSettlement) ListRecordedSettlementsResponse {
	list := make([]RecordedSettlementResponse, len(ss))
	for i, s := range ss {
		list[i] = ToRecordedSettlementResponse(&s)
	}
	return ListRecordedSettlementsResponse{Settlements: list}
}

// MemberBalanceResponse reports a roster member's all-time net position.
type MemberBalanceResponse struct {
	MemberID string          `json:"memberID"`
	Balance  decimal.Decimal `json:"balance"`
}
