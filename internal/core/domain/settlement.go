package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period selects a single calendar month for settlement computation.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"` // 1-12
}

// Contains reports whether a date falls within the period's calendar month.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Obligation is a discrete pairwise debt derived from one expense:
// "From must transfer Amount to To because of this expense."
// Obligations are computed fresh on every calculation and never persisted.
type Obligation struct {
	FromMemberID string          `json:"from"`
	FromName     string          `json:"fromName"`
	ToMemberID   string          `json:"to"`
	ToName       string          `json:"toName"`
	Amount       decimal.Decimal `json:"amount"` // Positive, rounded to 2dp
	ExpenseID    string          `json:"expenseId"`
	ExpenseName  string          `json:"expenseName"`
}

// NetBalance is a member's aggregate position for the period.
// Positive means the member is owed money, negative means the member owes.
type NetBalance struct {
	MemberID   string          `json:"memberId"`
	Name       string          `json:"name"`
	NetBalance decimal.Decimal `json:"netBalance"`
}

// Settlement is a payment instruction that clears net balances:
// From pays Amount to To.
type Settlement struct {
	FromMemberID string          `json:"fromMemberId"`
	FromName     string          `json:"fromName"`
	ToMemberID   string          `json:"toMemberId"`
	ToName       string          `json:"toName"`
	Amount       decimal.Decimal `json:"amount"` // Positive, rounded to 2dp
}

// MemberTotals aggregates one member's activity for a period.
type MemberTotals struct {
	MemberID   string          `json:"memberId"`
	Name       string          `json:"name"`
	TotalShare decimal.Decimal `json:"totalShare"` // What they should pay
	TotalPaid  decimal.Decimal `json:"totalPaid"`  // What they actually paid
	Balance    decimal.Decimal `json:"balance"`    // TotalPaid - TotalShare
}

// SummaryStats are room-level dashboard figures derived from member totals.
type SummaryStats struct {
	TotalShare     decimal.Decimal `json:"totalShare"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	TotalToReceive decimal.Decimal `json:"totalToReceive"`
	TotalToPay     decimal.Decimal `json:"totalToPay"`
}

// RecordedSettlement is a real-world payment a member reported as made.
// Unlike Settlement it is persisted; overall member balances subtract these
// from what the expense ledger alone implies.
type RecordedSettlement struct {
	SettlementID string          `json:"settlementID"` // Primary Key (e.g., UUID)
	RoomID       string          `json:"roomID"`
	FromMemberID string          `json:"fromMemberID"`
	ToMemberID   string          `json:"toMemberID"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note,omitempty"`
	AuditFields
}
