package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// MonthlyTotals aggregates each member's share, payments, and resulting
// balance for one calendar month. Every roster member appears, zero-valued if
// inactive. Expenses without beneficiaries are skipped entirely, matching
// obligation generation. Figures are rounded to two decimals.
func MonthlyTotals(
	expenses []domain.Expense,
	members []domain.Member,
	beneficiaries map[string][]domain.BeneficiaryEntry,
	payments map[string][]domain.PaymentEntry,
	period domain.Period,
) map[string]domain.MemberTotals {
	return accumulateTotals(expenses, members, beneficiaries, payments, period.Contains)
}

// OverallTotals aggregates each member's share, payments, and balance across
// the room's entire history, with no period filter.
func OverallTotals(
	expenses []domain.Expense,
	members []domain.Member,
	beneficiaries map[string][]domain.BeneficiaryEntry,
	payments map[string][]domain.PaymentEntry,
) map[string]domain.MemberTotals {
	return accumulateTotals(expenses, members, beneficiaries, payments, nil)
}

func accumulateTotals(
	expenses []domain.Expense,
	members []domain.Member,
	beneficiaries map[string][]domain.BeneficiaryEntry,
	payments map[string][]domain.PaymentEntry,
	include func(time.Time) bool,
) map[string]domain.MemberTotals {
	totals := make(map[string]domain.MemberTotals, len(members))
	for _, m := range members {
		totals[m.MemberID] = domain.MemberTotals{
			MemberID:   m.MemberID,
			Name:       m.Name,
			TotalShare: decimal.Zero,
			TotalPaid:  decimal.Zero,
			Balance:    decimal.Zero,
		}
	}

	for _, expense := range expenses {
		if include != nil && !include(expense.Date) {
			continue
		}
		expBeneficiaries := beneficiaries[expense.ExpenseID]
		if len(expBeneficiaries) == 0 {
			continue
		}

		for memberID, share := range sharesForExpense(expense, expBeneficiaries) {
			if t, ok := totals[memberID]; ok {
				t.TotalShare = t.TotalShare.Add(share)
				totals[memberID] = t
			}
		}
		for memberID, paid := range paidForExpense(payments[expense.ExpenseID]) {
			if t, ok := totals[memberID]; ok {
				t.TotalPaid = t.TotalPaid.Add(paid)
				totals[memberID] = t
			}
		}
	}

	for memberID, t := range totals {
		t.TotalShare = t.TotalShare.Round(2)
		t.TotalPaid = t.TotalPaid.Round(2)
		t.Balance = t.TotalPaid.Sub(t.TotalShare).Round(2)
		totals[memberID] = t
	}

	return totals
}

// RoomTotal sums expense totals for the period.
func RoomTotal(expenses []domain.Expense, period domain.Period) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		if period.Contains(expense.Date) {
			total = total.Add(expense.TotalAmount)
		}
	}
	return total.Round(2)
}

// Summarize derives room-level dashboard figures from member totals.
func Summarize(totals map[string]domain.MemberTotals) domain.SummaryStats {
	stats := domain.SummaryStats{
		TotalShare:     decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalToReceive: decimal.Zero,
		TotalToPay:     decimal.Zero,
	}
	for _, t := range totals {
		stats.TotalShare = stats.TotalShare.Add(t.TotalShare)
		stats.TotalPaid = stats.TotalPaid.Add(t.TotalPaid)
		if t.Balance.GreaterThan(decimal.Zero) {
			stats.TotalToReceive = stats.TotalToReceive.Add(t.Balance)
		} else if t.Balance.LessThan(decimal.Zero) {
			stats.TotalToPay = stats.TotalToPay.Add(t.Balance.Neg())
		}
	}
	stats.TotalShare = stats.TotalShare.Round(2)
	stats.TotalPaid = stats.TotalPaid.Round(2)
	stats.TotalToReceive = stats.TotalToReceive.Round(2)
	stats.TotalToPay = stats.TotalToPay.Round(2)
	return stats
}
