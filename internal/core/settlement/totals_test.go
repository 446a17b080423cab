package settlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	"github.com/splitroomhq/splitroom_backend/internal/core/settlement"
)

func TestMonthlyTotals(t *testing.T) {
	members := roster("a", "b", "idle")
	expenses := []domain.Expense{expense("e1", 300, 3), expense("e2", 100, 20)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": equalSplit("e1", "m-a", "m-b"),
		"e2": {
			{ExpenseID: "e2", MemberID: "m-a", ShareAmount: decPtr(25)},
			{ExpenseID: "e2", MemberID: "m-b", ShareAmount: decPtr(75)},
		},
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-a", 300)},
		"e2": {payment("e2", "m-b", 100)},
	}

	totals := settlement.MonthlyTotals(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, totals, 3)

	// a: share 150 + 25, paid 300
	assert.True(t, dec(175).Equal(totals["m-a"].TotalShare), "share = %s", totals["m-a"].TotalShare)
	assert.True(t, dec(300).Equal(totals["m-a"].TotalPaid))
	assert.True(t, dec(125).Equal(totals["m-a"].Balance))

	// b: share 150 + 75, paid 100
	assert.True(t, dec(225).Equal(totals["m-b"].TotalShare))
	assert.True(t, dec(100).Equal(totals["m-b"].TotalPaid))
	assert.True(t, dec(-125).Equal(totals["m-b"].Balance))

	assert.True(t, totals["m-idle"].Balance.IsZero())
}

func TestMonthlyTotals_SkipsExpenseWithoutBeneficiaries(t *testing.T) {
	members := roster("a")
	expenses := []domain.Expense{expense("e1", 50, 3)}
	payments := map[string][]domain.PaymentEntry{"e1": {payment("e1", "m-a", 50)}}

	totals := settlement.MonthlyTotals(expenses, members, nil, payments, testPeriod)

	assert.True(t, totals["m-a"].TotalPaid.IsZero())
	assert.True(t, totals["m-a"].TotalShare.IsZero())
}

func TestRoomTotal(t *testing.T) {
	outOfMonth := expense("e3", 999, 1)
	outOfMonth.Date = outOfMonth.Date.AddDate(0, -1, 0)
	expenses := []domain.Expense{expense("e1", 120.5, 1), expense("e2", 79.5, 28), outOfMonth}

	total := settlement.RoomTotal(expenses, testPeriod)

	assert.True(t, dec(200).Equal(total), "total = %s", total)
}

func TestSummarize(t *testing.T) {
	totals := map[string]domain.MemberTotals{
		"m-a": {MemberID: "m-a", TotalShare: dec(175), TotalPaid: dec(300), Balance: dec(125)},
		"m-b": {MemberID: "m-b", TotalShare: dec(225), TotalPaid: dec(100), Balance: dec(-125)},
		"m-c": {MemberID: "m-c"},
	}

	stats := settlement.Summarize(totals)

	assert.True(t, dec(400).Equal(stats.TotalShare))
	assert.True(t, dec(400).Equal(stats.TotalPaid))
	assert.True(t, dec(125).Equal(stats.TotalToReceive))
	assert.True(t, dec(125).Equal(stats.TotalToPay))
}
