package settlement_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	"github.com/splitroomhq/splitroom_backend/internal/core/settlement"
)

var testPeriod = domain.Period{Year: 2025, Month: time.March}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func decPtr(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func roster(names ...string) []domain.Member {
	members := make([]domain.Member, len(names))
	for i, name := range names {
		members[i] = domain.Member{MemberID: "m-" + name, RoomID: "room-1", Name: name}
	}
	return members
}

func expense(id string, total float64, day int) domain.Expense {
	return domain.Expense{
		ExpenseID:   id,
		RoomID:      "room-1",
		Name:        "Expense " + id,
		TotalAmount: dec(total),
		Date:        time.Date(testPeriod.Year, testPeriod.Month, day, 12, 0, 0, 0, time.UTC),
	}
}

func equalSplit(expenseID string, memberIDs ...string) []domain.BeneficiaryEntry {
	entries := make([]domain.BeneficiaryEntry, len(memberIDs))
	for i, memberID := range memberIDs {
		entries[i] = domain.BeneficiaryEntry{ExpenseID: expenseID, MemberID: memberID}
	}
	return entries
}

func payment(expenseID, memberID string, amount float64) domain.PaymentEntry {
	return domain.PaymentEntry{ExpenseID: expenseID, MemberID: memberID, PaidAmount: dec(amount)}
}

func TestGenerateObligations_EqualSplitSinglePayer(t *testing.T) {
	// Expense total 300 split equally between X, Y, Z; X pays everything.
	members := roster("x", "y", "z")
	expenses := []domain.Expense{expense("e1", 300, 10)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": equalSplit("e1", "m-x", "m-y", "m-z"),
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-x", 300)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 2)
	for _, o := range obligations {
		assert.Equal(t, "m-x", o.ToMemberID)
		assert.Equal(t, "x", o.ToName)
		assert.Equal(t, "e1", o.ExpenseID)
		assert.True(t, dec(100).Equal(o.Amount), "amount = %s", o.Amount)
	}
	assert.Equal(t, "m-y", obligations[0].FromMemberID)
	assert.Equal(t, "m-z", obligations[1].FromMemberID)
}

func TestGenerateObligations_CustomSplitMultiplePayers(t *testing.T) {
	// Total 200 with explicit shares A=50, B=150; A paid the full amount.
	members := roster("a", "b")
	expenses := []domain.Expense{expense("e1", 200, 5)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": {
			{ExpenseID: "e1", MemberID: "m-a", ShareAmount: decPtr(50)},
			{ExpenseID: "e1", MemberID: "m-b", ShareAmount: decPtr(150)},
		},
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-a", 200)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 1)
	assert.Equal(t, "m-b", obligations[0].FromMemberID)
	assert.Equal(t, "m-a", obligations[0].ToMemberID)
	assert.True(t, dec(150).Equal(obligations[0].Amount), "amount = %s", obligations[0].Amount)
}

func TestGenerateObligations_MixedExplicitAndAbsentShares(t *testing.T) {
	// One explicit share flips the whole expense to literal mode: entries
	// without an amount get a share of 0 instead of an equal cut. The payer
	// is off the roster, so their name resolves to empty rather than the
	// entry being dropped.
	members := roster("a")
	expenses := []domain.Expense{expense("e1", 100, 5)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": {
			{ExpenseID: "e1", MemberID: "m-a", ShareAmount: decPtr(100)},
			{ExpenseID: "e1", MemberID: "m-b"},
		},
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-b", 100)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 1)
	assert.Equal(t, "m-a", obligations[0].FromMemberID)
	assert.Equal(t, "a", obligations[0].FromName)
	assert.Equal(t, "m-b", obligations[0].ToMemberID)
	assert.Equal(t, "", obligations[0].ToName)
	assert.True(t, dec(100).Equal(obligations[0].Amount), "amount = %s", obligations[0].Amount)
}

func TestGenerateObligations_FiltersByMonth(t *testing.T) {
	members := roster("a", "b")
	inMonth := expense("e1", 100, 1)
	outOfMonth := expense("e2", 100, 1)
	outOfMonth.Date = outOfMonth.Date.AddDate(0, 1, 0)
	sameMonthLastYear := expense("e3", 100, 1)
	sameMonthLastYear.Date = sameMonthLastYear.Date.AddDate(-1, 0, 0)

	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": equalSplit("e1", "m-a", "m-b"),
		"e2": equalSplit("e2", "m-a", "m-b"),
		"e3": equalSplit("e3", "m-a", "m-b"),
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-a", 100)},
		"e2": {payment("e2", "m-a", 100)},
		"e3": {payment("e3", "m-a", 100)},
	}

	obligations := settlement.GenerateObligations(
		[]domain.Expense{inMonth, outOfMonth, sameMonthLastYear},
		members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 1)
	assert.Equal(t, "e1", obligations[0].ExpenseID)
}

func TestGenerateObligations_SkipsIncompleteExpenses(t *testing.T) {
	members := roster("a", "b")
	expenses := []domain.Expense{expense("no-bens", 100, 1), expense("no-pays", 100, 2), expense("unknown", 100, 3)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"no-pays": equalSplit("no-pays", "m-a", "m-b"),
	}
	payments := map[string][]domain.PaymentEntry{
		"no-bens": {payment("no-bens", "m-a", 100)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	assert.Empty(t, obligations)
}

func TestGenerateObligations_SoleParticipantOwesNothing(t *testing.T) {
	// A person who pays for their own expense never owes themselves.
	members := roster("a")
	expenses := []domain.Expense{expense("e1", 80, 1)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{"e1": equalSplit("e1", "m-a")}
	payments := map[string][]domain.PaymentEntry{"e1": {payment("e1", "m-a", 80)}}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	assert.Empty(t, obligations)
}

func TestGenerateObligations_PaymentEntriesAccumulate(t *testing.T) {
	// Two payment entries naming the same member sum before netting.
	members := roster("a", "b")
	expenses := []domain.Expense{expense("e1", 100, 1)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{"e1": equalSplit("e1", "m-a", "m-b")}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-a", 60), payment("e1", "m-a", 40)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 1)
	assert.Equal(t, "m-b", obligations[0].FromMemberID)
	assert.True(t, dec(50).Equal(obligations[0].Amount), "amount = %s", obligations[0].Amount)
}

func TestGenerateObligations_PayerOutsideBeneficiaries(t *testing.T) {
	// C pays but shares nothing: C is a pure creditor with share 0.
	members := roster("a", "b", "c")
	expenses := []domain.Expense{expense("e1", 100, 1)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{"e1": equalSplit("e1", "m-a", "m-b")}
	payments := map[string][]domain.PaymentEntry{"e1": {payment("e1", "m-c", 100)}}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 2)
	for _, o := range obligations {
		assert.Equal(t, "m-c", o.ToMemberID)
		assert.True(t, dec(50).Equal(o.Amount), "amount = %s", o.Amount)
	}
}

func TestGenerateObligations_RoundsEmittedAmounts(t *testing.T) {
	// 100 split three ways leaves a repeating share; emitted obligations are
	// rounded to two decimals at emission time.
	members := roster("a", "b", "c")
	expenses := []domain.Expense{expense("e1", 100, 1)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{"e1": equalSplit("e1", "m-a", "m-b", "m-c")}
	payments := map[string][]domain.PaymentEntry{"e1": {payment("e1", "m-a", 100)}}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, obligations, 2)
	for _, o := range obligations {
		assert.True(t, dec(33.33).Equal(o.Amount), "amount = %s", o.Amount)
		assert.True(t, o.Amount.Equal(o.Amount.Round(2)))
	}
}

func TestCompressToNetBalances_Conservation(t *testing.T) {
	members := roster("a", "b", "c", "idle")
	expenses := []domain.Expense{expense("e1", 300, 1), expense("e2", 90, 2)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": equalSplit("e1", "m-a", "m-b", "m-c"),
		"e2": equalSplit("e2", "m-b", "m-c"),
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-a", 300)},
		"e2": {payment("e2", "m-c", 90)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)
	balances := settlement.CompressToNetBalances(obligations, members)

	require.Len(t, balances, 4)
	assert.True(t, balances["m-idle"].NetBalance.IsZero())

	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.NetBalance)
	}
	assert.True(t, sum.Abs().LessThan(dec(0.01)), "sum = %s", sum)
}

func TestCompressToNetBalances_CycleCancellation(t *testing.T) {
	// A pays 100 for A+B, then B pays 100 for A+B in the same month: the two
	// 50-unit obligations cancel and nobody owes anything.
	members := roster("a", "b")
	expenses := []domain.Expense{expense("e1", 100, 1), expense("e2", 100, 15)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{
		"e1": equalSplit("e1", "m-a", "m-b"),
		"e2": equalSplit("e2", "m-a", "m-b"),
	}
	payments := map[string][]domain.PaymentEntry{
		"e1": {payment("e1", "m-a", 100)},
		"e2": {payment("e2", "m-b", 100)},
	}

	obligations := settlement.GenerateObligations(expenses, members, beneficiaries, payments, testPeriod)
	require.Len(t, obligations, 2)

	balances := settlement.CompressToNetBalances(obligations, members)
	assert.True(t, balances["m-a"].NetBalance.IsZero())
	assert.True(t, balances["m-b"].NetBalance.IsZero())

	settlements := settlement.CalculateSettlementsFromBalances(balances)
	assert.Empty(t, settlements)
}

func TestCompressToNetBalances_IgnoresUnknownMembers(t *testing.T) {
	members := roster("a")
	obligations := []domain.Obligation{
		{FromMemberID: "m-ghost", ToMemberID: "m-a", Amount: dec(10)},
		{FromMemberID: "m-a", ToMemberID: "m-ghost2", Amount: dec(4)},
	}

	balances := settlement.CompressToNetBalances(obligations, members)

	require.Len(t, balances, 1)
	assert.True(t, dec(6).Equal(balances["m-a"].NetBalance), "balance = %s", balances["m-a"].NetBalance)
}

func balancesOf(pairs map[string]float64) map[string]domain.NetBalance {
	balances := make(map[string]domain.NetBalance, len(pairs))
	for memberID, amount := range pairs {
		balances[memberID] = domain.NetBalance{MemberID: memberID, Name: memberID, NetBalance: dec(amount)}
	}
	return balances
}

func TestCalculateSettlements_ThreeWayMinimal(t *testing.T) {
	// One creditor absorbs two debtors: exactly two payments, largest debt first.
	balances := balancesOf(map[string]float64{"a": 300, "b": -100, "c": -200})

	settlements := settlement.CalculateSettlementsFromBalances(balances)

	require.Len(t, settlements, 2)
	assert.Equal(t, "c", settlements[0].FromMemberID)
	assert.Equal(t, "a", settlements[0].ToMemberID)
	assert.True(t, dec(200).Equal(settlements[0].Amount), "amount = %s", settlements[0].Amount)
	assert.Equal(t, "b", settlements[1].FromMemberID)
	assert.Equal(t, "a", settlements[1].ToMemberID)
	assert.True(t, dec(100).Equal(settlements[1].Amount), "amount = %s", settlements[1].Amount)
}

func TestCalculateSettlements_ZeroCase(t *testing.T) {
	balances := balancesOf(map[string]float64{"a": 0, "b": 0.004, "c": -0.004})

	settlements := settlement.CalculateSettlementsFromBalances(balances)

	assert.Empty(t, settlements)
}

func TestCalculateSettlements_Minimality(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]float64
	}{
		{"one creditor two debtors", map[string]float64{"a": 300, "b": -100, "c": -200}},
		{"two creditors two debtors", map[string]float64{"a": 70, "b": 30, "c": -60, "d": -40}},
		{"chain of five", map[string]float64{"a": 90, "b": 10, "c": -25, "d": -35, "e": -40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creditorCount, debtorCount := 0, 0
			for _, v := range tt.balances {
				if v > 0 {
					creditorCount++
				} else if v < 0 {
					debtorCount++
				}
			}

			settlements := settlement.CalculateSettlementsFromBalances(balancesOf(tt.balances))
			assert.LessOrEqual(t, len(settlements), creditorCount+debtorCount-1)

			// Every balance is fully routed: per-member settled totals match
			// the magnitude of the member's net balance.
			routed := make(map[string]decimal.Decimal)
			for _, s := range settlements {
				routed[s.FromMemberID] = routed[s.FromMemberID].Sub(s.Amount)
				routed[s.ToMemberID] = routed[s.ToMemberID].Add(s.Amount)
			}
			for memberID, balance := range tt.balances {
				assert.True(t, routed[memberID].Sub(dec(balance)).Abs().LessThan(dec(0.01)),
					"member %s routed %s want %v", memberID, routed[memberID], balance)
			}
		})
	}
}

func TestCalculateSettlements_Idempotent(t *testing.T) {
	balances := balancesOf(map[string]float64{"a": 120.5, "b": -20.5, "c": -100, "d": 0})

	first := settlement.CalculateSettlementsFromBalances(balances)
	second := settlement.CalculateSettlementsFromBalances(balances)

	assert.Equal(t, first, second)
}

func TestCalculateSettlements_DeterministicTieBreak(t *testing.T) {
	// Equal amounts on both sides: ordering falls back to member ID, so
	// repeated runs over the same map always pair the same members.
	balances := balancesOf(map[string]float64{"c2": 50, "c1": 50, "d2": -50, "d1": -50})

	for range 10 {
		settlements := settlement.CalculateSettlementsFromBalances(balances)
		require.Len(t, settlements, 2)
		assert.Equal(t, "d1", settlements[0].FromMemberID)
		assert.Equal(t, "c1", settlements[0].ToMemberID)
		assert.Equal(t, "d2", settlements[1].FromMemberID)
		assert.Equal(t, "c2", settlements[1].ToMemberID)
	}
}

func TestCalculateFull_EqualSplitScenario(t *testing.T) {
	members := roster("x", "y", "z")
	expenses := []domain.Expense{expense("e1", 300, 10)}
	beneficiaries := map[string][]domain.BeneficiaryEntry{"e1": equalSplit("e1", "m-x", "m-y", "m-z")}
	payments := map[string][]domain.PaymentEntry{"e1": {payment("e1", "m-x", 300)}}

	result := settlement.CalculateFull(expenses, members, beneficiaries, payments, testPeriod)

	require.Len(t, result.Obligations, 2)
	assert.True(t, dec(200).Equal(result.NetBalances["m-x"].NetBalance))
	assert.True(t, dec(-100).Equal(result.NetBalances["m-y"].NetBalance))
	assert.True(t, dec(-100).Equal(result.NetBalances["m-z"].NetBalance))

	require.Len(t, result.Settlements, 2)
	for _, s := range result.Settlements {
		assert.Equal(t, "m-x", s.ToMemberID)
		assert.True(t, dec(100).Equal(s.Amount))
	}
}
