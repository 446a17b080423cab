// Package settlement turns raw expense records into a ledger of pairwise
// obligations, compressed net balances per member, and a minimal set of
// payment instructions that clears every balance.
//
// The three stages form a strict pipeline:
//
//	GenerateObligations -> CompressToNetBalances -> CalculateSettlementsFromBalances
//
// Every function is a pure computation over in-memory snapshots: no I/O, no
// retained state, safe to invoke concurrently on independent inputs.
package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// epsilon is the comparison threshold for two-decimal currency. Amounts within
// epsilon of zero are treated as settled.
var epsilon = decimal.New(1, -2) // 0.01

// party is one side of a greedy match: a member with an outstanding amount.
// remaining is always a positive magnitude regardless of side.
type party struct {
	memberID  string
	name      string
	remaining decimal.Decimal
}

// sortPartiesDesc orders parties largest-remaining first. Ties break on member
// ID so the output is reproducible regardless of map iteration order.
func sortPartiesDesc(parties []party) {
	sort.Slice(parties, func(i, j int) bool {
		if !parties[i].remaining.Equal(parties[j].remaining) {
			return parties[i].remaining.GreaterThan(parties[j].remaining)
		}
		return parties[i].memberID < parties[j].memberID
	})
}

// matchGreedy runs the two-pointer greedy transfer between creditors and
// debtors, both sorted largest first. emit is called once per transfer that
// exceeds epsilon, with the amount rounded to two decimals. The pointer on a
// side advances once its head is within epsilon of zero; both advance when
// both resolve in the same step.
func matchGreedy(creditors, debtors []party, emit func(creditor, debtor party, amount decimal.Decimal)) {
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := decimal.Min(creditor.remaining, debtor.remaining)
		if amount.GreaterThan(epsilon) {
			emit(*creditor, *debtor, amount.Round(2))
		}

		creditor.remaining = creditor.remaining.Sub(amount)
		debtor.remaining = debtor.remaining.Sub(amount)

		if creditor.remaining.LessThan(epsilon) {
			i++
		}
		if debtor.remaining.LessThan(epsilon) {
			j++
		}
	}
}

// memberNames builds the id -> display name lookup used when emitting derived
// structures. Participants outside the roster resolve to an empty name rather
// than failing.
func memberNames(members []domain.Member) map[string]string {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.MemberID] = m.Name
	}
	return names
}

// sharesForExpense computes each beneficiary's share of an expense.
// If any entry carries an explicit amount, every entry's amount is taken
// literally (absent values count as zero); otherwise the total is split
// equally among all beneficiaries. The two modes are mutually exclusive per
// expense.
func sharesForExpense(expense domain.Expense, beneficiaries []domain.BeneficiaryEntry) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(beneficiaries))

	explicit := false
	for _, b := range beneficiaries {
		if b.ShareAmount != nil {
			explicit = true
			break
		}
	}

	if explicit {
		for _, b := range beneficiaries {
			share := decimal.Zero
			if b.ShareAmount != nil {
				share = *b.ShareAmount
			}
			shares[b.MemberID] = shares[b.MemberID].Add(share)
		}
		return shares
	}

	equalShare := expense.TotalAmount.Div(decimal.NewFromInt(int64(len(beneficiaries))))
	for _, b := range beneficiaries {
		shares[b.MemberID] = shares[b.MemberID].Add(equalShare)
	}
	return shares
}

// paidForExpense sums payment entries per member. Multiple entries naming the
// same member accumulate.
func paidForExpense(payments []domain.PaymentEntry) map[string]decimal.Decimal {
	paid := make(map[string]decimal.Decimal, len(payments))
	for _, p := range payments {
		paid[p.MemberID] = paid[p.MemberID].Add(p.PaidAmount)
	}
	return paid
}

// GenerateObligations derives the pairwise obligation ledger for a single
// calendar month. Each expense is processed independently: every participant's
// net position (paid minus share) is computed, participants are partitioned
// into creditors and debtors, and a largest-first greedy match decides which
// debtor pays which creditor for this expense.
//
// Expenses outside the period, or with no beneficiaries or no payments, are
// skipped. Missing lookups degrade to "no obligation" rather than erroring.
func GenerateObligations(
	expenses []domain.Expense,
	members []domain.Member,
	beneficiaries map[string][]domain.BeneficiaryEntry,
	payments map[string][]domain.PaymentEntry,
	period domain.Period,
) []domain.Obligation {
	obligations := make([]domain.Obligation, 0)
	names := memberNames(members)

	for _, expense := range expenses {
		if !period.Contains(expense.Date) {
			continue
		}

		expBeneficiaries := beneficiaries[expense.ExpenseID]
		expPayments := payments[expense.ExpenseID]
		if len(expBeneficiaries) == 0 || len(expPayments) == 0 {
			continue
		}

		shares := sharesForExpense(expense, expBeneficiaries)
		paid := paidForExpense(expPayments)

		// net = paid - share over the union of participants. Payers who are
		// not beneficiaries have share 0; beneficiaries who paid nothing have
		// paid 0. Nets sum to zero per expense by construction whenever
		// payments cover exactly the shares.
		nets := make(map[string]decimal.Decimal, len(shares)+len(paid))
		for memberID, share := range shares {
			nets[memberID] = nets[memberID].Sub(share)
		}
		for memberID, amount := range paid {
			nets[memberID] = nets[memberID].Add(amount)
		}

		var creditors, debtors []party
		for memberID, net := range nets {
			switch {
			case net.GreaterThan(epsilon):
				creditors = append(creditors, party{memberID: memberID, name: names[memberID], remaining: net})
			case net.LessThan(epsilon.Neg()):
				debtors = append(debtors, party{memberID: memberID, name: names[memberID], remaining: net.Neg()})
			}
		}

		sortPartiesDesc(creditors)
		sortPartiesDesc(debtors)

		matchGreedy(creditors, debtors, func(creditor, debtor party, amount decimal.Decimal) {
			obligations = append(obligations, domain.Obligation{
				FromMemberID: debtor.memberID,
				FromName:     debtor.name,
				ToMemberID:   creditor.memberID,
				ToName:       creditor.name,
				Amount:       amount,
				ExpenseID:    expense.ExpenseID,
				ExpenseName:  expense.Name,
			})
		})
	}

	return obligations
}

// CompressToNetBalances reduces an obligation ledger to one net balance per
// member. Every roster member starts at zero, including members with no
// activity. Each obligation debits its debtor and credits its creditor by the
// same amount, so transitive chains and cycles cancel and the balances sum to
// zero. Obligations referencing unknown member IDs contribute nothing for that
// side.
func CompressToNetBalances(obligations []domain.Obligation, members []domain.Member) map[string]domain.NetBalance {
	balances := make(map[string]domain.NetBalance, len(members))
	for _, m := range members {
		balances[m.MemberID] = domain.NetBalance{
			MemberID:   m.MemberID,
			Name:       m.Name,
			NetBalance: decimal.Zero,
		}
	}

	for _, obligation := range obligations {
		if debtor, ok := balances[obligation.FromMemberID]; ok {
			debtor.NetBalance = debtor.NetBalance.Sub(obligation.Amount)
			balances[obligation.FromMemberID] = debtor
		}
		if creditor, ok := balances[obligation.ToMemberID]; ok {
			creditor.NetBalance = creditor.NetBalance.Add(obligation.Amount)
			balances[obligation.ToMemberID] = creditor
		}
	}

	for memberID, balance := range balances {
		balance.NetBalance = balance.NetBalance.Round(2)
		balances[memberID] = balance
	}

	return balances
}

// CalculateSettlementsFromBalances emits the minimal set of direct
// debtor-to-creditor payments that zeroes every net balance. Members within
// epsilon of zero are already settled and excluded. With C creditors and D
// debtors the plan contains at most C+D-1 payments, since every greedy step
// fully resolves at least one party.
func CalculateSettlementsFromBalances(balances map[string]domain.NetBalance) []domain.Settlement {
	settlements := make([]domain.Settlement, 0)

	var creditors, debtors []party
	for _, balance := range balances {
		switch {
		case balance.NetBalance.GreaterThan(epsilon):
			creditors = append(creditors, party{memberID: balance.MemberID, name: balance.Name, remaining: balance.NetBalance})
		case balance.NetBalance.LessThan(epsilon.Neg()):
			debtors = append(debtors, party{memberID: balance.MemberID, name: balance.Name, remaining: balance.NetBalance.Neg()})
		}
	}

	sortPartiesDesc(creditors)
	sortPartiesDesc(debtors)

	matchGreedy(creditors, debtors, func(creditor, debtor party, amount decimal.Decimal) {
		settlements = append(settlements, domain.Settlement{
			FromMemberID: debtor.memberID,
			FromName:     debtor.name,
			ToMemberID:   creditor.memberID,
			ToName:       creditor.name,
			Amount:       amount,
		})
	})

	return settlements
}

// Result bundles the output of all three pipeline stages for one period.
type Result struct {
	Obligations []domain.Obligation          `json:"obligations"`
	NetBalances map[string]domain.NetBalance `json:"netBalances"`
	Settlements []domain.Settlement          `json:"settlements"`
}

// CalculateFull runs the complete pipeline: obligation ledger, net balance
// compression, minimal settlement plan.
func CalculateFull(
	expenses []domain.Expense,
	members []domain.Member,
	beneficiaries map[string][]domain.BeneficiaryEntry,
	payments map[string][]domain.PaymentEntry,
	period domain.Period,
) Result {
	obligations := GenerateObligations(expenses, members, beneficiaries, payments, period)
	balances := CompressToNetBalances(obligations, members)
	settlements := CalculateSettlementsFromBalances(balances)
	return Result{
		Obligations: obligations,
		NetBalances: balances,
		Settlements: settlements,
	}
}
