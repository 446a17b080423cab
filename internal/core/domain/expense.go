package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single purchase event within a room. Who shares the cost and
// who actually paid are recorded as separate entry collections.
type Expense struct {
	ExpenseID   string          `json:"expenseID"` // Primary Key (e.g., UUID)
	RoomID      string          `json:"roomID"`
	Name        string          `json:"name"`        // Display name, e.g. "Groceries"
	TotalAmount decimal.Decimal `json:"totalAmount"` // Non-negative
	Date        time.Time       `json:"date"`        // Occurrence date, normalized at ingestion
	AuditFields
}

// BeneficiaryEntry marks a member as sharing in an expense's cost.
// ShareAmount is nil for an equal split; if any entry on an expense carries an
// explicit amount, every entry's amount is taken literally.
type BeneficiaryEntry struct {
	ExpenseID   string           `json:"expenseID"`
	MemberID    string           `json:"memberID"`
	ShareAmount *decimal.Decimal `json:"shareAmount,omitempty"`
}

// PaymentEntry records money a member actually put toward an expense.
// Multiple entries for the same member accumulate.
type PaymentEntry struct {
	ExpenseID  string          `json:"expenseID"`
	MemberID   string          `json:"memberID"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

// ExpenseDetails is an expense together with its entry collections, as loaded
// for display or editing.
type ExpenseDetails struct {
	Expense
	Beneficiaries []BeneficiaryEntry `json:"beneficiaries"`
	Payments      []PaymentEntry     `json:"payments"`
}
