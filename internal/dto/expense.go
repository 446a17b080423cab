package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// --- Expense DTOs ---

// BeneficiaryInput names a roster member sharing in an expense. ShareAmount is
// omitted for an equal split; when any beneficiary of an expense carries an
// explicit amount, every beneficiary's amount is taken literally.
type BeneficiaryInput struct {
	MemberID    string           `json:"memberID" binding:"required"`
	ShareAmount *decimal.Decimal `json:"shareAmount,omitempty"`
}

// PaymentInput records how much a roster member actually paid.
type PaymentInput struct {
	MemberID   string          `json:"memberID" binding:"required"`
	PaidAmount decimal.Decimal `json:"paidAmount" binding:"required"`
}

// CreateExpenseRequest defines data for recording a new expense.
type CreateExpenseRequest struct {
	Name          string             `json:"name" binding:"required,max=200"`
	TotalAmount   decimal.Decimal    `json:"totalAmount" binding:"required"`
	Date          time.Time          `json:"date" binding:"required"`
	Beneficiaries []BeneficiaryInput `json:"beneficiaries" binding:"required,min=1,dive"`
	Payments      []PaymentInput     `json:"payments" binding:"required,min=1,dive"`
}

// UpdateExpenseRequest replaces an expense's details and entries wholesale.
type UpdateExpenseRequest struct {
	Name          string             `json:"name" binding:"required,max=200"`
	TotalAmount   decimal.Decimal    `json:"totalAmount" binding:"required"`
	Date          time.Time          `json:"date" binding:"required"`
	Beneficiaries []BeneficiaryInput `json:"beneficiaries" binding:"required,min=1,dive"`
	Payments      []PaymentInput     `json:"payments" binding:"required,min=1,dive"`
}

// ListExpensesParams defines query parameters for listing expenses.
type ListExpensesParams struct {
	Limit  int `form:"limit,default=50"`
	Offset int `form:"offset,default=0"`
}

// ExpenseResponse defines the summary data returned for an expense.
type ExpenseResponse struct {
	ExpenseID     string          `json:"expenseID"`
	RoomID        string          `json:"roomID"`
	Name          string          `json:"name"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"` // UserID
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy string          `json:"lastUpdatedBy"` // UserID
}

// ToExpenseResponse converts domain.Expense to DTO.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:     e.ExpenseID,
		RoomID:        e.RoomID,
		Name:          e.Name,
		TotalAmount:   e.TotalAmount,
		Date:          e.Date,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
		LastUpdatedAt: e.LastUpdatedAt,
		LastUpdatedBy: e.LastUpdatedBy,
	}
}

// BeneficiaryResponse is one beneficiary entry of an expense.
type BeneficiaryResponse struct {
	MemberID    string           `json:"memberID"`
	ShareAmount *decimal.Decimal `json:"shareAmount,omitempty"`
}

// PaymentResponse is one payment entry of an expense.
type PaymentResponse struct {
	MemberID   string          `json:"memberID"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

// ExpenseDetailsResponse is an expense with its entry collections.
type ExpenseDetailsResponse struct {
	ExpenseResponse
	Beneficiaries []BeneficiaryResponse `json:"beneficiaries"`
	Payments      []PaymentResponse     `json:"payments"`
}

// ToExpenseDetailsResponse converts domain.ExpenseDetails to DTO.
func ToExpenseDetailsResponse(d *domain.ExpenseDetails) ExpenseDetailsResponse {
	beneficiaries := make([]BeneficiaryResponse, len(d.Beneficiaries))
	for i, b := range d.Beneficiaries {
		beneficiaries[i] = BeneficiaryResponse{
			MemberID:    b.MemberID,
			ShareAmount: b.ShareAmount,
		}
	}
	payments := make([]PaymentResponse, len(d.Payments))
	for i, p := range d.Payments {
		payments[i] = PaymentResponse{
			MemberID:   p.MemberID,
			PaidAmount: p.PaidAmount,
		}
	}
	return ExpenseDetailsResponse{
		ExpenseResponse: ToExpenseResponse(&d.Expense),
		Beneficiaries:   beneficiaries,
		Payments:        payments,
	}
}

// ListExpensesResponse wraps a list of expenses.
type ListExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
}

// ToListExpensesResponse converts a slice of domain.Expense to DTO.
func ToListExpensesResponse(es []domain.Expense) ListExpensesResponse {
	list := make([]ExpenseResponse, len(es))
	for i, e := range es {
		list[i] = ToExpenseResponse(&e)
	}
	return ListExpensesResponse{Expenses: list}
}
