package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
)

const expenseColumns = `expense_id, room_id, name, total_amount, date, created_at, created_by, last_updated_at, last_updated_by`

type PgxExpenseRepository struct {
	BaseRepository
}

func newPgxExpenseRepository(db *pgxpool.Pool) portsrepo.ExpenseRepositoryWithTx {
	return &PgxExpenseRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxExpenseRepository implements portsrepo.ExpenseRepositoryWithTx
var _ portsrepo.ExpenseRepositoryWithTx = (*PgxExpenseRepository)(nil)

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var expense domain.Expense
	err := row.Scan(
		&expense.ExpenseID,
		&expense.RoomID,
		&expense.Name,
		&expense.TotalAmount,
		&expense.Date,
		&expense.CreatedAt,
		&expense.CreatedBy,
		&expense.LastUpdatedAt,
		&expense.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// insertEntries queues beneficiary and payment inserts onto a batch.
func insertEntries(batch *pgx.Batch, expenseID string, beneficiaries []domain.BeneficiaryEntry, payments []domain.PaymentEntry) {
	beneficiaryQuery := `
		INSERT INTO expense_beneficiaries (expense_id, member_id, share_amount)
		VALUES ($1, $2, $3);
	`
	for _, b := range beneficiaries {
		batch.Queue(beneficiaryQuery, expenseID, b.MemberID, b.ShareAmount)
	}
	paymentQuery := `
		INSERT INTO expense_payments (expense_id, member_id, paid_amount)
		VALUES ($1, $2, $3);
	`
	for _, p := range payments {
		batch.Queue(paymentQuery, expenseID, p.MemberID, p.PaidAmount)
	}
}

func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense, beneficiaries []domain.BeneficiaryEntry, payments []domain.PaymentEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
        INSERT INTO expenses (expense_id, room_id, name, total_amount, date, created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
	_, err = tx.Exec(ctx, query,
		expense.ExpenseID,
		expense.RoomID,
		expense.Name,
		expense.TotalAmount,
		expense.Date,
		expense.CreatedAt,
		expense.CreatedBy,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.NewValidationFailedError("room or member does not exist")
		}
		return fmt.Errorf("failed to insert expense %s: %w", expense.ExpenseID, err)
	}

	batch := &pgx.Batch{}
	insertEntries(batch, expense.ExpenseID, beneficiaries, payments)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.NewValidationFailedError("member does not exist")
		}
		return fmt.Errorf("failed to insert expense entries: %w", err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxExpenseRepository) UpdateExpense(ctx context.Context, expense domain.Expense, beneficiaries []domain.BeneficiaryEntry, payments []domain.PaymentEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
        UPDATE expenses
        SET name = $1, total_amount = $2, date = $3, last_updated_at = $4, last_updated_by = $5
        WHERE expense_id = $6;
    `
	cmdTag, err := tx.Exec(ctx, query,
		expense.Name,
		expense.TotalAmount,
		expense.Date,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
		expense.ExpenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update expense query: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found: %w", apperrors.ErrNotFound)
	}

	// Replace the entry collections wholesale.
	if _, err := tx.Exec(ctx, `DELETE FROM expense_beneficiaries WHERE expense_id = $1;`, expense.ExpenseID); err != nil {
		return fmt.Errorf("failed to clear expense beneficiaries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM expense_payments WHERE expense_id = $1;`, expense.ExpenseID); err != nil {
		return fmt.Errorf("failed to clear expense payments: %w", err)
	}

	batch := &pgx.Batch{}
	insertEntries(batch, expense.ExpenseID, beneficiaries, payments)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.NewValidationFailedError("member does not exist")
		}
		return fmt.Errorf("failed to insert expense entries: %w", err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxExpenseRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM expense_beneficiaries WHERE expense_id = $1;`, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense beneficiaries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM expense_payments WHERE expense_id = $1;`, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense payments: %w", err)
	}
	cmdTag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE expense_id = $1;`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense %s: %w", expenseID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found: %w", apperrors.ErrNotFound)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM expenses
		WHERE expense_id = $1;
	`, expenseColumns)
	expense, err := scanExpense(r.Pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find expense by ID %s: %w", expenseID, err)
	}
	return expense, nil
}

func (r *PgxExpenseRepository) ListExpensesByRoomID(ctx context.Context, roomID string, limit int, offset int) ([]domain.Expense, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
        SELECT %s
        FROM expenses
        WHERE room_id = $1
        ORDER BY date DESC, created_at DESC
        LIMIT $2 OFFSET $3;
    `, expenseColumns)
	rows, err := r.Pool.Query(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses for room %s: %w", roomID, err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func (r *PgxExpenseRepository) ListExpensesByDateRange(ctx context.Context, roomID string, start, end time.Time) ([]domain.Expense, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM expenses
        WHERE room_id = $1 AND date >= $2 AND date < $3
        ORDER BY date ASC, created_at ASC;
    `, expenseColumns)
	rows, err := r.Pool.Query(ctx, query, roomID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by date range: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func collectExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}
	return expenses, nil
}

func (r *PgxExpenseRepository) FindBeneficiariesByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]domain.BeneficiaryEntry, error) {
	result := make(map[string][]domain.BeneficiaryEntry)
	if len(expenseIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT expense_id, member_id, share_amount
        FROM expense_beneficiaries
        WHERE expense_id = ANY($1);
    `
	rows, err := r.Pool.Query(ctx, query, expenseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense beneficiaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.BeneficiaryEntry
		if err := rows.Scan(&entry.ExpenseID, &entry.MemberID, &entry.ShareAmount); err != nil {
			return nil, fmt.Errorf("failed to scan beneficiary row: %w", err)
		}
		result[entry.ExpenseID] = append(result[entry.ExpenseID], entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating beneficiary rows: %w", rows.Err())
	}

	return result, nil
}

func (r *PgxExpenseRepository) FindPaymentsByExpenseIDs(ctx context.Context, expenseIDs []string) (map[string][]domain.PaymentEntry, error) {
	result := make(map[string][]domain.PaymentEntry)
	if len(expenseIDs) == 0 {
		return result, nil
	}

	query := `
        SELECT expense_id, member_id, paid_amount
        FROM expense_payments
        WHERE expense_id = ANY($1);
    `
	rows, err := r.Pool.Query(ctx, query, expenseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.PaymentEntry
		if err := rows.Scan(&entry.ExpenseID, &entry.MemberID, &entry.PaidAmount); err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		result[entry.ExpenseID] = append(result[entry.ExpenseID], entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", rows.Err())
	}

	return result, nil
}
