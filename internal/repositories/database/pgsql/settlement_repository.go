package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
)

const settlementColumns = `settlement_id, room_id, from_member_id, to_member_id, amount, note, created_at, created_by, last_updated_at, last_updated_by`

type PgxSettlementRepository struct {
	db *pgxpool.Pool
}

func newPgxSettlementRepository(db *pgxpool.Pool) portsrepo.SettlementRepositoryFacade {
	return &PgxSettlementRepository{db: db}
}

// Ensure PgxSettlementRepository implements portsrepo.SettlementRepositoryFacade
var _ portsrepo.SettlementRepositoryFacade = (*PgxSettlementRepository)(nil)

func scanSettlement(row pgx.Row) (*domain.RecordedSettlement, error) {
	var settlement domain.RecordedSettlement
	err := row.Scan(
		&settlement.SettlementID,
		&settlement.RoomID,
		&settlement.FromMemberID,
		&settlement.ToMemberID,
		&settlement.Amount,
		&settlement.Note,
		&settlement.CreatedAt,
		&settlement.CreatedBy,
		&settlement.LastUpdatedAt,
		&settlement.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *PgxSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.RecordedSettlement) error {
	query := `
        INSERT INTO settlements (settlement_id, room_id, from_member_id, to_member_id, amount, note,
            created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
    `
	_, err := r.db.Exec(ctx, query,
		settlement.SettlementID,
		settlement.RoomID,
		settlement.FromMemberID,
		settlement.ToMemberID,
		settlement.Amount,
		settlement.Note,
		settlement.CreatedAt,
		settlement.CreatedBy,
		settlement.LastUpdatedAt,
		settlement.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return apperrors.NewConflictError("settlement already exists")
			}
			if pgErr.Code == "23503" {
				return apperrors.NewValidationFailedError("room or member does not exist")
			}
		}
		return fmt.Errorf("failed to save settlement: %w", err)
	}
	return nil
}

func (r *PgxSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.RecordedSettlement, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM settlements
		WHERE settlement_id = $1;
	`, settlementColumns)
	settlement, err := scanSettlement(r.db.QueryRow(ctx, query, settlementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find settlement by ID %s: %w", settlementID, err)
	}
	return settlement, nil
}

func (r *PgxSettlementRepository) ListSettlementsByRoomID(ctx context.Context, roomID string) ([]domain.RecordedSettlement, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM settlements
        WHERE room_id = $1
        ORDER BY created_at DESC;
    `, settlementColumns)
	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements for room %s: %w", roomID, err)
	}
	defer rows.Close()

	settlements := []domain.RecordedSettlement{}
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement row: %w", err)
		}
		settlements = append(settlements, *settlement)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating settlement rows: %w", rows.Err())
	}

	return settlements, nil
}
