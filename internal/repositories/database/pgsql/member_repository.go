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

const memberColumns = `member_id, room_id, name, user_id, created_at, created_by, last_updated_at, last_updated_by, deleted_at`

type PgxMemberRepository struct {
	db *pgxpool.Pool
}

func newPgxMemberRepository(db *pgxpool.Pool) portsrepo.MemberRepositoryFacade {
	return &PgxMemberRepository{db: db}
}

// Ensure PgxMemberRepository implements portsrepo.MemberRepositoryFacade
var _ portsrepo.MemberRepositoryFacade = (*PgxMemberRepository)(nil)

func scanMember(row pgx.Row) (*domain.Member, error) {
	var member domain.Member
	err := row.Scan(
		&member.MemberID,
		&member.RoomID,
		&member.Name,
		&member.UserID,
		&member.CreatedAt,
		&member.CreatedBy,
		&member.LastUpdatedAt,
		&member.LastUpdatedBy,
		&member.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *PgxMemberRepository) SaveMember(ctx context.Context, member domain.Member) error {
	query := `
        INSERT INTO members (member_id, room_id, name, user_id, created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `
	_, err := r.db.Exec(ctx, query,
		member.MemberID,
		member.RoomID,
		member.Name,
		member.UserID,
		member.CreatedAt,
		member.CreatedBy,
		member.LastUpdatedAt,
		member.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return apperrors.NewConflictError("member already exists in this room")
			}
			if pgErr.Code == "23503" {
				return apperrors.NewValidationFailedError("room or user does not exist")
			}
		}
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (r *PgxMemberRepository) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM members
		WHERE member_id = $1 AND deleted_at IS NULL;
	`, memberColumns)
	member, err := scanMember(r.db.QueryRow(ctx, query, memberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find member by ID %s: %w", memberID, err)
	}
	return member, nil
}

func (r *PgxMemberRepository) FindMemberByUserID(ctx context.Context, roomID, userID string) (*domain.Member, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM members
		WHERE room_id = $1 AND user_id = $2 AND deleted_at IS NULL;
	`, memberColumns)
	member, err := scanMember(r.db.QueryRow(ctx, query, roomID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find member by user ID: %w", err)
	}
	return member, nil
}

func (r *PgxMemberRepository) ListMembersByRoomID(ctx context.Context, roomID string) ([]domain.Member, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM members
        WHERE room_id = $1 AND deleted_at IS NULL
        ORDER BY created_at ASC;
    `, memberColumns)
	rows, err := r.db.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for room %s: %w", roomID, err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, *member)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", rows.Err())
	}

	return members, nil
}

func (r *PgxMemberRepository) UpdateMember(ctx context.Context, member domain.Member) error {
	query := `
        UPDATE members
        SET name = $1, last_updated_at = $2, last_updated_by = $3
        WHERE member_id = $4 AND deleted_at IS NULL;
    `
	cmdTag, err := r.db.Exec(ctx, query,
		member.Name,
		member.LastUpdatedAt,
		member.LastUpdatedBy,
		member.MemberID,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update member query: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("member not found or already deleted: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxMemberRepository) LinkMemberToUser(ctx context.Context, memberID, userID, updatedBy string) error {
	query := `
        UPDATE members
        SET user_id = $1, last_updated_at = $2, last_updated_by = $3
        WHERE member_id = $4 AND deleted_at IS NULL;
    `
	cmdTag, err := r.db.Exec(ctx, query, userID, time.Now(), updatedBy, memberID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.NewValidationFailedError("user does not exist")
		}
		return fmt.Errorf("failed to link member to user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("member not found or already deleted: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxMemberRepository) MarkMemberDeleted(ctx context.Context, memberID string, deletedAt time.Time, deletedBy string) error {
	query := `
        UPDATE members
        SET deleted_at = $1, last_updated_at = $1, last_updated_by = $2
        WHERE member_id = $3 AND deleted_at IS NULL;
    `
	cmdTag, err := r.db.Exec(ctx, query, deletedAt, deletedBy, memberID)
	if err != nil {
		return fmt.Errorf("failed to mark member as deleted: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("member not found or already deleted: %w", apperrors.ErrNotFound)
	}
	return nil
}
