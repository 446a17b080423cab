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

const roomColumns = `room_id, name, join_code, password_hash, is_active, created_at, created_by, last_updated_at, last_updated_by`

type PgxRoomRepository struct {
	BaseRepository
}

func newPgxRoomRepository(db *pgxpool.Pool) portsrepo.RoomRepositoryWithTx {
	return &PgxRoomRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxRoomRepository implements portsrepo.RoomRepositoryWithTx
var _ portsrepo.RoomRepositoryWithTx = (*PgxRoomRepository)(nil)

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var room domain.Room
	err := row.Scan(
		&room.RoomID,
		&room.Name,
		&room.JoinCode,
		&room.PasswordHash,
		&room.IsActive,
		&room.CreatedAt,
		&room.CreatedBy,
		&room.LastUpdatedAt,
		&room.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *PgxRoomRepository) SaveRoom(ctx context.Context, room domain.Room) error {
	query := `
        INSERT INTO rooms (room_id, name, join_code, password_hash, is_active, created_at, created_by, last_updated_at, last_updated_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
	_, err := r.Pool.Exec(ctx, query,
		room.RoomID,
		room.Name,
		room.JoinCode,
		room.PasswordHash,
		room.IsActive,
		room.CreatedAt,
		room.CreatedBy,
		room.LastUpdatedAt,
		room.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return apperrors.NewConflictError("room with this join code already exists")
			}
			if pgErr.Code == "23503" {
				return apperrors.NewValidationFailedError("invalid reference when saving room")
			}
		}
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (r *PgxRoomRepository) FindRoomByID(ctx context.Context, roomID string) (*domain.Room, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM rooms
		WHERE room_id = $1;
	`, roomColumns)
	room, err := scanRoom(r.Pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room by ID %s: %w", roomID, err)
	}
	return room, nil
}

func (r *PgxRoomRepository) FindRoomByJoinCode(ctx context.Context, joinCode string) (*domain.Room, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM rooms
		WHERE join_code = $1;
	`, roomColumns)
	room, err := scanRoom(r.Pool.QueryRow(ctx, query, joinCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room by join code: %w", err)
	}
	return room, nil
}

func (r *PgxRoomRepository) ListRoomsByUserID(ctx context.Context, userID string) ([]domain.Room, error) {
	query := `
        SELECT rm.room_id, rm.name, rm.join_code, rm.password_hash, rm.is_active,
            rm.created_at, rm.created_by, rm.last_updated_at, rm.last_updated_by
        FROM rooms rm
        JOIN room_members m ON m.room_id = rm.room_id
        WHERE m.user_id = $1 AND m.role != $2
        ORDER BY rm.created_at DESC;
    `
	rows, err := r.Pool.Query(ctx, query, userID, domain.RoomRoleRemoved)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms for user %s: %w", userID, err)
	}
	defer rows.Close()

	rooms := []domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", err)
		}
		rooms = append(rooms, *room)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating room rows: %w", rows.Err())
	}

	return rooms, nil
}

func (r *PgxRoomRepository) UpdateRoom(ctx context.Context, room domain.Room) error {
	query := `
        UPDATE rooms
        SET name = $1, is_active = $2, last_updated_at = $3, last_updated_by = $4
        WHERE room_id = $5;
    `
	cmdTag, err := r.Pool.Exec(ctx, query,
		room.Name,
		room.IsActive,
		room.LastUpdatedAt,
		room.LastUpdatedBy,
		room.RoomID,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update room query: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("room not found: %w", apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxRoomRepository) AddUserToRoom(ctx context.Context, membership domain.RoomMember) error {
	query := `
        INSERT INTO room_members (user_id, room_id, role, joined_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, room_id) DO UPDATE SET
            role = EXCLUDED.role;
    `
	_, err := r.Pool.Exec(ctx, query,
		membership.UserID,
		membership.RoomID,
		membership.Role,
		membership.JoinedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperrors.NewValidationFailedError("user or room does not exist")
		}
		return fmt.Errorf("failed to add user to room: %w", err)
	}
	return nil
}

func (r *PgxRoomRepository) FindUserRoomRole(ctx context.Context, userID, roomID string) (*domain.RoomMember, error) {
	query := `
		SELECT m.user_id, u.name, m.room_id, m.role, m.joined_at
		FROM room_members m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.user_id = $1 AND m.room_id = $2;
	`
	var membership domain.RoomMember
	err := r.Pool.QueryRow(ctx, query, userID, roomID).Scan(
		&membership.UserID,
		&membership.UserName,
		&membership.RoomID,
		&membership.Role,
		&membership.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user room role: %w", err)
	}
	return &membership, nil
}

func (r *PgxRoomRepository) ListRoomUsers(ctx context.Context, roomID string) ([]domain.RoomMember, error) {
	query := `
        SELECT m.user_id, u.name, m.room_id, m.role, m.joined_at
        FROM room_members m
        JOIN users u ON u.user_id = m.user_id
        WHERE m.room_id = $1 AND m.role != $2
        ORDER BY m.joined_at ASC;
    `
	rows, err := r.Pool.Query(ctx, query, roomID, domain.RoomRoleRemoved)
	if err != nil {
		return nil, fmt.Errorf("failed to query room users: %w", err)
	}
	defer rows.Close()

	memberships := []domain.RoomMember{}
	for rows.Next() {
		var membership domain.RoomMember
		err := rows.Scan(
			&membership.UserID,
			&membership.UserName,
			&membership.RoomID,
			&membership.Role,
			&membership.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room member row: %w", err)
		}
		memberships = append(memberships, membership)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating room member rows: %w", rows.Err())
	}

	return memberships, nil
}

func (r *PgxRoomRepository) UpdateUserRoomRole(ctx context.Context, userID, roomID string, role domain.RoomRole) error {
	query := `
        UPDATE room_members
        SET role = $1
        WHERE user_id = $2 AND room_id = $3;
    `
	cmdTag, err := r.Pool.Exec(ctx, query, role, userID, roomID)
	if err != nil {
		return fmt.Errorf("failed to update user room role: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("membership not found: %w", apperrors.ErrNotFound)
	}
	return nil
}
