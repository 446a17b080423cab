package repositories

import (
	"context"
	"time"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// MemberReader defines read operations for room roster members
type MemberReader interface {
	// FindMemberByID retrieves a specific roster member by ID.
	FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error)

	// FindMemberByUserID retrieves the roster member linked to a user within a room, if any.
	FindMemberByUserID(ctx context.Context, roomID, userID string) (*domain.Member, error)

	// ListMembersByRoomID retrieves the full roster of a room.
	ListMembersByRoomID(ctx context.Context, roomID string) ([]domain.Member, error)
}

// MemberWriter defines write operations for room roster members
type MemberWriter interface {
	// SaveMember persists a new roster member.
	SaveMember(ctx context.Context, member domain.Member) error

	// UpdateMember updates an existing roster member's details.
	UpdateMember(ctx context.Context, member domain.Member) error

	// LinkMemberToUser links a roster member to a user account.
	LinkMemberToUser(ctx context.Context, memberID, userID, updatedBy string) error

	// MarkMemberDeleted marks a roster member as deleted (soft delete).
	MarkMemberDeleted(ctx context.Context, memberID string, deletedAt time.Time, deletedBy string) error
}

// MemberRepositoryFacade combines all roster-member repository interfaces
type MemberRepositoryFacade interface {
	MemberReader
	MemberWriter
}
