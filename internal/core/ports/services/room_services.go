package services

import (
	"context"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// RoomReaderSvc defines read operations for room data
type RoomReaderSvc interface {
	// GetRoomByID retrieves a specific room. Only room members can access it.
	GetRoomByID(ctx context.Context, roomID string, requestingUserID string) (*domain.Room, error)

	// ListUserRooms retrieves all active rooms the user belongs to.
	ListUserRooms(ctx context.Context, userID string) ([]domain.Room, error)

	// ListRoomUsers retrieves all users and their roles for a specific room.
	// Only room members can access this data.
	ListRoomUsers(ctx context.Context, roomID string, requestingUserID string) ([]domain.RoomMember, error)
}

// RoomWriterSvc defines write operations for room data
type RoomWriterSvc interface {
	// CreateRoom persists a new room with a generated join code, makes the
	// creator an admin, and adds them to the roster.
	CreateRoom(ctx context.Context, name, password, creatorUserID string) (*domain.Room, error)

	// DeactivateRoom marks a room as inactive. Admin only.
	DeactivateRoom(ctx context.Context, roomID string, requestingUserID string) error
}

// RoomMembershipSvc defines operations for joining and leaving rooms
type RoomMembershipSvc interface {
	// JoinRoom adds the user to the room identified by joinCode, after
	// verifying the room password, and links or creates their roster entry.
	JoinRoom(ctx context.Context, joinCode, password, userID string) (*domain.Room, error)

	// LeaveRoom removes the user from a room. A user whose roster entry still
	// carries an outstanding balance cannot leave.
	LeaveRoom(ctx context.Context, roomID string, userID string) error
}

// RoomRosterSvc defines operations on the roster of settlement participants
type RoomRosterSvc interface {
	// ListRoomMembers retrieves the room's roster. Only room members can access it.
	ListRoomMembers(ctx context.Context, roomID string, requestingUserID string) ([]domain.Member, error)

	// AddMember adds an unlinked roster member by display name. Admin only.
	AddMember(ctx context.Context, roomID string, name string, requestingUserID string) (*domain.Member, error)

	// RenameMember changes a roster member's display name. Admin only.
	RenameMember(ctx context.Context, roomID, memberID, name string, requestingUserID string) (*domain.Member, error)

	// RemoveMember soft-deletes a roster member. Admin only. A member with an
	// outstanding balance cannot be removed.
	RemoveMember(ctx context.Context, roomID, memberID string, requestingUserID string) error
}

// RoomAuthorizerSvc defines operations for room authorization
type RoomAuthorizerSvc interface {
	// AuthorizeUserAction checks if a user has required permissions for a room.
	AuthorizeUserAction(ctx context.Context, userID, roomID string, requiredRole domain.RoomRole) error
}

// RoomSvcFacade combines all room-related service interfaces
// This is a facade for clients that need access to all operations
type RoomSvcFacade interface {
	RoomReaderSvc
	RoomWriterSvc
	RoomMembershipSvc
	RoomRosterSvc
	RoomAuthorizerSvc
}
