package repositories

import (
	"context"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// RoomReader defines read operations for room data
type RoomReader interface {
	// FindRoomByID retrieves a specific room by its ID.
	FindRoomByID(ctx context.Context, roomID string) (*domain.Room, error)

	// FindRoomByJoinCode retrieves a room by its join code.
	FindRoomByJoinCode(ctx context.Context, joinCode string) (*domain.Room, error)

	// ListRoomsByUserID retrieves all rooms a user belongs to.
	ListRoomsByUserID(ctx context.Context, userID string) ([]domain.Room, error)
}

// RoomWriter defines write operations for room data
type RoomWriter interface {
	// SaveRoom persists a new room.
	SaveRoom(ctx context.Context, room domain.Room) error

	// UpdateRoom updates an existing room's details.
	UpdateRoom(ctx context.Context, room domain.Room) error
}

// RoomMembershipManager defines operations for managing room memberships
type RoomMembershipManager interface {
	// AddUserToRoom adds a user to a room with a specific role.
	AddUserToRoom(ctx context.Context, membership domain.RoomMember) error

	// FindUserRoomRole retrieves the role of a user in a room.
	FindUserRoomRole(ctx context.Context, userID, roomID string) (*domain.RoomMember, error)

	// ListRoomUsers retrieves all users and their roles for a specific room.
	ListRoomUsers(ctx context.Context, roomID string) ([]domain.RoomMember, error)

	// UpdateUserRoomRole updates a user's role in a room.
	UpdateUserRoomRole(ctx context.Context, userID, roomID string, role domain.RoomRole) error
}

// RoomRepositoryFacade combines all room-related repository interfaces
// This is a facade for clients that need access to all operations
type RoomRepositoryFacade interface {
	RoomReader
	RoomWriter
	RoomMembershipManager
}

// RoomRepositoryWithTx extends RoomRepositoryFacade with transaction capabilities
type RoomRepositoryWithTx interface {
	RoomRepositoryFacade
	TransactionManager
}
