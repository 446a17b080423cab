package domain

import "time"

// Room is a shared-expense group. Members record expenses against it and
// settle up monthly.
type Room struct {
	RoomID string `json:"roomID"` // Primary Key (e.g., UUID)
	Name   string `json:"name"`
	// JoinCode is a short code other users present (with the room password)
	// to join the room.
	JoinCode string `json:"joinCode"`
	// PasswordHash guards joining; the room password is set at creation.
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"isActive"`
	AuditFields
}

// RoomRole defines the possible roles a user can have within a room.
type RoomRole string

const (
	RoomRoleAdmin   RoomRole = "ADMIN"
	RoomRoleMember  RoomRole = "MEMBER"
	RoomRoleRemoved RoomRole = "REMOVED" // For users who have left or been removed
)

// RoomMember represents the membership of a User in a Room.
type RoomMember struct {
	UserID   string    `json:"userID"`
	UserName string    `json:"userName"`
	RoomID   string    `json:"roomID"`
	Role     RoomRole  `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}
