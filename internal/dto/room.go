package dto

import (
	"time"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// --- Room DTOs ---

// CreateRoomRequest defines data for creating a new room.
type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Password string `json:"password" binding:"required,min=4"`
}

// JoinRoomRequest defines data for joining an existing room.
type JoinRoomRequest struct {
	JoinCode string `json:"joinCode" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RoomResponse defines data returned for a room.
type RoomResponse struct {
	RoomID        string    `json:"roomID"`
	Name          string    `json:"name"`
	JoinCode      string    `json:"joinCode"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID
}

// ToRoomResponse converts domain.Room to DTO.
func ToRoomResponse(r *domain.Room) RoomResponse {
	return RoomResponse{
		RoomID:        r.RoomID,
		Name:          r.Name,
		JoinCode:      r.JoinCode,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		CreatedBy:     r.CreatedBy,
		LastUpdatedAt: r.LastUpdatedAt,
		LastUpdatedBy: r.LastUpdatedBy,
	}
}

// ListRoomsResponse wraps a list of rooms.
type ListRoomsResponse struct {
	Rooms []RoomResponse `json:"rooms"`
}

// ToListRoomsResponse converts a slice of domain.Room to DTO.
func ToListRoomsResponse(rs []domain.Room) ListRoomsResponse {
	list := make([]RoomResponse, len(rs))
	for i, r := range rs {
		list[i] = ToRoomResponse(&r)
	}
	return ListRoomsResponse{Rooms: list}
}

// --- Room Membership DTOs ---

// RoomUserResponse defines data returned about a user's membership.
type RoomUserResponse struct {
	UserID   string          `json:"userID"`
	UserName string          `json:"userName"`
	RoomID   string          `json:"roomID"`
	Role     domain.RoomRole `json:"role"`
	JoinedAt time.Time       `json:"joinedAt"`
}

// ToRoomUserResponse converts domain.RoomMember to DTO.
func ToRoomUserResponse(rm *domain.RoomMember) RoomUserResponse {
	return RoomUserResponse{
		UserID:   rm.UserID,
		UserName: rm.UserName,
		RoomID:   rm.RoomID,
		Role:     rm.Role,
		JoinedAt: rm.JoinedAt,
	}
}

// ListRoomUsersResponse wraps a room's user memberships.
type ListRoomUsersResponse struct {
	Users []RoomUserResponse `json:"users"`
}

// ToListRoomUsersResponse converts a slice of domain.RoomMember to DTO.
func ToListRoomUsersResponse(rms []domain.RoomMember) ListRoomUsersResponse {
	list := make([]RoomUserResponse, len(rms))
	for i, rm := range rms {
		list[i] = ToRoomUserResponse(&rm)
	}
	return ListRoomUsersResponse{Users: list}
}

// --- Roster Member DTOs ---

// AddMemberRequest defines data for adding an unlinked roster member.
type AddMemberRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// RenameMemberRequest defines data for renaming a roster member.
type RenameMemberRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// MemberResponse defines data returned for a roster member.
type MemberResponse struct {
	MemberID string  `json:"memberID"`
	RoomID   string  `json:"roomID"`
	Name     string  `json:"name"`
	UserID   *string `json:"userID,omitempty"`
}

// ToMemberResponse converts domain.Member to DTO.
func ToMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		MemberID: m.MemberID,
		RoomID:   m.RoomID,
		Name:     m.Name,
		UserID:   m.UserID,
	}
}

// ListMembersResponse wraps a room's roster.
type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}

// ToListMembersResponse converts a slice of domain.Member to DTO.
func ToListMembersResponse(ms []domain.Member) ListMembersResponse {
	list := make([]MemberResponse, len(ms))
	for i, m := range ms {
		list[i] = ToMemberResponse(&m)
	}
	return ListMembersResponse{Members: list}
}
