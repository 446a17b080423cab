package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/utils"
)

const joinCodeLength = 6

// joinCodeAttempts bounds the retry loop when a generated code collides.
const joinCodeAttempts = 5

// settledThreshold treats balances within a cent of zero as settled.
var settledThreshold = decimal.New(1, -2)

// roomService handles business logic related to rooms, memberships, and the
// roster of settlement participants.
type roomService struct {
	BaseService
	roomRepo       portsrepo.RoomRepositoryFacade
	memberRepo     portsrepo.MemberRepositoryFacade
	userReader     portssvc.UserReaderSvc
	balanceChecker portssvc.RoomBalanceCheckerSvc
}

// RoomServiceOption configures optional dependencies of the room service.
type RoomServiceOption func(*roomService)

// WithUserReader provides user lookups for roster display names.
func WithUserReader(userReader portssvc.UserReaderSvc) RoomServiceOption {
	return func(s *roomService) {
		s.userReader = userReader
	}
}

// WithBalanceChecker provides the balance gate for leaving rooms and removing
// roster members.
func WithBalanceChecker(checker portssvc.RoomBalanceCheckerSvc) RoomServiceOption {
	return func(s *roomService) {
		s.balanceChecker = checker
	}
}

// NewRoomService creates a new roomService.
func NewRoomService(roomRepo portsrepo.RoomRepositoryFacade, memberRepo portsrepo.MemberRepositoryFacade, opts ...RoomServiceOption) portssvc.RoomSvcFacade {
	s := &roomService{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure roomService implements the facade
var _ portssvc.RoomSvcFacade = (*roomService)(nil)

// SetBalanceChecker wires the balance gate after construction. Needed because
// the settlement service that implements it is itself built on top of rooms.
func SetBalanceChecker(svc portssvc.RoomSvcFacade, checker portssvc.RoomBalanceCheckerSvc) {
	if s, ok := svc.(*roomService); ok {
		s.balanceChecker = checker
	}
}

// CreateRoom persists a new room, makes the creator an admin, and adds them to
// the roster.
func (s *roomService) CreateRoom(ctx context.Context, name, password, creatorUserID string) (*domain.Room, error) {
	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash room password")
		return nil, fmt.Errorf("failed to hash room password: %w", err)
	}

	joinCode, err := s.uniqueJoinCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := domain.Room{
		RoomID:       uuid.NewString(),
		Name:         name,
		JoinCode:     joinCode,
		PasswordHash: passwordHash,
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.roomRepo.SaveRoom(ctx, room); err != nil {
		s.LogError(ctx, err, "Failed to save room", slog.String("room_name", name))
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	membership := domain.RoomMember{
		UserID:   creatorUserID,
		RoomID:   room.RoomID,
		Role:     domain.RoomRoleAdmin,
		JoinedAt: now,
	}
	if err := s.roomRepo.AddUserToRoom(ctx, membership); err != nil {
		s.LogError(ctx, err, "Failed to add creator as admin to new room",
			slog.String("room_id", room.RoomID), slog.String("user_id", creatorUserID))
		return nil, fmt.Errorf("failed to add creator to room: %w", err)
	}

	if _, err := s.ensureRosterEntry(ctx, room.RoomID, creatorUserID); err != nil {
		s.LogError(ctx, err, "Failed to add creator to roster",
			slog.String("room_id", room.RoomID), slog.String("user_id", creatorUserID))
		return nil, fmt.Errorf("failed to add creator to roster: %w", err)
	}

	s.LogInfo(ctx, "Room created successfully", slog.String("room_id", room.RoomID), slog.String("creator_user_id", creatorUserID))
	return &room, nil
}

// uniqueJoinCode generates a join code that no existing room uses.
func (s *roomService) uniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < joinCodeAttempts; attempt++ {
		code, err := utils.GenerateJoinCode(joinCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate join code: %w", err)
		}
		_, err = s.roomRepo.FindRoomByJoinCode(ctx, code)
		if errors.Is(err, apperrors.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check join code uniqueness: %w", err)
		}
	}
	return "", fmt.Errorf("failed to generate a unique join code after %d attempts", joinCodeAttempts)
}

// ensureRosterEntry links the user to their roster member in the room,
// creating an entry named after the user if none exists yet.
func (s *roomService) ensureRosterEntry(ctx context.Context, roomID, userID string) (*domain.Member, error) {
	member, err := s.memberRepo.FindMemberByUserID(ctx, roomID, userID)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	name := userID
	if s.userReader != nil {
		if user, err := s.userReader.GetUserByID(ctx, userID); err == nil {
			name = user.Name
		}
	}

	now := time.Now()
	entry := domain.Member{
		MemberID: uuid.NewString(),
		RoomID:   roomID,
		Name:     name,
		UserID:   &userID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.memberRepo.SaveMember(ctx, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetRoomByID retrieves a room. Only members can see it.
func (s *roomService) GetRoomByID(ctx context.Context, roomID string, requestingUserID string) (*domain.Room, error) {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}
	room, err := s.roomRepo.FindRoomByID(ctx, roomID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find room by ID", slog.String("room_id", roomID))
		}
		return nil, err
	}
	return room, nil
}

// ListUserRooms retrieves all rooms the user belongs to.
func (s *roomService) ListUserRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	rooms, err := s.roomRepo.ListRoomsByUserID(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list rooms for user", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to list rooms for user %s: %w", userID, err)
	}
	if rooms == nil {
		return []domain.Room{}, nil
	}
	return rooms, nil
}

// ListRoomUsers retrieves all user memberships of a room.
func (s *roomService) ListRoomUsers(ctx context.Context, roomID string, requestingUserID string) ([]domain.RoomMember, error) {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}
	memberships, err := s.roomRepo.ListRoomUsers(ctx, roomID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list room users", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to list room users: %w", err)
	}
	if memberships == nil {
		return []domain.RoomMember{}, nil
	}
	return memberships, nil
}

// DeactivateRoom marks a room as inactive. Admin only.
func (s *roomService) DeactivateRoom(ctx context.Context, roomID string, requestingUserID string) error {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleAdmin); err != nil {
		return err
	}

	room, err := s.roomRepo.FindRoomByID(ctx, roomID)
	if err != nil {
		return err
	}

	room.IsActive = false
	room.LastUpdatedAt = time.Now()
	room.LastUpdatedBy = requestingUserID

	if err := s.roomRepo.UpdateRoom(ctx, *room); err != nil {
		s.LogError(ctx, err, "Failed to deactivate room", slog.String("room_id", roomID))
		return fmt.Errorf("failed to deactivate room: %w", err)
	}

	s.LogInfo(ctx, "Room deactivated", slog.String("room_id", roomID), slog.String("requesting_user_id", requestingUserID))
	return nil
}

// JoinRoom adds the user to the room identified by joinCode after verifying
// the room password.
func (s *roomService) JoinRoom(ctx context.Context, joinCode, password, userID string) (*domain.Room, error) {
	room, err := s.roomRepo.FindRoomByJoinCode(ctx, joinCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("no room with that join code")
		}
		s.LogError(ctx, err, "Failed to find room by join code")
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	if !room.IsActive {
		return nil, apperrors.NewForbiddenError("room is no longer active")
	}

	if !utils.CheckPasswordHash(password, room.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("incorrect room password")
	}

	membership, err := s.roomRepo.FindUserRoomRole(ctx, userID, room.RoomID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to check existing membership", slog.String("room_id", room.RoomID))
		return nil, fmt.Errorf("failed to check existing membership: %w", err)
	}

	switch {
	case membership == nil:
		if err := s.roomRepo.AddUserToRoom(ctx, domain.RoomMember{
			UserID:   userID,
			RoomID:   room.RoomID,
			Role:     domain.RoomRoleMember,
			JoinedAt: time.Now(),
		}); err != nil {
			s.LogError(ctx, err, "Failed to add user to room", slog.String("room_id", room.RoomID))
			return nil, fmt.Errorf("failed to join room: %w", err)
		}
	case membership.Role == domain.RoomRoleRemoved:
		// Rejoining after having left.
		if err := s.roomRepo.UpdateUserRoomRole(ctx, userID, room.RoomID, domain.RoomRoleMember); err != nil {
			s.LogError(ctx, err, "Failed to restore membership", slog.String("room_id", room.RoomID))
			return nil, fmt.Errorf("failed to rejoin room: %w", err)
		}
	default:
		return nil, apperrors.NewConflictError("already a member of this room")
	}

	if _, err := s.ensureRosterEntry(ctx, room.RoomID, userID); err != nil {
		s.LogError(ctx, err, "Failed to ensure roster entry", slog.String("room_id", room.RoomID), slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to add user to roster: %w", err)
	}

	s.LogInfo(ctx, "User joined room", slog.String("room_id", room.RoomID), slog.String("user_id", userID))
	return room, nil
}

// LeaveRoom removes the user from a room. A user whose roster entry still has
// an outstanding balance cannot leave.
func (s *roomService) LeaveRoom(ctx context.Context, roomID string, userID string) error {
	membership, err := s.roomRepo.FindUserRoomRole(ctx, userID, roomID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if membership.Role == domain.RoomRoleRemoved {
		return apperrors.ErrNotFound
	}

	member, err := s.memberRepo.FindMemberByUserID(ctx, roomID, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to find roster entry: %w", err)
	}
	if member != nil {
		if err := s.requireSettled(ctx, roomID, member.MemberID); err != nil {
			return err
		}
	}

	if err := s.roomRepo.UpdateUserRoomRole(ctx, userID, roomID, domain.RoomRoleRemoved); err != nil {
		s.LogError(ctx, err, "Failed to mark membership removed", slog.String("room_id", roomID), slog.String("user_id", userID))
		return fmt.Errorf("failed to leave room: %w", err)
	}

	s.LogInfo(ctx, "User left room", slog.String("room_id", roomID), slog.String("user_id", userID))
	return nil
}

// requireSettled fails with ErrUnsettledBalance when the roster member still
// owes or is owed more than a cent.
func (s *roomService) requireSettled(ctx context.Context, roomID, memberID string) error {
	if s.balanceChecker == nil {
		return nil
	}
	balance, err := s.balanceChecker.GetMemberOverallBalance(ctx, roomID, memberID)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute member balance", slog.String("room_id", roomID), slog.String("member_id", memberID))
		return fmt.Errorf("failed to compute member balance: %w", err)
	}
	if balance.Abs().GreaterThanOrEqual(settledThreshold) {
		return apperrors.NewAppError(409, "member still has an outstanding balance", apperrors.ErrUnsettledBalance)
	}
	return nil
}

// ListRoomMembers retrieves the room's roster.
func (s *roomService) ListRoomMembers(ctx context.Context, roomID string, requestingUserID string) ([]domain.Member, error) {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleMember); err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListMembersByRoomID(ctx, roomID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list roster members", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to list roster members: %w", err)
	}
	if members == nil {
		return []domain.Member{}, nil
	}
	return members, nil
}

// AddMember adds an unlinked roster member by display name. Admin only.
func (s *roomService) AddMember(ctx context.Context, roomID string, name string, requestingUserID string) (*domain.Member, error) {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleAdmin); err != nil {
		return nil, err
	}

	now := time.Now()
	member := domain.Member{
		MemberID: uuid.NewString(),
		RoomID:   roomID,
		Name:     name,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requestingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: requestingUserID,
		},
	}
	if err := s.memberRepo.SaveMember(ctx, member); err != nil {
		s.LogError(ctx, err, "Failed to save roster member", slog.String("room_id", roomID))
		return nil, fmt.Errorf("failed to add roster member: %w", err)
	}

	s.LogInfo(ctx, "Roster member added", slog.String("room_id", roomID), slog.String("member_id", member.MemberID))
	return &member, nil
}

// RenameMember changes a roster member's display name. Admin only.
func (s *roomService) RenameMember(ctx context.Context, roomID, memberID, name string, requestingUserID string) (*domain.Member, error) {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleAdmin); err != nil {
		return nil, err
	}

	member, err := s.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.RoomID != roomID {
		return nil, apperrors.ErrNotFound
	}

	member.Name = name
	member.LastUpdatedAt = time.Now()
	member.LastUpdatedBy = requestingUserID

	if err := s.memberRepo.UpdateMember(ctx, *member); err != nil {
		s.LogError(ctx, err, "Failed to rename roster member", slog.String("member_id", memberID))
		return nil, fmt.Errorf("failed to rename roster member: %w", err)
	}
	return member, nil
}

// RemoveMember soft-deletes a roster member. Admin only, and only when the
// member's balance is settled.
func (s *roomService) RemoveMember(ctx context.Context, roomID, memberID string, requestingUserID string) error {
	if err := s.AuthorizeUserAction(ctx, requestingUserID, roomID, domain.RoomRoleAdmin); err != nil {
		return err
	}

	member, err := s.memberRepo.FindMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.RoomID != roomID {
		return apperrors.ErrNotFound
	}

	if err := s.requireSettled(ctx, roomID, memberID); err != nil {
		return err
	}

	if err := s.memberRepo.MarkMemberDeleted(ctx, memberID, time.Now(), requestingUserID); err != nil {
		s.LogError(ctx, err, "Failed to mark roster member deleted", slog.String("member_id", memberID))
		return fmt.Errorf("failed to remove roster member: %w", err)
	}

	s.LogInfo(ctx, "Roster member removed", slog.String("room_id", roomID), slog.String("member_id", memberID))
	return nil
}

// AuthorizeUserAction checks if a user has the required role (or higher)
// within a specific room.
// Returns apperrors.ErrNotFound if the user is not a member, so non-members
// cannot tell whether a room exists.
// Returns apperrors.ErrForbidden if the user is a member but lacks the role.
func (s *roomService) AuthorizeUserAction(ctx context.Context, userID, roomID string, requiredRole domain.RoomRole) error {
	membership, err := s.roomRepo.FindUserRoomRole(ctx, userID, roomID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Authorization failed: user not a member",
				slog.String("user_id", userID), slog.String("room_id", roomID))
			return apperrors.ErrNotFound
		}
		s.LogError(ctx, err, "Failed to check user room role",
			slog.String("user_id", userID), slog.String("room_id", roomID))
		return fmt.Errorf("failed to check authorization: %w", err)
	}

	if membership.Role == domain.RoomRoleRemoved {
		return apperrors.ErrNotFound
	}
	if membership.Role == domain.RoomRoleAdmin {
		return nil
	}
	if membership.Role == requiredRole {
		return nil
	}

	s.LogDebug(ctx, "Authorization failed: user lacks required role",
		slog.String("user_id", userID), slog.String("room_id", roomID),
		slog.String("user_role", string(membership.Role)), slog.String("required_role", string(requiredRole)))
	return apperrors.ErrForbidden
}
