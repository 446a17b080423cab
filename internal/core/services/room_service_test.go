package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/core/services"
	"github.com/splitroomhq/splitroom_backend/internal/utils"
)

// --- Mock RoomRepository ---
type MockRoomRepository struct {
	mock.Mock
}

// Ensure MockRoomRepository implements portsrepo.RoomRepositoryFacade
var _ portsrepo.RoomRepositoryFacade = (*MockRoomRepository)(nil)

func (m *MockRoomRepository) FindRoomByID(ctx context.Context, roomID string) (*domain.Room, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomRepository) FindRoomByJoinCode(ctx context.Context, joinCode string) (*domain.Room, error) {
	args := m.Called(ctx, joinCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomRepository) ListRoomsByUserID(ctx context.Context, userID string) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRoomRepository) SaveRoom(ctx context.Context, room domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) UpdateRoom(ctx context.Context, room domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) AddUserToRoom(ctx context.Context, membership domain.RoomMember) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockRoomRepository) FindUserRoomRole(ctx context.Context, userID, roomID string) (*domain.RoomMember, error) {
	args := m.Called(ctx, userID, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoomMember), args.Error(1)
}

func (m *MockRoomRepository) ListRoomUsers(ctx context.Context, roomID string) ([]domain.RoomMember, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RoomMember), args.Error(1)
}

func (m *MockRoomRepository) UpdateUserRoomRole(ctx context.Context, userID, roomID string, role domain.RoomRole) error {
	args := m.Called(ctx, userID, roomID, role)
	return args.Error(0)
}

// --- Mock MemberRepository ---
type MockMemberRepository struct {
	mock.Mock
}

// Ensure MockMemberRepository implements portsrepo.MemberRepositoryFacade
var _ portsrepo.MemberRepositoryFacade = (*MockMemberRepository)(nil)

func (m *MockMemberRepository) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) FindMemberByUserID(ctx context.Context, roomID, userID string) (*domain.Member, error) {
	args := m.Called(ctx, roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) ListMembersByRoomID(ctx context.Context, roomID string) ([]domain.Member, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}

func (m *MockMemberRepository) SaveMember(ctx context.Context, member domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateMember(ctx context.Context, member domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) LinkMemberToUser(ctx context.Context, memberID, userID, updatedBy string) error {
	args := m.Called(ctx, memberID, userID, updatedBy)
	return args.Error(0)
}

func (m *MockMemberRepository) MarkMemberDeleted(ctx context.Context, memberID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, memberID, deletedAt, deletedBy)
	return args.Error(0)
}

// stubBalanceChecker returns a fixed balance for every member.
type stubBalanceChecker struct {
	balance decimal.Decimal
}

func (s *stubBalanceChecker) GetMemberOverallBalance(ctx context.Context, roomID, memberID string) (decimal.Decimal, error) {
	return s.balance, nil
}

// --- Test Suite ---
type RoomServiceTestSuite struct {
	suite.Suite
	mockRoomRepo   *MockRoomRepository
	mockMemberRepo *MockMemberRepository
	balanceChecker *stubBalanceChecker
	service        portssvc.RoomSvcFacade
}

func (suite *RoomServiceTestSuite) SetupTest() {
	suite.mockRoomRepo = new(MockRoomRepository)
	suite.mockMemberRepo = new(MockMemberRepository)
	suite.balanceChecker = &stubBalanceChecker{balance: decimal.Zero}
	suite.service = services.NewRoomService(
		suite.mockRoomRepo,
		suite.mockMemberRepo,
		services.WithBalanceChecker(suite.balanceChecker),
	)
}

// --- CreateRoom Tests ---

func (suite *RoomServiceTestSuite) TestCreateRoom_Success() {
	ctx := context.Background()

	suite.mockRoomRepo.On("FindRoomByJoinCode", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRoomRepo.On("SaveRoom", ctx, mock.MatchedBy(func(room domain.Room) bool {
		return room.Name == "Flat 4B" &&
			room.IsActive &&
			len(room.JoinCode) == 6 &&
			room.PasswordHash != "" &&
			room.PasswordHash != "hunter22" &&
			room.CreatedBy == "u-1"
	})).Return(nil).Once()
	suite.mockRoomRepo.On("AddUserToRoom", ctx, mock.MatchedBy(func(ms domain.RoomMember) bool {
		return ms.UserID == "u-1" && ms.Role == domain.RoomRoleAdmin
	})).Return(nil).Once()
	suite.mockMemberRepo.On("FindMemberByUserID", ctx, mock.AnythingOfType("string"), "u-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockMemberRepo.On("SaveMember", ctx, mock.MatchedBy(func(member domain.Member) bool {
		return member.UserID != nil && *member.UserID == "u-1"
	})).Return(nil).Once()

	room, err := suite.service.CreateRoom(ctx, "Flat 4B", "hunter22", "u-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(room)
	suite.True(utils.CheckPasswordHash("hunter22", room.PasswordHash))
	suite.mockRoomRepo.AssertExpectations(suite.T())
	suite.mockMemberRepo.AssertExpectations(suite.T())
}

// --- JoinRoom Tests ---

func (suite *RoomServiceTestSuite) roomWithPassword(password string) *domain.Room {
	hash, err := utils.HashPassword(password)
	suite.Require().NoError(err)
	return &domain.Room{
		RoomID:       "room-1",
		Name:         "Flat 4B",
		JoinCode:     "ABC234",
		PasswordHash: hash,
		IsActive:     true,
	}
}

func (suite *RoomServiceTestSuite) TestJoinRoom_Success() {
	ctx := context.Background()
	room := suite.roomWithPassword("hunter22")

	suite.mockRoomRepo.On("FindRoomByJoinCode", ctx, "ABC234").Return(room, nil).Once()
	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRoomRepo.On("AddUserToRoom", ctx, mock.MatchedBy(func(ms domain.RoomMember) bool {
		return ms.UserID == "u-2" && ms.RoomID == "room-1" && ms.Role == domain.RoomRoleMember
	})).Return(nil).Once()
	suite.mockMemberRepo.On("FindMemberByUserID", ctx, "room-1", "u-2").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockMemberRepo.On("SaveMember", ctx, mock.AnythingOfType("domain.Member")).Return(nil).Once()

	joined, err := suite.service.JoinRoom(ctx, "ABC234", "hunter22", "u-2")

	suite.Require().NoError(err)
	suite.Equal("room-1", joined.RoomID)
	suite.mockRoomRepo.AssertExpectations(suite.T())
}

func (suite *RoomServiceTestSuite) TestJoinRoom_WrongPassword() {
	ctx := context.Background()
	room := suite.roomWithPassword("hunter22")

	suite.mockRoomRepo.On("FindRoomByJoinCode", ctx, "ABC234").Return(room, nil).Once()

	joined, err := suite.service.JoinRoom(ctx, "ABC234", "wrong", "u-2")

	suite.Require().Error(err)
	suite.Nil(joined)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.mockRoomRepo.AssertNotCalled(suite.T(), "AddUserToRoom", mock.Anything, mock.Anything)
}

func (suite *RoomServiceTestSuite) TestJoinRoom_AlreadyMember() {
	ctx := context.Background()
	room := suite.roomWithPassword("hunter22")
	membership := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleMember}

	suite.mockRoomRepo.On("FindRoomByJoinCode", ctx, "ABC234").Return(room, nil).Once()
	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(membership, nil).Once()

	joined, err := suite.service.JoinRoom(ctx, "ABC234", "hunter22", "u-2")

	suite.Require().Error(err)
	suite.Nil(joined)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *RoomServiceTestSuite) TestJoinRoom_RejoinAfterLeaving() {
	ctx := context.Background()
	room := suite.roomWithPassword("hunter22")
	membership := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleRemoved}

	suite.mockRoomRepo.On("FindRoomByJoinCode", ctx, "ABC234").Return(room, nil).Once()
	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(membership, nil).Once()
	suite.mockRoomRepo.On("UpdateUserRoomRole", ctx, "u-2", "room-1", domain.RoomRoleMember).Return(nil).Once()
	suite.mockMemberRepo.On("FindMemberByUserID", ctx, "room-1", "u-2").Return(&domain.Member{MemberID: "m-2", RoomID: "room-1"}, nil).Once()

	joined, err := suite.service.JoinRoom(ctx, "ABC234", "hunter22", "u-2")

	suite.Require().NoError(err)
	suite.Equal("room-1", joined.RoomID)
	suite.mockRoomRepo.AssertExpectations(suite.T())
}

func (suite *RoomServiceTestSuite) TestJoinRoom_InactiveRoom() {
	ctx := context.Background()
	room := suite.roomWithPassword("hunter22")
	room.IsActive = false

	suite.mockRoomRepo.On("FindRoomByJoinCode", ctx, "ABC234").Return(room, nil).Once()

	joined, err := suite.service.JoinRoom(ctx, "ABC234", "hunter22", "u-2")

	suite.Require().Error(err)
	suite.Nil(joined)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

// --- LeaveRoom Tests ---

func (suite *RoomServiceTestSuite) TestLeaveRoom_Success() {
	ctx := context.Background()
	membership := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleMember}

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(membership, nil).Once()
	suite.mockMemberRepo.On("FindMemberByUserID", ctx, "room-1", "u-2").Return(&domain.Member{MemberID: "m-2", RoomID: "room-1"}, nil).Once()
	suite.mockRoomRepo.On("UpdateUserRoomRole", ctx, "u-2", "room-1", domain.RoomRoleRemoved).Return(nil).Once()

	err := suite.service.LeaveRoom(ctx, "room-1", "u-2")

	suite.Require().NoError(err)
	suite.mockRoomRepo.AssertExpectations(suite.T())
}

func (suite *RoomServiceTestSuite) TestLeaveRoom_BlockedByOutstandingBalance() {
	ctx := context.Background()
	membership := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleMember}
	suite.balanceChecker.balance = decimal.NewFromFloat(-42.50)

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(membership, nil).Once()
	suite.mockMemberRepo.On("FindMemberByUserID", ctx, "room-1", "u-2").Return(&domain.Member{MemberID: "m-2", RoomID: "room-1"}, nil).Once()

	err := suite.service.LeaveRoom(ctx, "room-1", "u-2")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnsettledBalance)
	suite.mockRoomRepo.AssertNotCalled(suite.T(), "UpdateUserRoomRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RoomServiceTestSuite) TestLeaveRoom_SubCentBalanceIsSettled() {
	ctx := context.Background()
	membership := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleMember}
	suite.balanceChecker.balance = decimal.NewFromFloat(0.004)

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(membership, nil).Once()
	suite.mockMemberRepo.On("FindMemberByUserID", ctx, "room-1", "u-2").Return(&domain.Member{MemberID: "m-2", RoomID: "room-1"}, nil).Once()
	suite.mockRoomRepo.On("UpdateUserRoomRole", ctx, "u-2", "room-1", domain.RoomRoleRemoved).Return(nil).Once()

	err := suite.service.LeaveRoom(ctx, "room-1", "u-2")

	suite.Require().NoError(err)
}

// --- RemoveMember Tests ---

func (suite *RoomServiceTestSuite) TestRemoveMember_BlockedByOutstandingBalance() {
	ctx := context.Background()
	admin := &domain.RoomMember{UserID: "u-1", RoomID: "room-1", Role: domain.RoomRoleAdmin}
	suite.balanceChecker.balance = decimal.NewFromFloat(10)

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-1", "room-1").Return(admin, nil).Once()
	suite.mockMemberRepo.On("FindMemberByID", ctx, "m-3").Return(&domain.Member{MemberID: "m-3", RoomID: "room-1"}, nil).Once()

	err := suite.service.RemoveMember(ctx, "room-1", "m-3", "u-1")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnsettledBalance)
	suite.mockMemberRepo.AssertNotCalled(suite.T(), "MarkMemberDeleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RoomServiceTestSuite) TestRemoveMember_RequiresAdmin() {
	ctx := context.Background()
	member := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleMember}

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(member, nil).Once()

	err := suite.service.RemoveMember(ctx, "room-1", "m-3", "u-2")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

// --- AuthorizeUserAction Tests ---

func (suite *RoomServiceTestSuite) TestAuthorizeUserAction_NonMemberGetsNotFound() {
	ctx := context.Background()

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-9", "room-1").Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.AuthorizeUserAction(ctx, "u-9", "room-1", domain.RoomRoleMember)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RoomServiceTestSuite) TestAuthorizeUserAction_RemovedMemberGetsNotFound() {
	ctx := context.Background()
	removed := &domain.RoomMember{UserID: "u-2", RoomID: "room-1", Role: domain.RoomRoleRemoved}

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-2", "room-1").Return(removed, nil).Once()

	err := suite.service.AuthorizeUserAction(ctx, "u-2", "room-1", domain.RoomRoleMember)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *RoomServiceTestSuite) TestAuthorizeUserAction_AdminAlwaysAllowed() {
	ctx := context.Background()
	admin := &domain.RoomMember{UserID: "u-1", RoomID: "room-1", Role: domain.RoomRoleAdmin}

	suite.mockRoomRepo.On("FindUserRoomRole", ctx, "u-1", "room-1").Return(admin, nil).Once()

	err := suite.service.AuthorizeUserAction(ctx, "u-1", "room-1", domain.RoomRoleMember)

	suite.Require().NoError(err)
}

func TestRoomServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RoomServiceTestSuite))
}
