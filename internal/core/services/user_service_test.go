package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/core/services"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
)

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

// Ensure MockUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByProviderID(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.User, error) {
	args := m.Called(ctx, provider, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateRefreshTokenDetails(ctx context.Context, userID string, refreshTokenHash string, refreshTokenExpiryTime *time.Time) error {
	args := m.Called(ctx, userID, refreshTokenHash, refreshTokenExpiryTime)
	return args.Error(0)
}

func (m *MockUserRepository) MarkUserDeleted(ctx context.Context, userID string, deletedAt time.Time, deletedBy string) error {
	args := m.Called(ctx, userID, deletedAt, deletedBy)
	return args.Error(0)
}

// --- Test Suite ---
type UserServiceTestSuite struct {
	suite.Suite
	mockUserRepo *MockUserRepository
	service      portssvc.UserSvcFacade
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.mockUserRepo = new(MockUserRepository)
	suite.service = services.NewUserService(suite.mockUserRepo)
}

// --- CreateUser Tests ---

func (suite *UserServiceTestSuite) TestCreateUser_Success() {
	ctx := context.Background()
	username := "testuser"
	password := "password123"
	name := "Test User"

	createUserReq := dto.CreateUserRequest{
		Username: username,
		Password: password,
		Name:     name,
	}

	suite.mockUserRepo.On("FindUserByUsername", ctx, username).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.Username == username && user.Name == name && user.PasswordHash != "" && user.PasswordHash != password
	})).Return(nil).Once()

	createdUser, err := suite.service.CreateUser(ctx, createUserReq)

	suite.Require().NoError(err)
	suite.Require().NotNil(createdUser)
	suite.Equal(username, createdUser.Username)
	suite.Equal(name, createdUser.Name)
	suite.NotEmpty(createdUser.UserID)
	suite.NotEqual(password, createdUser.PasswordHash)
	suite.Equal(domain.ProviderLocal, createdUser.AuthProvider)

	suite.mockUserRepo.AssertExpectations(suite.T())
}

func (suite *UserServiceTestSuite) TestCreateUser_DuplicateUsername() {
	ctx := context.Background()
	existing := &domain.User{UserID: "u-1", Username: "taken"}

	suite.mockUserRepo.On("FindUserByUsername", ctx, "taken").Return(existing, nil).Once()

	createdUser, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{
		Username: "taken",
		Password: "password123",
		Name:     "Someone",
	})

	suite.Require().Error(err)
	suite.Nil(createdUser)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestCreateUser_SaveError() {
	ctx := context.Background()
	expectedErr := assert.AnError

	suite.mockUserRepo.On("FindUserByUsername", ctx, "someuser").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.AnythingOfType("domain.User")).Return(expectedErr).Once()

	createdUser, err := suite.service.CreateUser(ctx, dto.CreateUserRequest{
		Username: "someuser",
		Password: "password123",
		Name:     "Some User",
	})

	suite.Require().Error(err)
	suite.Nil(createdUser)
	suite.ErrorIs(err, expectedErr)
}

// --- CreateOAuthUser Tests ---

func (suite *UserServiceTestSuite) TestCreateOAuthUser_ReturnsExistingAccount() {
	ctx := context.Background()
	existing := &domain.User{
		UserID:         "u-google",
		Username:       "jane",
		AuthProvider:   domain.ProviderGoogle,
		ProviderUserID: "google-sub-1",
	}

	suite.mockUserRepo.On("FindUserByProviderID", ctx, domain.ProviderGoogle, "google-sub-1").Return(existing, nil).Once()

	user, err := suite.service.CreateOAuthUser(ctx, "Jane Doe", "jane@example.com", string(domain.ProviderGoogle), "google-sub-1", true)

	suite.Require().NoError(err)
	suite.Equal(existing, user)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "SaveUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestCreateOAuthUser_CreatesNewAccount() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByProviderID", ctx, domain.ProviderGoogle, "google-sub-2").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("FindUserByUsername", ctx, "jane").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockUserRepo.On("SaveUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.AuthProvider == domain.ProviderGoogle &&
			user.ProviderUserID == "google-sub-2" &&
			user.Email == "jane@example.com" &&
			user.Username == "jane" &&
			user.EmailVerified
	})).Return(nil).Once()

	user, err := suite.service.CreateOAuthUser(ctx, "Jane Doe", "jane@example.com", string(domain.ProviderGoogle), "google-sub-2", true)

	suite.Require().NoError(err)
	suite.Require().NotNil(user)
	suite.Equal("Jane Doe", user.Name)
	suite.Empty(user.PasswordHash)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

// --- AuthenticateUser Tests ---

func (suite *UserServiceTestSuite) TestAuthenticateUser_Success() {
	ctx := context.Background()
	password := "correct-horse"

	created := suite.userWithPassword("alice", password)
	suite.mockUserRepo.On("FindUserByUsername", ctx, "alice").Return(created, nil).Once()

	user, err := suite.service.AuthenticateUser(ctx, "alice", password)

	suite.Require().NoError(err)
	suite.Equal(created.UserID, user.UserID)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_WrongPassword() {
	ctx := context.Background()

	created := suite.userWithPassword("alice", "correct-horse")
	suite.mockUserRepo.On("FindUserByUsername", ctx, "alice").Return(created, nil).Once()

	user, err := suite.service.AuthenticateUser(ctx, "alice", "battery-staple")

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_UnknownUser() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByUsername", ctx, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	user, err := suite.service.AuthenticateUser(ctx, "ghost", "whatever")

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *UserServiceTestSuite) TestAuthenticateUser_OAuthOnlyAccount() {
	ctx := context.Background()

	created := &domain.User{
		UserID:       "u-google",
		Username:     "jane",
		AuthProvider: domain.ProviderGoogle,
	}
	suite.mockUserRepo.On("FindUserByUsername", ctx, "jane").Return(created, nil).Once()

	user, err := suite.service.AuthenticateUser(ctx, "jane", "anything")

	suite.Require().Error(err)
	suite.Nil(user)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

// userWithPassword builds a user whose PasswordHash matches the given password.
func (suite *UserServiceTestSuite) userWithPassword(username, password string) *domain.User {
	ctx := context.Background()

	repo := new(MockUserRepository)
	repo.On("FindUserByUsername", mock.Anything, mock.Anything).Return(nil, apperrors.ErrNotFound)
	var saved domain.User
	repo.On("SaveUser", mock.Anything, mock.AnythingOfType("domain.User")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(domain.User)
	}).Return(nil)

	_, err := services.NewUserService(repo).CreateUser(ctx, dto.CreateUserRequest{
		Username: username,
		Password: password,
		Name:     "Test User",
	})
	suite.Require().NoError(err)
	return &saved
}

// --- UpdateUser Tests ---

func (suite *UserServiceTestSuite) TestUpdateUser_ForbiddenForOtherUsers() {
	ctx := context.Background()
	newName := "New Name"

	updated, err := suite.service.UpdateUser(ctx, "u-1", dto.UpdateUserRequest{Name: &newName}, "u-2")

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockUserRepo.AssertNotCalled(suite.T(), "UpdateUser", mock.Anything, mock.Anything)
}

func (suite *UserServiceTestSuite) TestUpdateUser_Success() {
	ctx := context.Background()
	newName := "New Name"
	existing := &domain.User{UserID: "u-1", Username: "alice", Name: "Old Name"}

	suite.mockUserRepo.On("FindUserByID", ctx, "u-1").Return(existing, nil).Once()
	suite.mockUserRepo.On("UpdateUser", ctx, mock.MatchedBy(func(user domain.User) bool {
		return user.UserID == "u-1" && user.Name == newName && user.LastUpdatedBy == "u-1"
	})).Return(nil).Once()

	updated, err := suite.service.UpdateUser(ctx, "u-1", dto.UpdateUserRequest{Name: &newName}, "u-1")

	suite.Require().NoError(err)
	suite.Equal(newName, updated.Name)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

// --- Refresh token Tests ---

func (suite *UserServiceTestSuite) TestClearRefreshToken_PassesNilExpiry() {
	ctx := context.Background()

	suite.mockUserRepo.On("UpdateRefreshTokenDetails", ctx, "u-1", "", (*time.Time)(nil)).Return(nil).Once()

	err := suite.service.ClearRefreshToken(ctx, "u-1")

	suite.Require().NoError(err)
	suite.mockUserRepo.AssertExpectations(suite.T())
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
