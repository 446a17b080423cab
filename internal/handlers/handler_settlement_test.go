package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/splitroomhq/splitroom_backend/internal/apperrors"
	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/core/settlement"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
	"github.com/splitroomhq/splitroom_backend/internal/handlers"
	"github.com/splitroomhq/splitroom_backend/internal/middleware"
)

// --- Mock SettlementService ---
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) GetMonthlyReport(ctx context.Context, roomID string, requestingUserID string, period domain.Period) (*portssvc.MonthlyReport, error) {
	args := m.Called(ctx, roomID, requestingUserID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.MonthlyReport), args.Error(1)
}
func (m *MockSettlementService) GetMemberOverallBalance(ctx context.Context, roomID, memberID string) (decimal.Decimal, error) {
	args := m.Called(ctx, roomID, memberID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockSettlementService) ListRecordedSettlements(ctx context.Context, roomID string, requestingUserID string) ([]domain.RecordedSettlement, error) {
	args := m.Called(ctx, roomID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecordedSettlement), args.Error(1)
}
func (m *MockSettlementService) RecordSettlement(ctx context.Context, roomID string, req dto.RecordSettlementRequest, requestingUserID string) (*domain.RecordedSettlement, error) {
	args := m.Called(ctx, roomID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecordedSettlement), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.SettlementSvcFacade = (*MockSettlementService)(nil)

// --- Mock RoomService ---
type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) GetRoomByID(ctx context.Context, roomID string, requestingUserID string) (*domain.Room, error) {
	args := m.Called(ctx, roomID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}
func (m *MockRoomService) ListUserRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}
func (m *MockRoomService) ListRoomUsers(ctx context.Context, roomID string, requestingUserID string) ([]domain.RoomMember, error) {
	args := m.Called(ctx, roomID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RoomMember), args.Error(1)
}
func (m *MockRoomService) CreateRoom(ctx context.Context, name, password, creatorUserID string) (*domain.Room, error) {
	args := m.Called(ctx, name, password, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}
func (m *MockRoomService) DeactivateRoom(ctx context.Context, roomID string, requestingUserID string) error {
	args := m.Called(ctx, roomID, requestingUserID)
	return args.Error(0)
}
func (m *MockRoomService) JoinRoom(ctx context.Context, joinCode, password, userID string) (*domain.Room, error) {
	args := m.Called(ctx, joinCode, password, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}
func (m *MockRoomService) LeaveRoom(ctx context.Context, roomID string, userID string) error {
	args := m.Called(ctx, roomID, userID)
	return args.Error(0)
}
func (m *MockRoomService) ListRoomMembers(ctx context.Context, roomID string, requestingUserID string) ([]domain.Member, error) {
	args := m.Called(ctx, roomID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}
func (m *MockRoomService) AddMember(ctx context.Context, roomID string, name string, requestingUserID string) (*domain.Member, error) {
	args := m.Called(ctx, roomID, name, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockRoomService) RenameMember(ctx context.Context, roomID, memberID, name string, requestingUserID string) (*domain.Member, error) {
	args := m.Called(ctx, roomID, memberID, name, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}
func (m *MockRoomService) RemoveMember(ctx context.Context, roomID, memberID string, requestingUserID string) error {
	args := m.Called(ctx, roomID, memberID, requestingUserID)
	return args.Error(0)
}
func (m *MockRoomService) AuthorizeUserAction(ctx context.Context, userID, roomID string, requiredRole domain.RoomRole) error {
	args := m.Called(ctx, userID, roomID, requiredRole)
	return args.Error(0)
}

// Ensure mock implements the interface
var _ portssvc.RoomSvcFacade = (*MockRoomService)(nil)

// --- Test Suite ---
type SettlementHandlerTestSuite struct {
	suite.Suite
	router                *gin.Engine
	mockSettlementService *MockSettlementService
	mockRoomService       *MockRoomService
	jwtSecret             string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *SettlementHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "splitroom-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tsignedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return tsignedString
}

func (suite *SettlementHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockSettlementService = new(MockSettlementService)
	suite.mockRoomService = new(MockRoomService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterSettlementRoutes(v1, suite.mockSettlementService, suite.mockRoomService)
}

func (suite *SettlementHandlerTestSuite) doRequest(method, url, userID string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, url, reqBody)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *SettlementHandlerTestSuite) TestGetMonthlyReport_Success() {
	roomID := uuid.NewString()
	userID := uuid.NewString()
	period := domain.Period{Year: 2026, Month: time.July}

	report := &portssvc.MonthlyReport{
		Period: period,
		Result: settlement.Result{
			Obligations: []domain.Obligation{
				{FromMemberID: "m-b", FromName: "Bella", ToMemberID: "m-a", ToName: "Arun", Amount: decimal.NewFromFloat(50), ExpenseID: "e-1", ExpenseName: "Groceries"},
			},
			NetBalances: map[string]domain.NetBalance{
				"m-a": {MemberID: "m-a", Name: "Arun", NetBalance: decimal.NewFromFloat(50)},
				"m-b": {MemberID: "m-b", Name: "Bella", NetBalance: decimal.NewFromFloat(-50)},
			},
			Settlements: []domain.Settlement{
				{FromMemberID: "m-b", FromName: "Bella", ToMemberID: "m-a", ToName: "Arun", Amount: decimal.NewFromFloat(50)},
			},
		},
		Totals: map[string]domain.MemberTotals{
			"m-a": {MemberID: "m-a", Name: "Arun", TotalShare: decimal.NewFromFloat(50), TotalPaid: decimal.NewFromFloat(100), Balance: decimal.NewFromFloat(50)},
			"m-b": {MemberID: "m-b", Name: "Bella", TotalShare: decimal.NewFromFloat(50), TotalPaid: decimal.Zero, Balance: decimal.NewFromFloat(-50)},
		},
		RoomTotal: decimal.NewFromFloat(100),
		Stats: domain.SummaryStats{
			TotalShare:     decimal.NewFromFloat(100),
			TotalPaid:      decimal.NewFromFloat(100),
			TotalToReceive: decimal.NewFromFloat(50),
			TotalToPay:     decimal.NewFromFloat(50),
		},
	}

	suite.mockSettlementService.On("GetMonthlyReport",
		mock.Anything, roomID, userID, period,
	).Return(report, nil).Once()

	url := fmt.Sprintf("/api/v1/rooms/%s/settlement?year=2026&month=7", roomID)
	w := suite.doRequest(http.MethodGet, url, userID, nil)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.SettlementReportResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(2026, resp.Year)
	suite.Equal(7, resp.Month)
	suite.Len(resp.Obligations, 1)
	suite.Len(resp.Settlements, 1)
	// Map-backed collections come out sorted by member ID.
	suite.Require().Len(resp.NetBalances, 2)
	suite.Equal("m-a", resp.NetBalances[0].MemberID)
	suite.Equal("m-b", resp.NetBalances[1].MemberID)
	suite.True(resp.RoomTotal.Equal(decimal.NewFromFloat(100)))

	suite.mockSettlementService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestGetMonthlyReport_MissingMonthIsRejected() {
	roomID := uuid.NewString()
	userID := uuid.NewString()

	url := fmt.Sprintf("/api/v1/rooms/%s/settlement?year=2026", roomID)
	w := suite.doRequest(http.MethodGet, url, userID, nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSettlementService.AssertNotCalled(suite.T(), "GetMonthlyReport")
}

func (suite *SettlementHandlerTestSuite) TestGetMonthlyReport_NonMemberGets404() {
	roomID := uuid.NewString()
	userID := uuid.NewString()
	period := domain.Period{Year: 2026, Month: time.July}

	suite.mockSettlementService.On("GetMonthlyReport",
		mock.Anything, roomID, userID, period,
	).Return(nil, apperrors.ErrNotFound).Once()

	url := fmt.Sprintf("/api/v1/rooms/%s/settlement?year=2026&month=7", roomID)
	w := suite.doRequest(http.MethodGet, url, userID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockSettlementService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestRecordSettlement_Success() {
	roomID := uuid.NewString()
	userID := uuid.NewString()
	req := dto.RecordSettlementRequest{
		FromMemberID: "m-b",
		ToMemberID:   "m-a",
		Amount:       decimal.NewFromFloat(25.50),
		Note:         "August rent share",
	}
	recorded := &domain.RecordedSettlement{
		SettlementID: uuid.NewString(),
		RoomID:       roomID,
		FromMemberID: req.FromMemberID,
		ToMemberID:   req.ToMemberID,
		Amount:       req.Amount,
		Note:         req.Note,
	}

	suite.mockSettlementService.On("RecordSettlement",
		mock.Anything, roomID, req, userID,
	).Return(recorded, nil).Once()

	url := fmt.Sprintf("/api/v1/rooms/%s/settlements", roomID)
	w := suite.doRequest(http.MethodPost, url, userID, req)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.RecordedSettlementResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(recorded.SettlementID, resp.SettlementID)
	suite.True(resp.Amount.Equal(decimal.NewFromFloat(25.50)))

	suite.mockSettlementService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestRecordSettlement_ValidationErrorGets400() {
	roomID := uuid.NewString()
	userID := uuid.NewString()
	req := dto.RecordSettlementRequest{
		FromMemberID: "m-a",
		ToMemberID:   "m-a",
		Amount:       decimal.NewFromInt(10),
	}

	suite.mockSettlementService.On("RecordSettlement",
		mock.Anything, roomID, req, userID,
	).Return(nil, apperrors.NewValidationFailedError("cannot settle with yourself")).Once()

	url := fmt.Sprintf("/api/v1/rooms/%s/settlements", roomID)
	w := suite.doRequest(http.MethodPost, url, userID, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSettlementService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestGetMemberBalance_ChecksRoomMembership() {
	roomID := uuid.NewString()
	memberID := uuid.NewString()
	userID := uuid.NewString()

	suite.mockRoomService.On("AuthorizeUserAction",
		mock.Anything, userID, roomID, domain.RoomRoleMember,
	).Return(nil).Once()
	suite.mockSettlementService.On("GetMemberOverallBalance",
		mock.Anything, roomID, memberID,
	).Return(decimal.NewFromFloat(-12.34), nil).Once()

	url := fmt.Sprintf("/api/v1/rooms/%s/members/%s/balance", roomID, memberID)
	w := suite.doRequest(http.MethodGet, url, userID, nil)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.MemberBalanceResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(memberID, resp.MemberID)
	suite.True(resp.Balance.Equal(decimal.NewFromFloat(-12.34)))

	suite.mockRoomService.AssertExpectations(suite.T())
	suite.mockSettlementService.AssertExpectations(suite.T())
}

func (suite *SettlementHandlerTestSuite) TestGetMemberBalance_NonMemberIsBlocked() {
	roomID := uuid.NewString()
	memberID := uuid.NewString()
	userID := uuid.NewString()

	suite.mockRoomService.On("AuthorizeUserAction",
		mock.Anything, userID, roomID, domain.RoomRoleMember,
	).Return(apperrors.ErrNotFound).Once()

	url := fmt.Sprintf("/api/v1/rooms/%s/members/%s/balance", roomID, memberID)
	w := suite.doRequest(http.MethodGet, url, userID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockSettlementService.AssertNotCalled(suite.T(), "GetMemberOverallBalance")
}

func (suite *SettlementHandlerTestSuite) TestRequestWithoutTokenIsRejected() {
	url := "/api/v1/rooms/some-room/settlements"
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

// --- Run Test Suite ---
func TestSettlementHandler(t *testing.T) {
	suite.Run(t, new(SettlementHandlerTestSuite))
}
