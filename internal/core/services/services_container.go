package services

import (
	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	// Create the container structure first
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo)

	// Initialize room service first since other services authorize through it
	container.Room = NewRoomService(
		repos.RoomRepo,
		repos.MemberRepo,
		WithUserReader(container.User),
	)

	roomAuthorizer := container.Room.(portssvc.RoomAuthorizerSvc)

	container.Expense = NewExpenseService(
		repos.ExpenseRepo,
		repos.MemberRepo,
		WithExpenseRoomAuthorizer(roomAuthorizer),
	)

	container.Settlement = NewSettlementService(
		repos.ExpenseRepo,
		repos.MemberRepo,
		repos.SettlementRepo,
		WithSettlementRoomAuthorizer(roomAuthorizer),
	)

	// The settlement service doubles as the balance gate for leaving rooms;
	// it is wired after construction because it depends on the room authorizer.
	SetBalanceChecker(container.Room, container.Settlement.(portssvc.RoomBalanceCheckerSvc))

	// Initialize TokenService
	container.TokenService = NewTokenService(cfg, container.User)

	// Initialize GoogleOAuthHandlerSvcFacade
	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.RoomSvcFacade       = (*roomService)(nil)
	_ portssvc.ExpenseSvcFacade    = (*expenseService)(nil)
	_ portssvc.SettlementSvcFacade = (*settlementService)(nil)
	_ portssvc.UserSvcFacade       = (*userService)(nil)
)
