package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/splitroomhq/splitroom_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	userRepo := newPgxUserRepository(dbPool)
	roomRepo := newPgxRoomRepository(dbPool)
	memberRepo := newPgxMemberRepository(dbPool)
	expenseRepo := newPgxExpenseRepository(dbPool)
	settlementRepo := newPgxSettlementRepository(dbPool)

	return portsrepo.RepositoryProvider{
		UserRepo:       userRepo,
		RoomRepo:       roomRepo,
		MemberRepo:     memberRepo,
		ExpenseRepo:    expenseRepo,
		SettlementRepo: settlementRepo,
	}
}
