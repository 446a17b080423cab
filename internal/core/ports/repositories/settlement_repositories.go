package repositories

import (
	"context"

	"github.com/splitroomhq/splitroom_backend/internal/core/domain"
)

// SettlementReader defines read operations for recorded settlements
type SettlementReader interface {
	// FindSettlementByID retrieves a specific recorded settlement by its ID.
	FindSettlementByID(ctx context.Context, settlementID string) (*domain.RecordedSettlement, error)

	// ListSettlementsByRoomID retrieves all recorded settlements of a room,
	// newest first.
	ListSettlementsByRoomID(ctx context.Context, roomID string) ([]domain.RecordedSettlement, error)
}

// SettlementWriter defines write operations for recorded settlements
type SettlementWriter interface {
	// SaveSettlement persists a recorded settlement.
	SaveSettlement(ctx context.Context, settlement domain.RecordedSettlement) error
}

// SettlementRepositoryFacade combines all settlement-related repository interfaces
type SettlementRepositoryFacade interface {
	SettlementReader
	SettlementWriter
}
