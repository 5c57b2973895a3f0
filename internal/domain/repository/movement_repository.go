package repository

import (
	"context"
	"time"

	"github.com/jhoicas/farms-ledger/internal/domain/entity"
)

// MovementRepository puerto de persistencia del log de movimientos (append-only).
type MovementRepository interface {
	Create(ctx context.Context, record *entity.MovementRecord) error
	GetByID(ctx context.Context, id string) (*entity.MovementRecord, error)
	// Deactivate marca active=false; no toca el saldo asociado.
	Deactivate(ctx context.Context, id string, now time.Time) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementRecord, error)
}
