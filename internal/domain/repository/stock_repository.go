package repository

import (
	"context"

	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRepository puerto del libro de saldos. Usado dentro de transacciones.
type StockRepository interface {
	// GetOrCreate devuelve la fila de la llave, creándola en cero si no existe.
	GetOrCreate(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error)
	// ApplyDelta suma delta a la fila de la llave en una sola sentencia atómica
	// (creándola si no existe) y devuelve la fila resultante.
	ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockBalance, error)
	GetByID(ctx context.Context, id string) (*entity.StockBalance, error)
	List(ctx context.Context, filter StockFilter) ([]*entity.StockBalance, error)
}
