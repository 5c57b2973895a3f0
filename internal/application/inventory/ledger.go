package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// StockLedger aplica deltas al libro de saldos. No guarda estado propio: opera sobre el
// StockRepository de la transacción en curso, así el delta y su registro se confirman juntos.
type StockLedger struct {
	allowBackorder bool
}

// NewStockLedger construye el libro. Con allowBackorder=true se aceptan saldos negativos.
func NewStockLedger(allowBackorder bool) *StockLedger {
	return &StockLedger{allowBackorder: allowBackorder}
}

// AllowsBackorder indica si el libro acepta saldos negativos.
func (l *StockLedger) AllowsBackorder() bool {
	return l.allowBackorder
}

// GetOrCreate devuelve la fila de la llave, creándola en cero si no existe.
func (l *StockLedger) GetOrCreate(ctx context.Context, stockRepo repository.StockRepository, key entity.StockKey) (*entity.StockBalance, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return stockRepo.GetOrCreate(ctx, key)
}

// ApplyDelta suma delta al saldo de la llave con una sola sentencia atómica.
// Si el saldo resultante es negativo devuelve ErrInsufficientStock; el llamador debe
// abortar la transacción (el runner hace Rollback al recibir el error).
func (l *StockLedger) ApplyDelta(ctx context.Context, stockRepo repository.StockRepository, key entity.StockKey, delta decimal.Decimal) (*entity.StockBalance, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	row, err := stockRepo.ApplyDelta(ctx, key, delta)
	if err != nil {
		return nil, err
	}
	if row.Quantity.IsNegative() && !l.allowBackorder {
		return nil, fmt.Errorf("%w: %s quedaría en %s", domain.ErrInsufficientStock, key, row.Quantity.String())
	}
	return row, nil
}

func validateKey(key entity.StockKey) error {
	if key.PlaceID == "" || key.VariantID == "" {
		return fmt.Errorf("%w: llave de stock sin lugar o variante", domain.ErrValidation)
	}
	if !key.Unit.IsValid() {
		return fmt.Errorf("%w: unidad %q", domain.ErrValidation, key.Unit)
	}
	return nil
}
