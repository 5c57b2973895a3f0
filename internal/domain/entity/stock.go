package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica una fila del libro: lugar + variante + calidad (SP) + unidad.
type StockKey struct {
	PlaceID   string
	VariantID string
	IsSP      bool
	Unit      WeightUnit
}

// String representación estable de la llave (logs y mapas en memoria).
func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s/%t/%s", k.PlaceID, k.VariantID, k.IsSP, k.Unit)
}

// StockBalance saldo agregado por llave. Se crea perezosamente en cero y solo cambia por deltas atómicos.
type StockBalance struct {
	ID        string
	PlaceID   string
	VariantID string
	IsSP      bool
	Unit      WeightUnit
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// Key devuelve la llave de la fila.
func (s *StockBalance) Key() StockKey {
	return StockKey{PlaceID: s.PlaceID, VariantID: s.VariantID, IsSP: s.IsSP, Unit: s.Unit}
}
