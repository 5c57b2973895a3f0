package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordKind tipo de movimiento en el log.
type RecordKind string

// Tipos de movimiento.
const (
	RecordKindImport RecordKind = "IMPORT" // entrada a DestinationPlaceID
	RecordKindExport RecordKind = "EXPORT" // salida desde SourcePlaceID
)

// IsValid indica si el tipo es conocido.
func (k RecordKind) IsValid() bool {
	return k == RecordKindImport || k == RecordKindExport
}

// MovementRecord entrada append-only del log de movimientos.
// Los campos opcionales usan "" como ausencia (NULL en la BD).
// Inmutable salvo Active; nunca se borra físicamente.
type MovementRecord struct {
	ID                 string
	OrganizationID     string
	UserID             string
	SourcePlaceID      string
	DestinationPlaceID string
	Kind               RecordKind
	VariantID          string
	WeighPlaceID       string
	Quantity           decimal.Decimal
	Unit               WeightUnit
	IsSP               bool
	DiscountID         string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Deactivate pasa el registro a inactivo. Devuelve false si ya lo estaba.
func (r *MovementRecord) Deactivate(now time.Time) bool {
	if !r.Active {
		return false
	}
	r.Active = false
	r.UpdatedAt = now
	return true
}

// StockKey llave del saldo que este movimiento afectaría en el lugar indicado.
func (r *MovementRecord) StockKey(placeID string) StockKey {
	return StockKey{PlaceID: placeID, VariantID: r.VariantID, IsSP: r.IsSP, Unit: r.Unit}
}
