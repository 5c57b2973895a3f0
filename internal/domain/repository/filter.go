package repository

import (
	"time"

	"github.com/jhoicas/farms-ledger/internal/domain/entity"
)

// Ordenamientos por defecto por entidad ("-" = descendente).
const (
	DefaultMovementOrdering = "-created_at"
	DefaultBillOrdering     = "-created_at"
	DefaultBillItemOrdering = "variant_name"
	DefaultStockOrdering    = "-quantity"
)

// Page límites de paginación; Limit <= 0 significa sin límite.
type Page struct {
	Limit  int
	Offset int
}

// TimeRange rango de creación. Solo se aplica si vienen ambos extremos.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Complete indica si el rango debe aplicarse (ambos extremos presentes).
func (r TimeRange) Complete() bool {
	return r.Start != nil && r.End != nil
}

// MovementFilter predicados opcionales sobre movement_records. nil = sin filtrar.
type MovementFilter struct {
	OrganizationID     *string
	UserID             *string
	SourcePlaceID      *string
	DestinationPlaceID *string
	Kind               *entity.RecordKind
	VariantID          *string
	WeighPlaceID       *string
	DiscountID         *string
	IsSP               *bool
	Active             *bool
	Created            TimeRange
	Ordering           string
	Page               Page
}

// BillFilter predicados opcionales sobre bills.
type BillFilter struct {
	OrganizationID *string
	BillerUserID   *string
	SalePlaceID    *string
	DiscountID     *string
	PayType        *entity.PayType
	Active         *bool
	Created        TimeRange
	Ordering       string
	Page           Page
}

// BillItemFilter predicados opcionales sobre bill_items.
// OrganizationID se resuelve a través de la factura padre.
type BillItemFilter struct {
	OrganizationID *string
	BillID         *string
	VariantID      *string
	IsSP           *bool
	Active         *bool
	Ordering       string
	Page           Page
}

// StockFilter predicados opcionales sobre stock_balances.
// OrganizationID se resuelve a través del lugar.
type StockFilter struct {
	OrganizationID *string
	PlaceID        *string
	VariantID      *string
	IsSP           *bool
	Unit           *entity.WeightUnit
	Ordering       string
	Page           Page
}
