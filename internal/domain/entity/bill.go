package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayType forma de pago de una venta.
type PayType string

// Formas de pago.
const (
	PayTypeCash   PayType = "CASH"
	PayTypeOnline PayType = "ONLINE"
)

// IsValid indica si la forma de pago es conocida.
func (p PayType) IsValid() bool {
	return p == PayTypeCash || p == PayTypeOnline
}

// Bill cabecera de una venta. Los montos los envía el llamador; no se recalculan desde las líneas.
type Bill struct {
	ID              string
	OrganizationID  string
	BillerUserID    string
	SalePlaceID     string
	GrossPrice      decimal.Decimal
	DiscountID      string
	TotalAmount     decimal.Decimal
	BilledAmount    decimal.Decimal
	DiscountedPrice decimal.Decimal
	PayType         PayType
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Deactivate pasa la factura a inactiva. Devuelve false si ya lo estaba.
func (b *Bill) Deactivate(now time.Time) bool {
	if !b.Active {
		return false
	}
	b.Active = false
	b.UpdatedAt = now
	return true
}

// BillItem línea de una venta.
type BillItem struct {
	ID        string
	BillID    string
	Quantity  decimal.Decimal
	Unit      WeightUnit
	LinePrice decimal.Decimal
	VariantID string
	IsSP      bool
	Active    bool
}

// StockKey llave del saldo que descuenta esta línea en el lugar de venta.
func (i *BillItem) StockKey(placeID string) StockKey {
	return StockKey{PlaceID: placeID, VariantID: i.VariantID, IsSP: i.IsSP, Unit: i.Unit}
}
