package dto

import (
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SaleLineInput una línea de venta.
type SaleLineInput struct {
	VariantID string
	Quantity  decimal.Decimal
	Unit      entity.WeightUnit
	LinePrice decimal.Decimal
	IsSP      bool
}

// SaleAmounts montos de cabecera enviados por el llamador.
type SaleAmounts struct {
	GrossPrice      decimal.Decimal
	TotalAmount     decimal.Decimal
	BilledAmount    decimal.Decimal
	DiscountedPrice decimal.Decimal
}

// CreateSaleCommand venta: cabecera + N líneas + descuento de stock en el lugar de venta.
type CreateSaleCommand struct {
	Actor
	BillerUserID string // vacío = usuario del llamador
	SalePlaceID  string // vacío = lugar del llamador
	DiscountID   string
	PayType      entity.PayType
	Amounts      SaleAmounts
	Lines        []SaleLineInput
}

// SaleResult factura creada, sus líneas y la fila de stock de la ÚLTIMA línea procesada.
type SaleResult struct {
	BillID  string
	Items   []*entity.BillItem
	StockID string
}

// EditSaleCommand edición de cabecera; no reconcilia stock.
type EditSaleCommand struct {
	Actor
	BillID       string
	BillerUserID string
	SalePlaceID  string
	DiscountID   string
	PayType      entity.PayType
	Amounts      SaleAmounts
}

// EditLineItemCommand edición de una línea; no reconcilia stock.
type EditLineItemCommand struct {
	Actor
	ItemID    string
	VariantID string
	Quantity  decimal.Decimal
	Unit      entity.WeightUnit
	LinePrice decimal.Decimal
	IsSP      bool
}

// BillDetail cabecera con sus líneas.
type BillDetail struct {
	Bill  *entity.Bill
	Items []*entity.BillItem
}

// BillItemRequest línea en el cuerpo JSON de una venta.
type BillItemRequest struct {
	VariantID string          `json:"fish_variant_id"`
	Quantity  decimal.Decimal `json:"weight"`
	Unit      string          `json:"weight_unit,omitempty"`
	LinePrice decimal.Decimal `json:"price"`
	IsSP      bool            `json:"is_SP"`
}

// Line convierte a SaleLineInput.
func (r BillItemRequest) Line() SaleLineInput {
	return SaleLineInput{
		VariantID: r.VariantID,
		Quantity:  r.Quantity,
		Unit:      entity.WeightUnit(r.Unit).OrDefault(),
		LinePrice: r.LinePrice,
		IsSP:      r.IsSP,
	}
}

// BillRequest cuerpo de POST /api/bills y PATCH /api/bills/:id (sin items).
type BillRequest struct {
	BillerUserID    string            `json:"user_id,omitempty"`
	SalePlaceID     string            `json:"bill_place_id,omitempty"`
	GrossPrice      decimal.Decimal   `json:"price"`
	DiscountID      string            `json:"discount_id,omitempty"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	BilledAmount    decimal.Decimal   `json:"billed_amount"`
	DiscountedPrice decimal.Decimal   `json:"discounted_price"`
	PayType         string            `json:"pay_type,omitempty"`
	Items           []BillItemRequest `json:"bill_items,omitempty"`
}

// Amounts extrae los montos de cabecera.
func (r BillRequest) Amounts() SaleAmounts {
	return SaleAmounts{
		GrossPrice:      r.GrossPrice,
		TotalAmount:     r.TotalAmount,
		BilledAmount:    r.BilledAmount,
		DiscountedPrice: r.DiscountedPrice,
	}
}

// PayTypeOrDefault devuelve CASH cuando no viene forma de pago.
func (r BillRequest) PayTypeOrDefault() entity.PayType {
	if r.PayType == "" {
		return entity.PayTypeCash
	}
	return entity.PayType(r.PayType)
}

// SaleResponse respuesta de POST /api/bills.
type SaleResponse struct {
	BillID    string             `json:"bill_id"`
	StockID   string             `json:"stock_id"`
	BillItems []BillItemResponse `json:"bill_items"`
}

// BillItemResponse línea en respuestas.
type BillItemResponse struct {
	ID        string          `json:"id"`
	BillID    string          `json:"bill_id"`
	VariantID string          `json:"fish_variant_id"`
	Quantity  decimal.Decimal `json:"weight"`
	Unit      string          `json:"weight_unit"`
	LinePrice decimal.Decimal `json:"price"`
	IsSP      bool            `json:"is_SP"`
	Active    bool            `json:"is_active"`
}

// NewBillItemResponse convierte la entidad.
func NewBillItemResponse(i *entity.BillItem) BillItemResponse {
	return BillItemResponse{
		ID:        i.ID,
		BillID:    i.BillID,
		VariantID: i.VariantID,
		Quantity:  i.Quantity,
		Unit:      string(i.Unit),
		LinePrice: i.LinePrice,
		IsSP:      i.IsSP,
		Active:    i.Active,
	}
}
