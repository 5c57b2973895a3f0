package dto

import (
	"time"

	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementResponse registro del log en respuestas HTTP.
type MovementResponse struct {
	ID                 string          `json:"id"`
	OrganizationID     string          `json:"organization_id"`
	UserID             string          `json:"user_id,omitempty"`
	SourcePlaceID      string          `json:"import_from_id,omitempty"`
	DestinationPlaceID string          `json:"export_to_id,omitempty"`
	Kind               string          `json:"record_type"`
	VariantID          string          `json:"fish_variant_id"`
	WeighPlaceID       string          `json:"weigh_place_id,omitempty"`
	Quantity           decimal.Decimal `json:"weight"`
	Unit               string          `json:"weight_unit"`
	IsSP               bool            `json:"is_SP"`
	DiscountID         string          `json:"discount_id,omitempty"`
	Active             bool            `json:"is_active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewMovementResponse convierte la entidad.
func NewMovementResponse(m *entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:                 m.ID,
		OrganizationID:     m.OrganizationID,
		UserID:             m.UserID,
		SourcePlaceID:      m.SourcePlaceID,
		DestinationPlaceID: m.DestinationPlaceID,
		Kind:               string(m.Kind),
		VariantID:          m.VariantID,
		WeighPlaceID:       m.WeighPlaceID,
		Quantity:           m.Quantity,
		Unit:               string(m.Unit),
		IsSP:               m.IsSP,
		DiscountID:         m.DiscountID,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// BillResponse cabecera de venta en respuestas HTTP. Items solo en el detalle.
type BillResponse struct {
	ID              string             `json:"id"`
	OrganizationID  string             `json:"organization_id"`
	BillerUserID    string             `json:"user_id,omitempty"`
	SalePlaceID     string             `json:"bill_place_id,omitempty"`
	GrossPrice      decimal.Decimal    `json:"price"`
	DiscountID      string             `json:"discount_id,omitempty"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	BilledAmount    decimal.Decimal    `json:"billed_amount"`
	DiscountedPrice decimal.Decimal    `json:"discounted_price"`
	PayType         string             `json:"pay_type"`
	Active          bool               `json:"is_active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Items           []BillItemResponse `json:"bill_items,omitempty"`
}

// NewBillResponse convierte la entidad (sin líneas).
func NewBillResponse(b *entity.Bill) BillResponse {
	return BillResponse{
		ID:              b.ID,
		OrganizationID:  b.OrganizationID,
		BillerUserID:    b.BillerUserID,
		SalePlaceID:     b.SalePlaceID,
		GrossPrice:      b.GrossPrice,
		DiscountID:      b.DiscountID,
		TotalAmount:     b.TotalAmount,
		BilledAmount:    b.BilledAmount,
		DiscountedPrice: b.DiscountedPrice,
		PayType:         string(b.PayType),
		Active:          b.Active,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// NewBillDetailResponse cabecera con sus líneas.
func NewBillDetailResponse(d *BillDetail) BillResponse {
	resp := NewBillResponse(d.Bill)
	resp.Items = make([]BillItemResponse, 0, len(d.Items))
	for _, it := range d.Items {
		resp.Items = append(resp.Items, NewBillItemResponse(it))
	}
	return resp
}

// StockResponse fila del libro en respuestas HTTP.
type StockResponse struct {
	ID        string          `json:"id"`
	PlaceID   string          `json:"place_id"`
	VariantID string          `json:"fish_variant_id"`
	IsSP      bool            `json:"is_SP"`
	Unit      string          `json:"weight_unit"`
	Quantity  decimal.Decimal `json:"weight"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewStockResponse convierte la entidad.
func NewStockResponse(s *entity.StockBalance) StockResponse {
	return StockResponse{
		ID:        s.ID,
		PlaceID:   s.PlaceID,
		VariantID: s.VariantID,
		IsSP:      s.IsSP,
		Unit:      string(s.Unit),
		Quantity:  s.Quantity,
		UpdatedAt: s.UpdatedAt,
	}
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	Items []T          `json:"items"`
	Page  PageResponse `json:"page"`
}
