package dto

import (
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// GoodsInput mercancía de un movimiento: variante, cantidad, unidad y calidad.
type GoodsInput struct {
	VariantID    string
	Quantity     decimal.Decimal
	Unit         entity.WeightUnit
	IsSP         bool
	DiscountID   string
	WeighPlaceID string // vacío = lugar del llamador
}

// ReceiveInboundCommand entrada de mercancía al lugar del llamador (desembarque).
// Con OnwardDestinationID la mercancía solo pasa: se registra IMPORT + EXPORT sin tocar el saldo.
type ReceiveInboundCommand struct {
	Actor
	Goods               GoodsInput
	SourcePlaceID       string
	DestinationPlaceID  string // vacío = lugar del llamador
	OnwardDestinationID string
}

// ReceiveInboundResult ids creados. ExportRecordID solo con destino siguiente; StockID solo sin él.
type ReceiveInboundResult struct {
	ImportRecordID string `json:"import_id"`
	ExportRecordID string `json:"export_id,omitempty"`
	StockID        string `json:"stock_id,omitempty"`
}

// DispatchCommand salida desde el lugar del llamador (venta o envío a otro lugar).
type DispatchCommand struct {
	Actor
	Goods              GoodsInput
	DestinationPlaceID string
}

// MovementResult registro creado y fila de stock afectada.
type MovementResult struct {
	RecordID string `json:"record_id"`
	StockID  string `json:"stock_id"`
}

// BulkReceiveLine una línea de una recepción en bloque.
type BulkReceiveLine struct {
	Goods         GoodsInput
	SourcePlaceID string
}

// BulkReceiveCommand recepción de varias líneas; cada línea es su propia transacción.
type BulkReceiveCommand struct {
	Actor
	Lines []BulkReceiveLine
}

// BulkReceiveLineResult resultado por línea. Err != nil si la línea se revirtió.
type BulkReceiveLineResult struct {
	Index    int
	RecordID string
	StockID  string
	Err      error
}

// GoodsRequest cuerpo JSON común de los endpoints de movimientos.
type GoodsRequest struct {
	SourcePlaceID      string          `json:"import_from_id,omitempty"`
	DestinationPlaceID string          `json:"export_to_id,omitempty"`
	VariantID          string          `json:"fish_variant_id"`
	WeighPlaceID       string          `json:"weigh_place_id,omitempty"`
	DiscountID         string          `json:"discount_id,omitempty"`
	Quantity           decimal.Decimal `json:"weight"`
	Unit               string          `json:"weight_unit,omitempty"`
	IsSP               bool            `json:"is_SP"`
}

// Goods convierte el cuerpo a GoodsInput.
func (r GoodsRequest) Goods() GoodsInput {
	return GoodsInput{
		VariantID:    r.VariantID,
		Quantity:     r.Quantity,
		Unit:         entity.WeightUnit(r.Unit).OrDefault(),
		IsSP:         r.IsSP,
		DiscountID:   r.DiscountID,
		WeighPlaceID: r.WeighPlaceID,
	}
}

// BulkReceiveRequest cuerpo de POST /api/records/stock.
type BulkReceiveRequest struct {
	Items []GoodsRequest `json:"items"`
}

// BulkReceiveLineResponse resultado por línea en la respuesta.
type BulkReceiveLineResponse struct {
	Index    int            `json:"index"`
	RecordID string         `json:"record_id,omitempty"`
	StockID  string         `json:"stock_id,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}
