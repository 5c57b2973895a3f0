package billing

import (
	"context"

	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye el libro de saldos y facturación.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		billRepo repository.BillRepository,
	) error) error
}

// StockLedger interfaz para integrar facturación con el libro de saldos.
// ApplyDelta usa el StockRepository del caller (misma transacción). Si retorna error
// (ej: ErrInsufficientStock), el caller debe hacer rollback.
type StockLedger interface {
	ApplyDelta(ctx context.Context, stockRepo repository.StockRepository, key entity.StockKey, delta decimal.Decimal) (*entity.StockBalance, error)
}

// ReceiptPDFGenerator genera el comprobante de venta en PDF.
type ReceiptPDFGenerator interface {
	GenerateBillReceipt(ctx context.Context, bill *entity.Bill, items []*entity.BillItem) ([]byte, error)
}
