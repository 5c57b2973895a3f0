package billing

import (
	"context"
	"fmt"

	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

// ReceiptUseCase genera el comprobante PDF de una venta.
type ReceiptUseCase struct {
	billRepo  repository.BillRepository
	generator ReceiptPDFGenerator
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(billRepo repository.BillRepository, generator ReceiptPDFGenerator) *ReceiptUseCase {
	return &ReceiptUseCase{billRepo: billRepo, generator: generator}
}

// DownloadReceipt carga la factura y sus líneas activas y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrReferenceNotFound si la factura no existe o es de otra organización.
func (uc *ReceiptUseCase) DownloadReceipt(ctx context.Context, actor dto.Actor, billID string) ([]byte, string, error) {
	bill, err := uc.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, "", fmt.Errorf("receipt: get bill: %w", err)
	}
	if bill == nil || bill.OrganizationID != actor.OrganizationID {
		return nil, "", fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, billID)
	}

	active := true
	items, err := uc.billRepo.ListItems(ctx, repository.BillItemFilter{
		BillID:   &bill.ID,
		Active:   &active,
		Ordering: repository.DefaultBillItemOrdering,
	})
	if err != nil {
		return nil, "", fmt.Errorf("receipt: list items: %w", err)
	}

	pdfBytes, err := uc.generator.GenerateBillReceipt(ctx, bill, items)
	if err != nil {
		return nil, "", err
	}
	return pdfBytes, fmt.Sprintf("venta-%s.pdf", bill.ID), nil
}
