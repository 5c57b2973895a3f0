package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/ports"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/jhoicas/farms-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// SaleUseCase crea, edita y desactiva ventas. La creación escribe cabecera, líneas y
// descuentos de stock en una sola transacción.
type SaleUseCase struct {
	txRunner BillingTxRunner
	ledger   StockLedger
	billRepo repository.BillRepository
	refs     repository.ReferenceRepository
	notifier ports.Notifier
	logger   *logger.Logger
	now      func() time.Time
}

// NewSaleUseCase construye el caso de uso. notifier y log pueden ser nil.
func NewSaleUseCase(
	txRunner BillingTxRunner,
	ledger StockLedger,
	billRepo repository.BillRepository,
	refs repository.ReferenceRepository,
	notifier ports.Notifier,
	log *logger.Logger,
) *SaleUseCase {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SaleUseCase{
		txRunner: txRunner,
		ledger:   ledger,
		billRepo: billRepo,
		refs:     refs,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

// CreateSale inserta la factura, sus líneas en bloque y descuenta cada línea del saldo del
// lugar de venta. Si algo falla no queda cabecera, ni líneas, ni descuento parcial.
// El StockID del resultado corresponde a la ÚLTIMA línea procesada.
func (uc *SaleUseCase) CreateSale(ctx context.Context, cmd dto.CreateSaleCommand) (*dto.SaleResult, error) {
	if cmd.OrganizationID == "" {
		return nil, fmt.Errorf("%w: organización requerida", domain.ErrValidation)
	}
	if len(cmd.Lines) == 0 {
		return nil, fmt.Errorf("%w: la venta no tiene líneas", domain.ErrValidation)
	}
	salePlace := firstNonEmpty(cmd.SalePlaceID, cmd.PlaceID)
	if salePlace == "" {
		return nil, fmt.Errorf("%w: lugar de venta requerido", domain.ErrValidation)
	}
	biller := firstNonEmpty(cmd.BillerUserID, cmd.UserID)
	if err := validateHeader(cmd.PayType, cmd.Amounts); err != nil {
		return nil, err
	}
	for i, line := range cmd.Lines {
		if err := validateLine(line.VariantID, line.Quantity, line.Unit, line.LinePrice); err != nil {
			return nil, fmt.Errorf("línea %d: %w", i, err)
		}
	}

	// Validar referencias (fuera de la tx, solo lectura)
	if err := uc.resolveHeaderRefs(ctx, cmd.OrganizationID, biller, salePlace, cmd.DiscountID); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(cmd.Lines))
	for _, line := range cmd.Lines {
		if seen[line.VariantID] {
			continue
		}
		if err := requireRef(ctx, "variante", line.VariantID, func() (bool, error) {
			return uc.refs.VariantExists(ctx, cmd.OrganizationID, line.VariantID)
		}); err != nil {
			return nil, err
		}
		seen[line.VariantID] = true
	}

	now := uc.now()
	bill := &entity.Bill{
		ID:              uuid.New().String(),
		OrganizationID:  cmd.OrganizationID,
		BillerUserID:    biller,
		SalePlaceID:     salePlace,
		GrossPrice:      cmd.Amounts.GrossPrice,
		DiscountID:      cmd.DiscountID,
		TotalAmount:     cmd.Amounts.TotalAmount,
		BilledAmount:    cmd.Amounts.BilledAmount,
		DiscountedPrice: cmd.Amounts.DiscountedPrice,
		PayType:         cmd.PayType,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	items := make([]*entity.BillItem, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		items = append(items, &entity.BillItem{
			ID:        uuid.New().String(),
			BillID:    bill.ID,
			Quantity:  line.Quantity,
			Unit:      line.Unit.OrDefault(),
			LinePrice: line.LinePrice,
			VariantID: line.VariantID,
			IsSP:      line.IsSP,
			Active:    true,
		})
	}

	var lastStockID string
	err := uc.txRunner.RunBilling(ctx, func(stockRepo repository.StockRepository, billRepo repository.BillRepository) error {
		if err := billRepo.Create(ctx, bill); err != nil {
			return err
		}
		if err := billRepo.CreateItems(ctx, items); err != nil {
			return err
		}
		// Si el libro retorna error (ej: sin stock), se retorna y se hace rollback (atomicidad).
		for _, item := range items {
			row, err := uc.ledger.ApplyDelta(ctx, stockRepo, item.StockKey(salePlace), item.Quantity.Neg())
			if err != nil {
				return err
			}
			lastStockID = row.ID
		}
		return nil
	})
	if err != nil {
		uc.abort("create_sale", cmd.OrganizationID, err)
		return nil, err
	}

	uc.logger.Info().Str("op", "create_sale").Str("organization_id", cmd.OrganizationID).
		Str("bill_id", bill.ID).Int("items", len(items)).Msg("venta registrada")
	uc.notifier.SaleRecorded(context.WithoutCancel(ctx), cmd.OrganizationID, bill.ID)
	return &dto.SaleResult{BillID: bill.ID, Items: items, StockID: lastStockID}, nil
}

// EditSale actualiza la cabecera de una venta. No reconcilia stock ni reactiva.
func (uc *SaleUseCase) EditSale(ctx context.Context, cmd dto.EditSaleCommand) (*entity.Bill, error) {
	bill, err := uc.loadBill(ctx, cmd.OrganizationID, cmd.BillID)
	if err != nil {
		return nil, err
	}
	if err := validateHeader(cmd.PayType, cmd.Amounts); err != nil {
		return nil, err
	}
	biller := firstNonEmpty(cmd.BillerUserID, bill.BillerUserID)
	salePlace := firstNonEmpty(cmd.SalePlaceID, bill.SalePlaceID)
	if err := uc.resolveHeaderRefs(ctx, cmd.OrganizationID, biller, salePlace, cmd.DiscountID); err != nil {
		return nil, err
	}

	bill.BillerUserID = biller
	bill.SalePlaceID = salePlace
	bill.DiscountID = cmd.DiscountID
	bill.PayType = cmd.PayType
	bill.GrossPrice = cmd.Amounts.GrossPrice
	bill.TotalAmount = cmd.Amounts.TotalAmount
	bill.BilledAmount = cmd.Amounts.BilledAmount
	bill.DiscountedPrice = cmd.Amounts.DiscountedPrice
	bill.UpdatedAt = uc.now()
	if err := uc.billRepo.Update(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// EditLineItem actualiza una línea. No reconcilia stock ni reactiva.
func (uc *SaleUseCase) EditLineItem(ctx context.Context, cmd dto.EditLineItemCommand) (*entity.BillItem, error) {
	item, err := uc.loadItem(ctx, cmd.OrganizationID, cmd.ItemID)
	if err != nil {
		return nil, err
	}
	unit := cmd.Unit.OrDefault()
	if err := validateLine(cmd.VariantID, cmd.Quantity, unit, cmd.LinePrice); err != nil {
		return nil, err
	}
	if cmd.VariantID != item.VariantID {
		if err := requireRef(ctx, "variante", cmd.VariantID, func() (bool, error) {
			return uc.refs.VariantExists(ctx, cmd.OrganizationID, cmd.VariantID)
		}); err != nil {
			return nil, err
		}
	}

	item.VariantID = cmd.VariantID
	item.Quantity = cmd.Quantity
	item.Unit = unit
	item.LinePrice = cmd.LinePrice
	item.IsSP = cmd.IsSP
	if err := uc.billRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeactivateBill desactiva la factura y todas sus líneas en una transacción. No revierte stock.
// Desactivar una factura ya inactiva no hace nada.
func (uc *SaleUseCase) DeactivateBill(ctx context.Context, actor dto.Actor, billID string) error {
	bill, err := uc.loadBill(ctx, actor.OrganizationID, billID)
	if err != nil {
		return err
	}
	now := uc.now()
	if !bill.Deactivate(now) {
		return nil
	}
	return uc.txRunner.RunBilling(ctx, func(_ repository.StockRepository, billRepo repository.BillRepository) error {
		return billRepo.DeactivateWithItems(ctx, billID, now)
	})
}

// DeactivateLineItem desactiva una sola línea. No revierte stock.
func (uc *SaleUseCase) DeactivateLineItem(ctx context.Context, actor dto.Actor, itemID string) error {
	item, err := uc.loadItem(ctx, actor.OrganizationID, itemID)
	if err != nil {
		return err
	}
	if !item.Active {
		return nil
	}
	return uc.billRepo.DeactivateItem(ctx, itemID)
}

func (uc *SaleUseCase) loadBill(ctx context.Context, organizationID, billID string) (*entity.Bill, error) {
	if organizationID == "" || billID == "" {
		return nil, fmt.Errorf("%w: organización y factura requeridas", domain.ErrValidation)
	}
	bill, err := uc.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill == nil || bill.OrganizationID != organizationID {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, billID)
	}
	return bill, nil
}

func (uc *SaleUseCase) loadItem(ctx context.Context, organizationID, itemID string) (*entity.BillItem, error) {
	if organizationID == "" || itemID == "" {
		return nil, fmt.Errorf("%w: organización y línea requeridas", domain.ErrValidation)
	}
	item, err := uc.billRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: línea %s", domain.ErrReferenceNotFound, itemID)
	}
	if _, err := uc.loadBill(ctx, organizationID, item.BillID); err != nil {
		return nil, fmt.Errorf("%w: línea %s", domain.ErrReferenceNotFound, itemID)
	}
	return item, nil
}

func (uc *SaleUseCase) resolveHeaderRefs(ctx context.Context, organizationID, billerUserID, salePlaceID, discountID string) error {
	if salePlaceID != "" {
		if err := requireRef(ctx, "lugar", salePlaceID, func() (bool, error) {
			return uc.refs.PlaceExists(ctx, organizationID, salePlaceID)
		}); err != nil {
			return err
		}
	}
	if billerUserID != "" {
		if err := requireRef(ctx, "usuario", billerUserID, func() (bool, error) {
			return uc.refs.UserExists(ctx, organizationID, billerUserID)
		}); err != nil {
			return err
		}
	}
	if discountID != "" {
		if err := requireRef(ctx, "descuento", discountID, func() (bool, error) {
			return uc.refs.DiscountExists(ctx, organizationID, discountID)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (uc *SaleUseCase) abort(op, organizationID string, err error) {
	ev := uc.logger.Warn()
	if domain.Classify(err) == domain.ErrInternal {
		ev = uc.logger.Error()
	}
	ev.Err(err).Str("op", op).Str("organization_id", organizationID).Msg("venta revertida")
}

func requireRef(ctx context.Context, what, id string, exists func() (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := exists()
	if err != nil {
		return fmt.Errorf("resolve %s: %w", what, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", domain.ErrReferenceNotFound, what, id)
	}
	return nil
}

func validateHeader(payType entity.PayType, a dto.SaleAmounts) error {
	if !payType.IsValid() {
		return fmt.Errorf("%w: forma de pago %q", domain.ErrValidation, payType)
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"gross_price", a.GrossPrice},
		{"total_amount", a.TotalAmount},
		{"billed_amount", a.BilledAmount},
		{"discounted_price", a.DiscountedPrice},
	}
	for _, v := range amounts {
		if err := entity.CheckAmount(v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(variantID string, qty decimal.Decimal, unit entity.WeightUnit, price decimal.Decimal) error {
	if variantID == "" {
		return fmt.Errorf("%w: variante requerida", domain.ErrValidation)
	}
	if err := entity.CheckQuantity(qty); err != nil {
		return err
	}
	if !unit.OrDefault().IsValid() {
		return fmt.Errorf("%w: unidad %q", domain.ErrValidation, unit)
	}
	return entity.CheckAmount("line_price", price)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
