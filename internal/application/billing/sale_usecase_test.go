package billing_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/application/billing"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/inventory"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/jhoicas/farms-ledger/internal/testutil/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memstore.Store
	uc       *billing.SaleUseCase
	notifier *recordingNotifier
	actor    dto.Actor
	market   string
	tilapia  string
	cachama  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		notifier: &recordingNotifier{},
		market:   uuid.NewString(),
		tilapia:  uuid.NewString(),
		cachama:  uuid.NewString(),
	}
	org := uuid.NewString()
	user := uuid.NewString()
	f.store.AddPlace(org, f.market)
	f.store.AddVariant(org, f.tilapia, "Tilapia")
	f.store.AddVariant(org, f.cachama, "Cachama")
	f.store.AddUser(org, user)
	f.actor = dto.Actor{OrganizationID: org, UserID: user, PlaceID: f.market}

	ledger := inventory.NewStockLedger(false)
	f.uc = billing.NewSaleUseCase(f.store.TxRunner(), ledger, f.store.Bills(), f.store.References(), f.notifier, nil)

	ctx := context.Background()
	for _, v := range []string{f.tilapia, f.cachama} {
		_, err := ledger.ApplyDelta(ctx, f.store.Stocks(), f.key(v), decimal.NewFromInt(10))
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) key(variant string) entity.StockKey {
	return entity.StockKey{PlaceID: f.market, VariantID: variant, Unit: entity.UnitKilograms}
}

func (f *fixture) balance(t *testing.T, variant string) string {
	t.Helper()
	q, _ := f.store.Balance(f.key(variant))
	return q.String()
}

func (f *fixture) saleCmd(tilapia, cachama int64) dto.CreateSaleCommand {
	return dto.CreateSaleCommand{
		Actor:   f.actor,
		PayType: entity.PayTypeCash,
		Amounts: dto.SaleAmounts{
			GrossPrice:   decimal.NewFromInt(80000),
			TotalAmount:  decimal.NewFromInt(80000),
			BilledAmount: decimal.NewFromInt(80000),
		},
		Lines: []dto.SaleLineInput{
			{VariantID: f.tilapia, Quantity: decimal.NewFromInt(tilapia), Unit: entity.UnitKilograms, LinePrice: decimal.NewFromInt(50000)},
			{VariantID: f.cachama, Quantity: decimal.NewFromInt(cachama), Unit: entity.UnitKilograms, LinePrice: decimal.NewFromInt(30000)},
		},
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	bills []string
}

func (n *recordingNotifier) MovementRecorded(context.Context, string, ...string) {}

func (n *recordingNotifier) SaleRecorded(_ context.Context, _ string, billID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bills = append(n.bills, billID)
}

func TestCreateSale_DescuentaCadaLinea(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.CreateSale(context.Background(), f.saleCmd(5, 3))
	require.NoError(t, err)

	assert.NotEmpty(t, res.BillID)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "5", f.balance(t, f.tilapia))
	assert.Equal(t, "7", f.balance(t, f.cachama))

	stock, err := f.store.Stocks().GetByID(context.Background(), res.StockID)
	require.NoError(t, err)
	require.NotNil(t, stock)
	assert.Equal(t, f.cachama, stock.VariantID, "el stock_id devuelto es el de la última línea")

	bill, err := f.store.Bills().GetByID(context.Background(), res.BillID)
	require.NoError(t, err)
	assert.Equal(t, f.actor.UserID, bill.BillerUserID)
	assert.Equal(t, f.market, bill.SalePlaceID)
	assert.True(t, bill.Active)
	for _, it := range res.Items {
		assert.Equal(t, res.BillID, it.BillID)
		assert.True(t, it.Active)
	}
	assert.Equal(t, []string{res.BillID}, f.notifier.bills)
}

func TestCreateSale_StockInsuficienteNoDejaNada(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CreateSale(context.Background(), f.saleCmd(5, 11))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, "10", f.balance(t, f.tilapia), "el descuento de la primera línea se revierte")
	assert.Equal(t, "10", f.balance(t, f.cachama))
	_, _, bills, items := f.store.Counts()
	assert.Zero(t, bills)
	assert.Zero(t, items)
	assert.Empty(t, f.notifier.bills)
}

func TestCreateSale_FalloEnSegundoDeltaRevierte(t *testing.T) {
	f := newFixture(t)
	f.store.FailApplyDelta(2, errors.New("deadlock detectado"))

	_, err := f.uc.CreateSale(context.Background(), f.saleCmd(5, 3))
	require.Error(t, err)
	assert.ErrorIs(t, domain.Classify(err), domain.ErrInternal)

	assert.Equal(t, "10", f.balance(t, f.tilapia))
	assert.Equal(t, "10", f.balance(t, f.cachama))
	_, _, bills, items := f.store.Counts()
	assert.Zero(t, bills)
	assert.Zero(t, items)
}

func TestCreateSale_FalloEnLineasRevierteCabecera(t *testing.T) {
	f := newFixture(t)
	f.store.FailCreateItems(domain.ErrIntegrityConflict)

	_, err := f.uc.CreateSale(context.Background(), f.saleCmd(1, 1))
	require.ErrorIs(t, err, domain.ErrIntegrityConflict)

	_, _, bills, _ := f.store.Counts()
	assert.Zero(t, bills)
}

func TestCreateSale_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noLines := f.saleCmd(1, 1)
	noLines.Lines = nil

	badPay := f.saleCmd(1, 1)
	badPay.PayType = "CHEQUE"

	negAmount := f.saleCmd(1, 1)
	negAmount.Amounts.TotalAmount = decimal.NewFromInt(-1)

	zeroQty := f.saleCmd(0, 1)

	fineQty := f.saleCmd(1, 1)
	fineQty.Lines[0].Quantity = decimal.RequireFromString("2.0005")

	hugeQty := f.saleCmd(1, 1)
	hugeQty.Lines[1].Quantity = decimal.RequireFromString("12345678901234567.5")

	finePrice := f.saleCmd(1, 1)
	finePrice.Lines[0].LinePrice = decimal.RequireFromString("100.001")

	hugeAmount := f.saleCmd(1, 1)
	hugeAmount.Amounts.BilledAmount = decimal.RequireFromString("12345678901234567")

	unknownVariant := f.saleCmd(1, 1)
	unknownVariant.Lines[1].VariantID = uuid.NewString()

	unknownPlace := f.saleCmd(1, 1)
	unknownPlace.SalePlaceID = uuid.NewString()

	unknownDiscount := f.saleCmd(1, 1)
	unknownDiscount.DiscountID = uuid.NewString()

	cases := []struct {
		name string
		cmd  dto.CreateSaleCommand
		want error
	}{
		{"sin líneas", noLines, domain.ErrValidation},
		{"forma de pago", badPay, domain.ErrValidation},
		{"monto negativo", negAmount, domain.ErrValidation},
		{"cantidad cero", zeroQty, domain.ErrValidation},
		{"cantidad con más de tres decimales", fineQty, domain.ErrValidation},
		{"cantidad desbordada", hugeQty, domain.ErrValidation},
		{"precio con más de dos decimales", finePrice, domain.ErrValidation},
		{"monto desbordado", hugeAmount, domain.ErrValidation},
		{"variante inexistente", unknownVariant, domain.ErrReferenceNotFound},
		{"lugar inexistente", unknownPlace, domain.ErrReferenceNotFound},
		{"descuento inexistente", unknownDiscount, domain.ErrReferenceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.CreateSale(ctx, tc.cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, "10", f.balance(t, f.tilapia))
}

func TestEditSale_NoReconciliaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.CreateSale(ctx, f.saleCmd(2, 2))
	require.NoError(t, err)

	bill, err := f.uc.EditSale(ctx, dto.EditSaleCommand{
		Actor:   f.actor,
		BillID:  res.BillID,
		PayType: entity.PayTypeOnline,
		Amounts: dto.SaleAmounts{TotalAmount: decimal.NewFromInt(1000)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PayTypeOnline, bill.PayType)
	assert.Equal(t, f.market, bill.SalePlaceID, "sin lugar nuevo se conserva el anterior")

	stored, err := f.store.Bills().GetByID(ctx, res.BillID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "8", f.balance(t, f.tilapia))

	other := f.actor
	other.OrganizationID = uuid.NewString()
	_, err = f.uc.EditSale(ctx, dto.EditSaleCommand{Actor: other, BillID: res.BillID, PayType: entity.PayTypeCash})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestEditLineItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.CreateSale(ctx, f.saleCmd(2, 2))
	require.NoError(t, err)
	itemID := res.Items[0].ID

	item, err := f.uc.EditLineItem(ctx, dto.EditLineItemCommand{
		Actor:     f.actor,
		ItemID:    itemID,
		VariantID: f.tilapia,
		Quantity:  decimal.NewFromInt(9),
		LinePrice: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.UnitKilograms, item.Unit)
	assert.Equal(t, "8", f.balance(t, f.tilapia), "editar la línea no mueve el saldo")

	_, err = f.uc.EditLineItem(ctx, dto.EditLineItemCommand{
		Actor:     f.actor,
		ItemID:    itemID,
		VariantID: uuid.NewString(),
		Quantity:  decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)

	_, err = f.uc.EditLineItem(ctx, dto.EditLineItemCommand{Actor: f.actor, ItemID: uuid.NewString(), VariantID: f.tilapia, Quantity: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)

	_, err = f.uc.EditLineItem(ctx, dto.EditLineItemCommand{
		Actor:     f.actor,
		ItemID:    itemID,
		VariantID: f.tilapia,
		Quantity:  decimal.RequireFromString("0.0004"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "una cantidad que se redondearía a cero se rechaza")
}

func TestDeactivateBill_DesactivaLineasSinDevolverStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.CreateSale(ctx, f.saleCmd(2, 3))
	require.NoError(t, err)

	require.NoError(t, f.uc.DeactivateBill(ctx, f.actor, res.BillID))
	require.NoError(t, f.uc.DeactivateBill(ctx, f.actor, res.BillID), "desactivar dos veces no falla")

	bill, err := f.store.Bills().GetByID(ctx, res.BillID)
	require.NoError(t, err)
	assert.False(t, bill.Active)

	items, err := f.store.Bills().ListItems(ctx, repository.BillItemFilter{BillID: &res.BillID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.False(t, it.Active)
	}
	assert.Equal(t, "8", f.balance(t, f.tilapia))
	assert.Equal(t, "7", f.balance(t, f.cachama))
}

func TestDeactivateLineItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.uc.CreateSale(ctx, f.saleCmd(2, 3))
	require.NoError(t, err)

	require.NoError(t, f.uc.DeactivateLineItem(ctx, f.actor, res.Items[1].ID))
	require.NoError(t, f.uc.DeactivateLineItem(ctx, f.actor, res.Items[1].ID))

	active := true
	items, err := f.store.Bills().ListItems(ctx, repository.BillItemFilter{BillID: &res.BillID, Active: &active})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, res.Items[0].ID, items[0].ID)

	other := dto.Actor{OrganizationID: uuid.NewString()}
	assert.ErrorIs(t, f.uc.DeactivateLineItem(ctx, other, res.Items[0].ID), domain.ErrReferenceNotFound)
}
