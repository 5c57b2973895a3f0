package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
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
	uc       *inventory.TransferUseCase
	notifier *recordingNotifier
	actor    dto.Actor
	harbor   string
	market   string
	variant  string
}

func newFixture(t *testing.T, allowBackorder bool) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		notifier: &recordingNotifier{},
		harbor:   uuid.NewString(),
		market:   uuid.NewString(),
		variant:  uuid.NewString(),
	}
	org := uuid.NewString()
	user := uuid.NewString()
	f.store.AddPlace(org, f.harbor)
	f.store.AddPlace(org, f.market)
	f.store.AddVariant(org, f.variant, "Tilapia roja")
	f.store.AddUser(org, user)
	f.actor = dto.Actor{OrganizationID: org, UserID: user, PlaceID: f.harbor}

	movLog := inventory.NewMovementLog(f.store.References(), f.store.Movements())
	f.uc = inventory.NewTransferUseCase(f.store.TxRunner(), movLog, inventory.NewStockLedger(allowBackorder), f.notifier, nil)
	return f
}

func (f *fixture) goods(qty int64) dto.GoodsInput {
	return dto.GoodsInput{VariantID: f.variant, Quantity: decimal.NewFromInt(qty), Unit: entity.UnitKilograms}
}

func (f *fixture) goodsOf(qty string) dto.GoodsInput {
	return dto.GoodsInput{VariantID: f.variant, Quantity: decimal.RequireFromString(qty), Unit: entity.UnitKilograms}
}

func (f *fixture) key(place string) entity.StockKey {
	return entity.StockKey{PlaceID: place, VariantID: f.variant, Unit: entity.UnitKilograms}
}

func (f *fixture) receive(t *testing.T, qty int64) *dto.ReceiveInboundResult {
	t.Helper()
	res, err := f.uc.ReceiveInbound(context.Background(), dto.ReceiveInboundCommand{
		Actor:         f.actor,
		Goods:         f.goods(qty),
		SourcePlaceID: f.market,
	})
	require.NoError(t, err)
	return res
}

type recordingNotifier struct {
	mu        sync.Mutex
	movements []string
	bills     []string
}

func (n *recordingNotifier) MovementRecorded(_ context.Context, _ string, recordIDs ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.movements = append(n.movements, recordIDs...)
}

func (n *recordingNotifier) SaleRecorded(_ context.Context, _ string, billID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bills = append(n.bills, billID)
}

func TestReceiveInbound_SumaAlSaldoDelDestino(t *testing.T) {
	f := newFixture(t, false)

	res := f.receive(t, 10)

	assert.NotEmpty(t, res.ImportRecordID)
	assert.Empty(t, res.ExportRecordID)
	assert.NotEmpty(t, res.StockID)

	qty, ok := f.store.Balance(f.key(f.harbor))
	require.True(t, ok)
	assert.True(t, qty.Equal(decimal.NewFromInt(10)), "saldo = %s", qty)

	rec, err := f.store.Movements().GetByID(context.Background(), res.ImportRecordID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entity.RecordKindImport, rec.Kind)
	assert.Equal(t, f.market, rec.SourcePlaceID)
	assert.Equal(t, f.harbor, rec.DestinationPlaceID)
	assert.Equal(t, f.harbor, rec.WeighPlaceID, "el lugar de pesaje por defecto es el del llamador")
	assert.True(t, rec.Active)

	assert.Equal(t, []string{res.ImportRecordID}, f.notifier.movements)
}

func TestReceiveInbound_DestinoSiguienteNoTocaSaldos(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.uc.ReceiveInbound(context.Background(), dto.ReceiveInboundCommand{
		Actor:               f.actor,
		Goods:               f.goods(4),
		OnwardDestinationID: f.market,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ImportRecordID)
	assert.NotEmpty(t, res.ExportRecordID)
	assert.Empty(t, res.StockID)

	movements, stocks, _, _ := f.store.Counts()
	assert.Equal(t, 2, movements)
	assert.Equal(t, 0, stocks, "la mercancía en tránsito no crea filas de saldo")

	exp, err := f.store.Movements().GetByID(context.Background(), res.ExportRecordID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordKindExport, exp.Kind)
	assert.Equal(t, f.harbor, exp.SourcePlaceID)
	assert.Equal(t, f.market, exp.DestinationPlaceID)
}

func TestReceiveInbound_Validaciones(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  dto.ReceiveInboundCommand
		want error
	}{
		{"cantidad cero", dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goods(0)}, domain.ErrValidation},
		{"cantidad negativa", dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goods(-2)}, domain.ErrValidation},
		{"sin lugar del llamador", dto.ReceiveInboundCommand{Actor: dto.Actor{OrganizationID: f.actor.OrganizationID}, Goods: f.goods(1)}, domain.ErrValidation},
		{"cantidad bajo la escala", dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goodsOf("0.0004")}, domain.ErrValidation},
		{"cantidad con redondeo", dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goodsOf("2.0005")}, domain.ErrValidation},
		{"cantidad desbordada", dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goodsOf("12345678901234567.5")}, domain.ErrValidation},
		{"unidad desconocida", dto.ReceiveInboundCommand{Actor: f.actor, Goods: dto.GoodsInput{VariantID: f.variant, Quantity: decimal.NewFromInt(1), Unit: "oz"}}, domain.ErrValidation},
		{"variante inexistente", dto.ReceiveInboundCommand{Actor: f.actor, Goods: dto.GoodsInput{VariantID: uuid.NewString(), Quantity: decimal.NewFromInt(1)}}, domain.ErrReferenceNotFound},
		{"origen inexistente", dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goods(1), SourcePlaceID: uuid.NewString()}, domain.ErrReferenceNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.ReceiveInbound(ctx, tc.cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	movements, stocks, _, _ := f.store.Counts()
	assert.Zero(t, movements)
	assert.Zero(t, stocks)
}

func TestReceiveInbound_LugarDeOtraOrganizacion(t *testing.T) {
	f := newFixture(t, false)
	foreign := uuid.NewString()
	f.store.AddPlace(uuid.NewString(), foreign)

	_, err := f.uc.ReceiveInbound(context.Background(), dto.ReceiveInboundCommand{
		Actor:         f.actor,
		Goods:         f.goods(1),
		SourcePlaceID: foreign,
	})
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestDispatchOutbound_DescuentaDelLugarDelLlamador(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, 10)

	res, err := f.uc.DispatchOutbound(context.Background(), dto.DispatchCommand{Actor: f.actor, Goods: f.goods(4)})
	require.NoError(t, err)
	assert.NotEmpty(t, res.RecordID)

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(6)), "saldo = %s", qty)

	rec, err := f.store.Movements().GetByID(context.Background(), res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordKindExport, rec.Kind)
	assert.Equal(t, f.harbor, rec.SourcePlaceID)
	assert.Empty(t, rec.DestinationPlaceID)
}

func TestDispatchOutbound_StockInsuficienteRevierte(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, 10)

	_, err := f.uc.DispatchOutbound(context.Background(), dto.DispatchCommand{Actor: f.actor, Goods: f.goods(15)})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(10)), "el saldo no cambia: %s", qty)
	movements, _, _, _ := f.store.Counts()
	assert.Equal(t, 1, movements, "el EXPORT fallido no queda en el log")
}

func TestDispatchOutbound_BackorderPermiteSaldoNegativo(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.uc.DispatchOutbound(context.Background(), dto.DispatchCommand{Actor: f.actor, Goods: f.goods(3)})
	require.NoError(t, err)

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(-3)), "saldo = %s", qty)
}

func TestTransferBetweenPlaces(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, 10)
	ctx := context.Background()

	t.Run("destino requerido", func(t *testing.T) {
		_, err := f.uc.TransferBetweenPlaces(ctx, dto.DispatchCommand{Actor: f.actor, Goods: f.goods(1)})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("destino igual al origen", func(t *testing.T) {
		_, err := f.uc.TransferBetweenPlaces(ctx, dto.DispatchCommand{Actor: f.actor, Goods: f.goods(1), DestinationPlaceID: f.harbor})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
	t.Run("envía al mercado", func(t *testing.T) {
		res, err := f.uc.TransferBetweenPlaces(ctx, dto.DispatchCommand{Actor: f.actor, Goods: f.goods(7), DestinationPlaceID: f.market})
		require.NoError(t, err)

		qty, _ := f.store.Balance(f.key(f.harbor))
		assert.True(t, qty.Equal(decimal.NewFromInt(3)), "saldo = %s", qty)
		_, ok := f.store.Balance(f.key(f.market))
		assert.False(t, ok, "el destino recibe con su propia entrada")

		rec, err := f.store.Movements().GetByID(ctx, res.RecordID)
		require.NoError(t, err)
		assert.Equal(t, f.market, rec.DestinationPlaceID)
	})
}

func TestBulkReceive_ContinuaTrasUnaLineaFallida(t *testing.T) {
	f := newFixture(t, false)

	results, err := f.uc.BulkReceive(context.Background(), dto.BulkReceiveCommand{
		Actor: f.actor,
		Lines: []dto.BulkReceiveLine{
			{Goods: f.goods(5)},
			{Goods: dto.GoodsInput{VariantID: uuid.NewString(), Quantity: decimal.NewFromInt(2)}},
			{Goods: f.goods(0)},
			{Goods: f.goods(3), SourcePlaceID: f.market},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrReferenceNotFound)
	assert.ErrorIs(t, results[2].Err, domain.ErrValidation)
	assert.NoError(t, results[3].Err)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(8)), "saldo = %s", qty)
	movements, _, _, _ := f.store.Counts()
	assert.Equal(t, 2, movements)
	assert.Equal(t, []string{results[0].RecordID, results[3].RecordID}, f.notifier.movements)
}

func TestBulkReceive_SinLineas(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.uc.BulkReceive(context.Background(), dto.BulkReceiveCommand{Actor: f.actor})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBulkReceive_FalloDelLibroRevierteSoloEsaLinea(t *testing.T) {
	f := newFixture(t, false)
	boom := errors.New("conexión perdida")
	f.store.FailApplyDelta(2, boom)

	results, err := f.uc.BulkReceive(context.Background(), dto.BulkReceiveCommand{
		Actor: f.actor,
		Lines: []dto.BulkReceiveLine{{Goods: f.goods(1)}, {Goods: f.goods(2)}, {Goods: f.goods(4)}},
	})
	require.NoError(t, err)

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(5)), "saldo = %s", qty)
	movements, _, _, _ := f.store.Counts()
	assert.Equal(t, 2, movements, "el registro de la línea revertida no queda")
}

func TestDeactivate_NoRevierteSaldoYEsIdempotente(t *testing.T) {
	f := newFixture(t, false)
	res := f.receive(t, 10)
	ctx := context.Background()

	require.NoError(t, f.uc.Deactivate(ctx, f.actor, res.ImportRecordID))
	require.NoError(t, f.uc.Deactivate(ctx, f.actor, res.ImportRecordID))

	rec, err := f.store.Movements().GetByID(ctx, res.ImportRecordID)
	require.NoError(t, err)
	assert.False(t, rec.Active)

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(10)), "saldo = %s", qty)

	other := dto.Actor{OrganizationID: uuid.NewString()}
	assert.ErrorIs(t, f.uc.Deactivate(ctx, other, res.ImportRecordID), domain.ErrReferenceNotFound)
	assert.ErrorIs(t, f.uc.Deactivate(ctx, f.actor, uuid.NewString()), domain.ErrReferenceNotFound)
}

func TestConcurrentDeltas_SumaExacta(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.uc.ReceiveInbound(ctx, dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goods(10)})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.uc.DispatchOutbound(ctx, dto.DispatchCommand{Actor: f.actor, Goods: f.goods(3)})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(7)), "saldo = %s", qty)
}

func TestConcurrentDeltas_MuchasOperaciones(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, 20)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.ReceiveInbound(ctx, dto.ReceiveInboundCommand{Actor: f.actor, Goods: f.goods(1)})
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.DispatchOutbound(ctx, dto.DispatchCommand{Actor: f.actor, Goods: f.goods(1)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	qty, _ := f.store.Balance(f.key(f.harbor))
	assert.True(t, qty.Equal(decimal.NewFromInt(50)), "saldo = %s", qty)

	active := true
	recs, err := f.store.Movements().List(ctx, repository.MovementFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, recs, 71)
}
