package query_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/inventory"
	"github.com/jhoicas/farms-ledger/internal/application/query"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/jhoicas/farms-ledger/internal/testutil/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memstore.Store
	uc      *query.UseCase
	actor   dto.Actor
	harbor  string
	variant string
}

// newFixture registra count entradas de 1..count kg en el puerto.
func newFixture(t *testing.T, count int) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(), harbor: uuid.NewString(), variant: uuid.NewString()}
	org := uuid.NewString()
	f.store.AddPlace(org, f.harbor)
	f.store.AddVariant(org, f.variant, "Bocachico")
	f.actor = dto.Actor{OrganizationID: org, PlaceID: f.harbor}
	f.uc = query.NewUseCase(f.store.Movements(), f.store.Bills(), f.store.Stocks(), f.store.References())

	transfer := inventory.NewTransferUseCase(
		f.store.TxRunner(),
		inventory.NewMovementLog(f.store.References(), f.store.Movements()),
		inventory.NewStockLedger(false), nil, nil,
	)
	for i := 1; i <= count; i++ {
		_, err := transfer.ReceiveInbound(context.Background(), dto.ReceiveInboundCommand{
			Actor: f.actor,
			Goods: dto.GoodsInput{VariantID: f.variant, Quantity: decimal.NewFromInt(int64(i)), IsSP: i%2 == 0},
		})
		require.NoError(t, err)
	}
	return f
}

func TestListMovements_MismoFiltroMismoResultado(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()
	filter := repository.MovementFilter{Ordering: "quantity", Page: repository.Page{Limit: 3, Offset: 1}}

	first, err := f.uc.ListMovements(ctx, f.actor, filter)
	require.NoError(t, err)
	second, err := f.uc.ListMovements(ctx, f.actor, filter)
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, "2", first[0].Quantity.String())
	assert.Equal(t, "4", first[2].Quantity.String())
}

func TestListMovements_Filtros(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	sp := true
	rows, err := f.uc.ListMovements(ctx, f.actor, repository.MovementFilter{IsSP: &sp})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	kind := entity.RecordKindExport
	rows, err = f.uc.ListMovements(ctx, f.actor, repository.MovementFilter{Kind: &kind})
	require.NoError(t, err)
	assert.Empty(t, rows)

	foreign := dto.Actor{OrganizationID: uuid.NewString()}
	rows, err = f.uc.ListMovements(ctx, foreign, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows, "nunca se listan registros de otra organización")

	// La organización del filtro la impone el llamador.
	rows, err = f.uc.ListMovements(ctx, foreign, repository.MovementFilter{OrganizationID: &f.actor.OrganizationID})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = f.uc.ListMovements(ctx, f.actor, repository.MovementFilter{Ordering: "id; DROP TABLE"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.ListMovements(ctx, dto.Actor{}, repository.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListMovements_RangoIncompletoSeIgnora(t *testing.T) {
	f := newFixture(t, 3)
	future := time.Now().Add(time.Hour)

	rows, err := f.uc.ListMovements(context.Background(), f.actor, repository.MovementFilter{
		Created: repository.TimeRange{Start: &future},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestGetMovement(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	rows, err := f.uc.ListMovements(ctx, f.actor, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rec, err := f.uc.GetMovement(ctx, f.actor, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, rec.ID)

	_, err = f.uc.GetMovement(ctx, dto.Actor{OrganizationID: uuid.NewString()}, rows[0].ID)
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestStocks(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	rows, err := f.uc.ListStocks(ctx, f.actor, repository.StockFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2, "una fila por calidad (SP y no SP)")
	assert.Equal(t, "6", rows[0].Quantity.String(), "orden por defecto: mayor cantidad primero")
	assert.Equal(t, "4", rows[1].Quantity.String())

	row, err := f.uc.GetStock(ctx, f.actor, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, row.ID)

	_, err = f.uc.GetStock(ctx, dto.Actor{OrganizationID: uuid.NewString()}, rows[0].ID)
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
	_, err = f.uc.GetStock(ctx, f.actor, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

func TestGetBill_NoEncontrada(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.uc.GetBill(context.Background(), f.actor, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrReferenceNotFound)
}

// mapCache caché en memoria que serializa en JSON como Redis.
type mapCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	gets   int
	hits   int
	getErr error
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *mapCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.ttls[key] = ttl
	return nil
}

func TestCachedService_MemoizaListados(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	cache := newMapCache()
	svc := query.NewCachedService(f.uc, cache, 0, nil)
	filter := repository.StockFilter{}

	first, err := svc.ListStocks(ctx, f.actor, filter)
	require.NoError(t, err)
	require.Len(t, cache.data, 1)
	for key, ttl := range cache.ttls {
		assert.Contains(t, key, query.KeyStockList+":"+f.actor.OrganizationID+":")
		assert.Equal(t, query.DefaultCacheTTL, ttl)
	}

	// Un movimiento nuevo no invalida la caché hasta que expire.
	_, err = f.store.Stocks().ApplyDelta(ctx, entity.StockKey{PlaceID: f.harbor, VariantID: f.variant, Unit: entity.UnitKilograms}, decimal.NewFromInt(100))
	require.NoError(t, err)

	second, err := svc.ListStocks(ctx, f.actor, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.True(t, first[i].Quantity.Equal(second[i].Quantity))
	}

	other := repository.StockFilter{Ordering: "updated_at"}
	_, err = svc.ListStocks(ctx, f.actor, other)
	require.NoError(t, err)
	assert.Len(t, cache.data, 2, "filtros distintos usan llaves distintas")
}

func TestCachedService_FalloDeCacheNoFallaLaConsulta(t *testing.T) {
	f := newFixture(t, 2)
	cache := newMapCache()
	cache.getErr = errors.New("redis caído")
	svc := query.NewCachedService(f.uc, cache, time.Minute, nil)

	rows, err := svc.ListMovements(context.Background(), f.actor, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCachedService_GetNoSeCachea(t *testing.T) {
	f := newFixture(t, 1)
	cache := newMapCache()
	svc := query.NewCachedService(f.uc, cache, time.Minute, nil)

	rows, err := f.uc.ListMovements(context.Background(), f.actor, repository.MovementFilter{})
	require.NoError(t, err)
	_, err = svc.GetMovement(context.Background(), f.actor, rows[0].ID)
	require.NoError(t, err)
	assert.Zero(t, cache.gets)
}
