package query

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// Prefijos de llave de caché por listado.
const (
	KeyRecordList   = "record_list"
	KeyBillList     = "bill_list"
	KeyBillItemList = "bill_item_list"
	KeyStockList    = "stock_list"
)

// DefaultCacheTTL vigencia por defecto de un listado en caché.
const DefaultCacheTTL = 10 * time.Minute

// Cache puerto de caché de lecturas. Get devuelve false si la llave no existe.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

var _ Service = (*CachedService)(nil)

// CachedService decora un Service y memoiza los listados durante ttl.
// No invalida en escrituras: un listado puede quedar desactualizado hasta que expire.
// Un fallo de la caché nunca falla la consulta; solo se registra.
type CachedService struct {
	next   Service
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedService envuelve next. ttl <= 0 usa DefaultCacheTTL.
func NewCachedService(next Service, cache Cache, ttl time.Duration, log *logger.Logger) *CachedService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CachedService{next: next, cache: cache, ttl: ttl, logger: log}
}

func (s *CachedService) ListMovements(ctx context.Context, actor dto.Actor, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	return cached(ctx, s, listKey(KeyRecordList, actor, filter), func() ([]*entity.MovementRecord, error) {
		return s.next.ListMovements(ctx, actor, filter)
	})
}

func (s *CachedService) GetMovement(ctx context.Context, actor dto.Actor, id string) (*entity.MovementRecord, error) {
	return s.next.GetMovement(ctx, actor, id)
}

func (s *CachedService) ListBills(ctx context.Context, actor dto.Actor, filter repository.BillFilter) ([]*entity.Bill, error) {
	return cached(ctx, s, listKey(KeyBillList, actor, filter), func() ([]*entity.Bill, error) {
		return s.next.ListBills(ctx, actor, filter)
	})
}

func (s *CachedService) GetBill(ctx context.Context, actor dto.Actor, id string) (*dto.BillDetail, error) {
	return s.next.GetBill(ctx, actor, id)
}

func (s *CachedService) ListBillItems(ctx context.Context, actor dto.Actor, filter repository.BillItemFilter) ([]*entity.BillItem, error) {
	return cached(ctx, s, listKey(KeyBillItemList, actor, filter), func() ([]*entity.BillItem, error) {
		return s.next.ListBillItems(ctx, actor, filter)
	})
}

func (s *CachedService) ListStocks(ctx context.Context, actor dto.Actor, filter repository.StockFilter) ([]*entity.StockBalance, error) {
	return cached(ctx, s, listKey(KeyStockList, actor, filter), func() ([]*entity.StockBalance, error) {
		return s.next.ListStocks(ctx, actor, filter)
	})
}

func (s *CachedService) GetStock(ctx context.Context, actor dto.Actor, id string) (*entity.StockBalance, error) {
	return s.next.GetStock(ctx, actor, id)
}

func cached[T any](ctx context.Context, s *CachedService, key string, load func() ([]T, error)) ([]T, error) {
	var out []T
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache get")
	} else if hit {
		return out, nil
	}

	out, err = load()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache set")
	}
	return out, nil
}

// listKey "<prefijo>:<organización>:<hash del filtro>".
func listKey(prefix string, actor dto.Actor, filter any) string {
	raw, _ := json.Marshal(filter)
	sum := sha256.Sum256(raw)
	return prefix + ":" + actor.OrganizationID + ":" + hex.EncodeToString(sum[:12])
}
