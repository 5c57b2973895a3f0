package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Los repositorios con tx=false escriben en modo autocommit y se serializan con las transacciones.
type movementRepo struct {
	s  *Store
	tx bool
}

func (r *movementRepo) Create(ctx context.Context, rec *entity.MovementRecord) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if _, dup := r.s.data.movements[rec.ID]; dup {
		return fmt.Errorf("insert movement record: %w", domain.ErrIntegrityConflict)
	}
	r.s.data.movements[rec.ID] = *rec
	return nil
}

func (r *movementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.data.movements[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *movementRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.data.movements[id]
	if !ok {
		return fmt.Errorf("%w: registro %s", domain.ErrReferenceNotFound, id)
	}
	rec.Active = false
	rec.UpdatedAt = now
	r.s.data.movements[id] = rec
	return nil
}

func (r *movementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*entity.MovementRecord
	for _, m := range r.s.data.movements {
		if !eq(f.OrganizationID, m.OrganizationID) || !eq(f.UserID, m.UserID) ||
			!eq(f.SourcePlaceID, m.SourcePlaceID) || !eq(f.DestinationPlaceID, m.DestinationPlaceID) ||
			!eq(f.VariantID, m.VariantID) || !eq(f.WeighPlaceID, m.WeighPlaceID) ||
			!eq(f.DiscountID, m.DiscountID) || !eq(f.IsSP, m.IsSP) || !eq(f.Active, m.Active) ||
			!eq(f.Kind, m.Kind) || !inRange(f.Created, m.CreatedAt) {
			continue
		}
		rec := m
		rows = append(rows, &rec)
	}
	err := sortRows(rows, f.Ordering, repository.DefaultMovementOrdering, map[string]func(a, b *entity.MovementRecord) int{
		"created_at": func(a, b *entity.MovementRecord) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updated_at": func(a, b *entity.MovementRecord) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
		"quantity":   func(a, b *entity.MovementRecord) int { return a.Quantity.Cmp(b.Quantity) },
		"kind":       func(a, b *entity.MovementRecord) int { return cmp.Compare(a.Kind, b.Kind) },
	}, func(m *entity.MovementRecord) string { return m.ID })
	if err != nil {
		return nil, err
	}
	return page(rows, f.Page), nil
}

type stockRepo struct {
	s  *Store
	tx bool
}

func (r *stockRepo) GetOrCreate(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error) {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	row := r.s.row(key)
	return &row, nil
}

func (r *stockRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockBalance, error) {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.applyDeltaCalls++
	if r.s.failDeltaAt > 0 && r.s.applyDeltaCalls == r.s.failDeltaAt {
		return nil, fmt.Errorf("apply stock delta: %w", r.s.failDeltaErr)
	}
	row := r.s.row(key)
	row.Quantity = row.Quantity.Add(delta)
	row.UpdatedAt = r.s.now()
	r.s.data.stocks[key.String()] = row
	return &row, nil
}

// row devuelve la fila de la llave creándola en cero. Requiere mu tomado.
func (s *Store) row(key entity.StockKey) entity.StockBalance {
	row, ok := s.data.stocks[key.String()]
	if !ok {
		row = entity.StockBalance{
			ID:        uuid.New().String(),
			PlaceID:   key.PlaceID,
			VariantID: key.VariantID,
			IsSP:      key.IsSP,
			Unit:      key.Unit,
			Quantity:  decimal.Zero,
			UpdatedAt: s.now(),
		}
		s.data.stocks[key.String()] = row
	}
	return row
}

func (r *stockRepo) GetByID(ctx context.Context, id string) (*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, row := range r.s.data.stocks {
		if row.ID == id {
			return &row, nil
		}
	}
	return nil, nil
}

func (r *stockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*entity.StockBalance
	for _, st := range r.s.data.stocks {
		if f.OrganizationID != nil && r.s.places[st.PlaceID] != *f.OrganizationID {
			continue
		}
		if !eq(f.PlaceID, st.PlaceID) || !eq(f.VariantID, st.VariantID) || !eq(f.IsSP, st.IsSP) || !eq(f.Unit, st.Unit) {
			continue
		}
		row := st
		rows = append(rows, &row)
	}
	err := sortRows(rows, f.Ordering, repository.DefaultStockOrdering, map[string]func(a, b *entity.StockBalance) int{
		"quantity":   func(a, b *entity.StockBalance) int { return a.Quantity.Cmp(b.Quantity) },
		"updated_at": func(a, b *entity.StockBalance) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
	}, func(s *entity.StockBalance) string { return s.ID })
	if err != nil {
		return nil, err
	}
	return page(rows, f.Page), nil
}

type billRepo struct {
	s  *Store
	tx bool
}

func (r *billRepo) Create(ctx context.Context, b *entity.Bill) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if _, dup := r.s.data.bills[b.ID]; dup {
		return fmt.Errorf("insert bill: %w", domain.ErrIntegrityConflict)
	}
	r.s.data.bills[b.ID] = *b
	return nil
}

func (r *billRepo) CreateItems(ctx context.Context, items []*entity.BillItem) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failItemsErr != nil {
		return fmt.Errorf("copy bill items: %w", r.s.failItemsErr)
	}
	for _, it := range items {
		if _, ok := r.s.data.bills[it.BillID]; !ok {
			return fmt.Errorf("copy bill items: %w", domain.ErrIntegrityConflict)
		}
		r.s.data.items[it.ID] = *it
	}
	return nil
}

func (r *billRepo) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.bills[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *billRepo) Update(ctx context.Context, b *entity.Bill) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.bills[b.ID]
	if !ok {
		return fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, b.ID)
	}
	next := *b
	next.Active = cur.Active
	next.CreatedAt = cur.CreatedAt
	r.s.data.bills[b.ID] = next
	return nil
}

func (r *billRepo) DeactivateWithItems(ctx context.Context, billID string, now time.Time) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.bills[billID]
	if !ok {
		return fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, billID)
	}
	b.Active = false
	b.UpdatedAt = now
	r.s.data.bills[billID] = b
	for id, it := range r.s.data.items {
		if it.BillID == billID {
			it.Active = false
			r.s.data.items[id] = it
		}
	}
	return nil
}

func (r *billRepo) List(ctx context.Context, f repository.BillFilter) ([]*entity.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*entity.Bill
	for _, b := range r.s.data.bills {
		if !eq(f.OrganizationID, b.OrganizationID) || !eq(f.BillerUserID, b.BillerUserID) ||
			!eq(f.SalePlaceID, b.SalePlaceID) || !eq(f.DiscountID, b.DiscountID) ||
			!eq(f.PayType, b.PayType) || !eq(f.Active, b.Active) || !inRange(f.Created, b.CreatedAt) {
			continue
		}
		bill := b
		rows = append(rows, &bill)
	}
	err := sortRows(rows, f.Ordering, repository.DefaultBillOrdering, map[string]func(a, b *entity.Bill) int{
		"created_at":   func(a, b *entity.Bill) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"updated_at":   func(a, b *entity.Bill) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
		"total_amount": func(a, b *entity.Bill) int { return a.TotalAmount.Cmp(b.TotalAmount) },
	}, func(b *entity.Bill) string { return b.ID })
	if err != nil {
		return nil, err
	}
	return page(rows, f.Page), nil
}

func (r *billRepo) GetItemByID(ctx context.Context, id string) (*entity.BillItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.data.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *billRepo) UpdateItem(ctx context.Context, it *entity.BillItem) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.items[it.ID]
	if !ok {
		return fmt.Errorf("%w: línea %s", domain.ErrReferenceNotFound, it.ID)
	}
	next := *it
	next.BillID = cur.BillID
	next.Active = cur.Active
	r.s.data.items[it.ID] = next
	return nil
}

func (r *billRepo) DeactivateItem(ctx context.Context, id string) error {
	defer r.s.autocommit(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.data.items[id]
	if !ok {
		return fmt.Errorf("%w: línea %s", domain.ErrReferenceNotFound, id)
	}
	it.Active = false
	r.s.data.items[id] = it
	return nil
}

func (r *billRepo) ListItems(ctx context.Context, f repository.BillItemFilter) ([]*entity.BillItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []*entity.BillItem
	for _, it := range r.s.data.items {
		if f.OrganizationID != nil && r.s.data.bills[it.BillID].OrganizationID != *f.OrganizationID {
			continue
		}
		if !eq(f.BillID, it.BillID) || !eq(f.VariantID, it.VariantID) || !eq(f.IsSP, it.IsSP) || !eq(f.Active, it.Active) {
			continue
		}
		item := it
		rows = append(rows, &item)
	}
	variants := r.s.variants
	err := sortRows(rows, f.Ordering, repository.DefaultBillItemOrdering, map[string]func(a, b *entity.BillItem) int{
		"variant_name": func(a, b *entity.BillItem) int {
			return strings.Compare(variants[a.VariantID].name, variants[b.VariantID].name)
		},
		"quantity":   func(a, b *entity.BillItem) int { return a.Quantity.Cmp(b.Quantity) },
		"line_price": func(a, b *entity.BillItem) int { return a.LinePrice.Cmp(b.LinePrice) },
	}, func(it *entity.BillItem) string { return it.ID })
	if err != nil {
		return nil, err
	}
	return page(rows, f.Page), nil
}

type referenceRepo struct{ s *Store }

func (r *referenceRepo) PlaceExists(ctx context.Context, org, id string) (bool, error) {
	return r.lookup(r.s.places, org, id), nil
}

func (r *referenceRepo) VariantExists(ctx context.Context, org, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.variants[id]
	return ok && v.org == org, nil
}

func (r *referenceRepo) UserExists(ctx context.Context, org, id string) (bool, error) {
	return r.lookup(r.s.users, org, id), nil
}

func (r *referenceRepo) DiscountExists(ctx context.Context, org, id string) (bool, error) {
	return r.lookup(r.s.discounts, org, id), nil
}

func (r *referenceRepo) lookup(dir map[string]string, org, id string) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	owner, ok := dir[id]
	return ok && owner == org
}

func eq[T comparable](want *T, got T) bool {
	return want == nil || *want == got
}

func inRange(r repository.TimeRange, t time.Time) bool {
	if !r.Complete() {
		return true
	}
	return !t.Before(*r.Start) && !t.After(*r.End)
}

// sortRows ordena como la cláusula ORDER BY de postgres: columna permitida y id como desempate.
func sortRows[T any](rows []T, ordering, def string, keys map[string]func(a, b T) int, id func(T) string) error {
	if ordering == "" {
		ordering = def
	}
	desc := strings.HasPrefix(ordering, "-")
	compare, ok := keys[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return fmt.Errorf("%w: ordenamiento %q no soportado", domain.ErrValidation, ordering)
	}
	slices.SortFunc(rows, func(a, b T) int {
		c := compare(a, b)
		if c == 0 {
			c = strings.Compare(id(a), id(b))
		}
		if desc {
			return -c
		}
		return c
	})
	return nil
}

func page[T any](rows []T, p repository.Page) []T {
	if p.Offset > 0 {
		if p.Offset >= len(rows) {
			return nil
		}
		rows = rows[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(rows) {
		rows = rows[:p.Limit]
	}
	return rows
}
