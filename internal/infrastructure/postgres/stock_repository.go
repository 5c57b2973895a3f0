package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockRepository = (*StockRepo)(nil)

var stockOrderings = map[string]string{
	"quantity":   "s.quantity",
	"updated_at": "s.updated_at",
}

const stockColumns = `
	s.id::text, s.place_id::text, s.variant_id::text, s.is_sp, s.unit, s.quantity, s.updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetOrCreate inserta la fila en cero si no existe (ON CONFLICT DO NOTHING) y la devuelve.
func (r *StockRepo) GetOrCreate(ctx context.Context, key entity.StockKey) (*entity.StockBalance, error) {
	insert := `
		INSERT INTO stock_balances (id, place_id, variant_id, is_sp, unit, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, now())
		ON CONFLICT (place_id, variant_id, is_sp, unit) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, uuid.New().String(), key.PlaceID, key.VariantID, key.IsSP, string(key.Unit)); err != nil {
		return nil, wrapErr("create stock balance", err)
	}
	query := `SELECT` + stockColumns + `
		FROM stock_balances s
		WHERE s.place_id = $1 AND s.variant_id = $2 AND s.is_sp = $3 AND s.unit = $4`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.PlaceID, key.VariantID, key.IsSP, string(key.Unit)))
	if err != nil {
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return s, nil
}

// ApplyDelta suma delta en una sola sentencia. La restricción única serializa la primera
// creación de la llave; un INSERT en conflicto cae en la rama UPDATE de la misma sentencia,
// que bloquea la fila hasta el Commit de la transacción.
func (r *StockRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (*entity.StockBalance, error) {
	query := `
		INSERT INTO stock_balances AS s (id, place_id, variant_id, is_sp, unit, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (place_id, variant_id, is_sp, unit)
		DO UPDATE SET quantity = s.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING` + stockColumns
	s, err := scanStock(r.q.QueryRow(ctx, query,
		uuid.New().String(), key.PlaceID, key.VariantID, key.IsSP, string(key.Unit), delta,
	))
	if err != nil {
		return nil, wrapErr("apply stock delta", err)
	}
	return s, nil
}

// GetByID obtiene una fila del libro. Devuelve (nil, nil) si no existe.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.StockBalance, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT`+stockColumns+` FROM stock_balances s WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock balance: %w", err)
	}
	return s, nil
}

// List filtra saldos. La organización se resuelve a través del lugar.
func (r *StockRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockBalance, error) {
	order, err := orderBy(f.Ordering, repository.DefaultStockOrdering, stockOrderings, "s.id")
	if err != nil {
		return nil, err
	}
	var p predicate
	p.eqString("p.organization_id", f.OrganizationID)
	p.eqString("s.place_id", f.PlaceID)
	p.eqString("s.variant_id", f.VariantID)
	p.eqBool("s.is_sp", f.IsSP)
	if f.Unit != nil {
		p.add("s.unit = ?", string(*f.Unit))
	}

	query := `SELECT` + stockColumns + `
		FROM stock_balances s
		JOIN places p ON p.id = s.place_id` + p.where() + order
	query += p.page(f.Page)

	rows, err := r.q.Query(ctx, query, p.args...)
	if err != nil {
		return nil, wrapErr("list stock balances", err)
	}
	defer rows.Close()

	var list []*entity.StockBalance
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock balance: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanStock(row pgx.Row) (*entity.StockBalance, error) {
	var s entity.StockBalance
	var unit string
	if err := row.Scan(&s.ID, &s.PlaceID, &s.VariantID, &s.IsSP, &unit, &s.Quantity, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Unit = entity.WeightUnit(unit)
	return &s, nil
}
