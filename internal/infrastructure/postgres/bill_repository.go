package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

var _ repository.BillRepository = (*BillRepo)(nil)

var billOrderings = map[string]string{
	"created_at":   "b.created_at",
	"updated_at":   "b.updated_at",
	"total_amount": "b.total_amount",
}

var billItemOrderings = map[string]string{
	"variant_name": "fv.name",
	"quantity":     "bi.quantity",
	"line_price":   "bi.line_price",
}

const billColumns = `
	b.id::text, b.organization_id::text, COALESCE(b.biller_user_id::text, ''),
	COALESCE(b.sale_place_id::text, ''), b.gross_price, COALESCE(b.discount_id::text, ''),
	b.total_amount, b.billed_amount, b.discounted_price, b.pay_type,
	b.active, b.created_at, b.updated_at`

const billItemColumns = `
	bi.id::text, bi.bill_id::text, bi.quantity, bi.unit, bi.line_price,
	bi.variant_id::text, bi.is_sp, bi.active`

// billItemCopyColumns columnas de COPY para la inserción en bloque.
var billItemCopyColumns = []string{"id", "bill_id", "quantity", "unit", "line_price", "variant_id", "is_sp", "active"}

// BillRepo implementación de BillRepository (usable con pool o tx).
type BillRepo struct {
	q Querier
}

// NewBillRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillRepository(q Querier) *BillRepo {
	return &BillRepo{q: q}
}

// Create persiste la cabecera de la factura.
func (r *BillRepo) Create(ctx context.Context, b *entity.Bill) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	query := `
		INSERT INTO bills (
			id, organization_id, biller_user_id, sale_place_id, gross_price, discount_id,
			total_amount, billed_amount, discounted_price, pay_type, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.OrganizationID, nullIfEmpty(b.BillerUserID), nullIfEmpty(b.SalePlaceID), b.GrossPrice,
		nullIfEmpty(b.DiscountID), b.TotalAmount, b.BilledAmount, b.DiscountedPrice, string(b.PayType),
		b.Active, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert bill", err)
	}
	return nil
}

// CreateItems inserta todas las líneas con COPY (una sola ida y vuelta).
func (r *BillRepo) CreateItems(ctx context.Context, items []*entity.BillItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		// COPY usa formato binario: los ids van como uuid.UUID, no como texto.
		ids, err := parseUUIDs(it.ID, it.BillID, it.VariantID)
		if err != nil {
			return fmt.Errorf("%w: línea de factura: %v", domain.ErrValidation, err)
		}
		rows = append(rows, []any{
			ids[0], ids[1], it.Quantity, string(it.Unit), it.LinePrice, ids[2], it.IsSP, it.Active,
		})
	}
	n, err := r.q.CopyFrom(ctx, pgx.Identifier{"bill_items"}, billItemCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return wrapErr("copy bill items", err)
	}
	if int(n) != len(items) {
		return fmt.Errorf("copy bill items: %d de %d filas", n, len(items))
	}
	return nil
}

// GetByID obtiene la cabecera. Devuelve (nil, nil) si no existe.
func (r *BillRepo) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	b, err := scanBill(r.q.QueryRow(ctx, `SELECT`+billColumns+` FROM bills b WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// Update actualiza los campos editables de la cabecera. No toca active.
func (r *BillRepo) Update(ctx context.Context, b *entity.Bill) error {
	query := `
		UPDATE bills
		SET biller_user_id   = $2,
		    sale_place_id    = $3,
		    gross_price      = $4,
		    discount_id      = $5,
		    total_amount     = $6,
		    billed_amount    = $7,
		    discounted_price = $8,
		    pay_type         = $9,
		    updated_at       = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		b.ID, nullIfEmpty(b.BillerUserID), nullIfEmpty(b.SalePlaceID), b.GrossPrice, nullIfEmpty(b.DiscountID),
		b.TotalAmount, b.BilledAmount, b.DiscountedPrice, string(b.PayType), b.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update bill", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, b.ID)
	}
	return nil
}

// DeactivateWithItems desactiva la factura y todas sus líneas. Llamar dentro de una tx.
func (r *BillRepo) DeactivateWithItems(ctx context.Context, billID string, now time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE bills SET active = false, updated_at = $2 WHERE id = $1`, billID, now)
	if err != nil {
		return wrapErr("deactivate bill", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, billID)
	}
	if _, err := r.q.Exec(ctx, `UPDATE bill_items SET active = false WHERE bill_id = $1`, billID); err != nil {
		return wrapErr("deactivate bill items", err)
	}
	return nil
}

// List filtra facturas.
func (r *BillRepo) List(ctx context.Context, f repository.BillFilter) ([]*entity.Bill, error) {
	order, err := orderBy(f.Ordering, repository.DefaultBillOrdering, billOrderings, "b.id")
	if err != nil {
		return nil, err
	}
	var p predicate
	p.eqString("b.organization_id", f.OrganizationID)
	p.eqString("b.biller_user_id", f.BillerUserID)
	p.eqString("b.sale_place_id", f.SalePlaceID)
	p.eqString("b.discount_id", f.DiscountID)
	if f.PayType != nil {
		p.add("b.pay_type = ?", string(*f.PayType))
	}
	p.eqBool("b.active", f.Active)
	p.createdBetween("b.created_at", f.Created)

	query := `SELECT` + billColumns + ` FROM bills b` + p.where() + order
	query += p.page(f.Page)

	rows, err := r.q.Query(ctx, query, p.args...)
	if err != nil {
		return nil, wrapErr("list bills", err)
	}
	defer rows.Close()

	var list []*entity.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// GetItemByID obtiene una línea. Devuelve (nil, nil) si no existe.
func (r *BillRepo) GetItemByID(ctx context.Context, id string) (*entity.BillItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	it, err := scanBillItem(r.q.QueryRow(ctx, `SELECT`+billItemColumns+` FROM bill_items bi WHERE bi.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bill item: %w", err)
	}
	return it, nil
}

// UpdateItem actualiza los campos editables de una línea. No toca active.
func (r *BillRepo) UpdateItem(ctx context.Context, it *entity.BillItem) error {
	query := `
		UPDATE bill_items
		SET quantity = $2, unit = $3, line_price = $4, variant_id = $5, is_sp = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, it.ID, it.Quantity, string(it.Unit), it.LinePrice, it.VariantID, it.IsSP)
	if err != nil {
		return wrapErr("update bill item", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %s", domain.ErrReferenceNotFound, it.ID)
	}
	return nil
}

// DeactivateItem desactiva una línea.
func (r *BillRepo) DeactivateItem(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE bill_items SET active = false WHERE id = $1`, id)
	if err != nil {
		return wrapErr("deactivate bill item", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %s", domain.ErrReferenceNotFound, id)
	}
	return nil
}

// ListItems filtra líneas. La organización se resuelve a través de la factura.
func (r *BillRepo) ListItems(ctx context.Context, f repository.BillItemFilter) ([]*entity.BillItem, error) {
	order, err := orderBy(f.Ordering, repository.DefaultBillItemOrdering, billItemOrderings, "bi.id")
	if err != nil {
		return nil, err
	}
	var p predicate
	p.eqString("b.organization_id", f.OrganizationID)
	p.eqString("bi.bill_id", f.BillID)
	p.eqString("bi.variant_id", f.VariantID)
	p.eqBool("bi.is_sp", f.IsSP)
	p.eqBool("bi.active", f.Active)

	query := `SELECT` + billItemColumns + `
		FROM bill_items bi
		JOIN bills b ON b.id = bi.bill_id
		LEFT JOIN fish_variants fv ON fv.id = bi.variant_id` + p.where() + order
	query += p.page(f.Page)

	rows, err := r.q.Query(ctx, query, p.args...)
	if err != nil {
		return nil, wrapErr("list bill items", err)
	}
	defer rows.Close()

	var list []*entity.BillItem
	for rows.Next() {
		it, err := scanBillItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func scanBill(row pgx.Row) (*entity.Bill, error) {
	var b entity.Bill
	var payType string
	err := row.Scan(
		&b.ID, &b.OrganizationID, &b.BillerUserID, &b.SalePlaceID, &b.GrossPrice, &b.DiscountID,
		&b.TotalAmount, &b.BilledAmount, &b.DiscountedPrice, &payType,
		&b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.PayType = entity.PayType(payType)
	return &b, nil
}

func scanBillItem(row pgx.Row) (*entity.BillItem, error) {
	var it entity.BillItem
	var unit string
	err := row.Scan(&it.ID, &it.BillID, &it.Quantity, &unit, &it.LinePrice, &it.VariantID, &it.IsSP, &it.Active)
	if err != nil {
		return nil, err
	}
	it.Unit = entity.WeightUnit(unit)
	return &it, nil
}
