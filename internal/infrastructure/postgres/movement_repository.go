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

var _ repository.MovementRepository = (*MovementRepo)(nil)

// movementOrderings campos de ordenamiento permitidos en el log.
var movementOrderings = map[string]string{
	"created_at": "m.created_at",
	"updated_at": "m.updated_at",
	"quantity":   "m.quantity",
	"kind":       "m.kind",
}

const movementColumns = `
	m.id::text, m.organization_id::text, COALESCE(m.user_id::text, ''),
	COALESCE(m.source_place_id::text, ''), COALESCE(m.destination_place_id::text, ''),
	m.kind, m.variant_id::text, COALESCE(m.weigh_place_id::text, ''),
	m.quantity, m.unit, m.is_sp, COALESCE(m.discount_id::text, ''),
	m.active, m.created_at, m.updated_at`

// MovementRepo implementación de MovementRepository (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta un registro del log.
func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementRecord) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movement_records (
			id, organization_id, user_id, source_place_id, destination_place_id, kind,
			variant_id, weigh_place_id, quantity, unit, is_sp, discount_id, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.OrganizationID, nullIfEmpty(m.UserID), nullIfEmpty(m.SourcePlaceID), nullIfEmpty(m.DestinationPlaceID),
		string(m.Kind), m.VariantID, nullIfEmpty(m.WeighPlaceID), m.Quantity, string(m.Unit), m.IsSP,
		nullIfEmpty(m.DiscountID), m.Active, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return wrapErr("insert movement record", err)
	}
	return nil
}

// GetByID obtiene un registro. Devuelve (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	query := `SELECT` + movementColumns + ` FROM movement_records m WHERE m.id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement record: %w", err)
	}
	return m, nil
}

// Deactivate marca el registro como inactivo.
func (r *MovementRepo) Deactivate(ctx context.Context, id string, now time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE movement_records SET active = false, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return wrapErr("deactivate movement record", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: registro %s", domain.ErrReferenceNotFound, id)
	}
	return nil
}

// List filtra el log con los predicados presentes en filter.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, error) {
	order, err := orderBy(f.Ordering, repository.DefaultMovementOrdering, movementOrderings, "m.id")
	if err != nil {
		return nil, err
	}
	var p predicate
	p.eqString("m.organization_id", f.OrganizationID)
	p.eqString("m.user_id", f.UserID)
	p.eqString("m.source_place_id", f.SourcePlaceID)
	p.eqString("m.destination_place_id", f.DestinationPlaceID)
	if f.Kind != nil {
		p.add("m.kind = ?", string(*f.Kind))
	}
	p.eqString("m.variant_id", f.VariantID)
	p.eqString("m.weigh_place_id", f.WeighPlaceID)
	p.eqString("m.discount_id", f.DiscountID)
	p.eqBool("m.is_sp", f.IsSP)
	p.eqBool("m.active", f.Active)
	p.createdBetween("m.created_at", f.Created)

	query := `SELECT` + movementColumns + ` FROM movement_records m` + p.where() + order
	query += p.page(f.Page)

	rows, err := r.q.Query(ctx, query, p.args...)
	if err != nil {
		return nil, wrapErr("list movement records", err)
	}
	defer rows.Close()

	var list []*entity.MovementRecord
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement record: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.MovementRecord, error) {
	var m entity.MovementRecord
	var kind, unit string
	err := row.Scan(
		&m.ID, &m.OrganizationID, &m.UserID, &m.SourcePlaceID, &m.DestinationPlaceID,
		&kind, &m.VariantID, &m.WeighPlaceID, &m.Quantity, &unit, &m.IsSP, &m.DiscountID,
		&m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Kind = entity.RecordKind(kind)
	m.Unit = entity.WeightUnit(unit)
	return &m, nil
}
