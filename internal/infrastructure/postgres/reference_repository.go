package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

var _ repository.ReferenceRepository = (*ReferenceRepo)(nil)

// ReferenceRepo lee el directorio externo (places, fishes/fish_variants, users, discounts).
// Solo lectura: el núcleo no es dueño de esas tablas.
type ReferenceRepo struct {
	q Querier
}

// NewReferenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReferenceRepository(q Querier) *ReferenceRepo {
	return &ReferenceRepo{q: q}
}

// PlaceExists indica si el lugar existe, está activo y pertenece a la organización.
func (r *ReferenceRepo) PlaceExists(ctx context.Context, organizationID, placeID string) (bool, error) {
	return r.exists(ctx, "place", `
		SELECT EXISTS (
			SELECT 1 FROM places WHERE id = $1 AND organization_id = $2 AND is_active
		)`, placeID, organizationID)
}

// VariantExists indica si la variante existe y su pez pertenece a la organización.
func (r *ReferenceRepo) VariantExists(ctx context.Context, organizationID, variantID string) (bool, error) {
	return r.exists(ctx, "fish variant", `
		SELECT EXISTS (
			SELECT 1 FROM fish_variants fv
			JOIN fishes f ON f.id = fv.fish_id
			WHERE fv.id = $1 AND f.organization_id = $2 AND fv.is_active
		)`, variantID, organizationID)
}

// UserExists indica si el usuario pertenece a la organización.
func (r *ReferenceRepo) UserExists(ctx context.Context, organizationID, userID string) (bool, error) {
	return r.exists(ctx, "user", `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE id = $1 AND organization_id = $2 AND is_active
		)`, userID, organizationID)
}

// DiscountExists indica si el descuento existe, está activo y es de la organización.
func (r *ReferenceRepo) DiscountExists(ctx context.Context, organizationID, discountID string) (bool, error) {
	return r.exists(ctx, "discount", `
		SELECT EXISTS (
			SELECT 1 FROM discounts WHERE id = $1 AND organization_id = $2 AND is_active
		)`, discountID, organizationID)
}

func (r *ReferenceRepo) exists(ctx context.Context, what, query, id, organizationID string) (bool, error) {
	// Un id que no es UUID no puede existir; evita el error de cast en PostgreSQL.
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	if _, err := uuid.Parse(organizationID); err != nil {
		return false, nil
	}
	var ok bool
	if err := r.q.QueryRow(ctx, query, id, organizationID).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup %s: %w", what, err)
	}
	return ok, nil
}
