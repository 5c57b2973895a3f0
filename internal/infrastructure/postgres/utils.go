package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/farms-ledger/internal/domain"
)

// Códigos SQLSTATE de violación de integridad.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
)

// pgCode devuelve el SQLSTATE del error, o "" si no viene de PostgreSQL.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// wrapErr envuelve err con op. Las violaciones de unicidad, llave foránea y check
// se traducen a domain.ErrIntegrityConflict; un valor numérico fuera de rango a domain.ErrValidation.
func wrapErr(op string, err error) error {
	switch pgCode(err) {
	case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
		return fmt.Errorf("%w: %s: %v", domain.ErrIntegrityConflict, op, err)
	case codeNumericOutOfRange:
		return fmt.Errorf("%w: %s: %v", domain.ErrValidation, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullIfEmpty devuelve nil para "" (columna NULL).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseUUIDs convierte ids textuales a uuid.UUID (para COPY binario).
func parseUUIDs(ids ...string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", id, err)
		}
		out[i] = u
	}
	return out, nil
}
