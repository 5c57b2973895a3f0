package postgres

import (
	"fmt"
	"strings"

	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

// predicate acumula condiciones AND con placeholders posicionales ($1, $2...).
type predicate struct {
	clauses []string
	args    []any
}

// add agrega una condición; cada "?" de expr se reemplaza por el siguiente $n.
func (p *predicate) add(expr string, args ...any) {
	var b strings.Builder
	next := 0
	for _, r := range expr {
		if r == '?' && next < len(args) {
			p.args = append(p.args, args[next])
			next++
			fmt.Fprintf(&b, "$%d", len(p.args))
			continue
		}
		b.WriteRune(r)
	}
	p.clauses = append(p.clauses, b.String())
}

func (p *predicate) eqString(col string, v *string) {
	if v != nil {
		p.add(col+" = ?", *v)
	}
}

func (p *predicate) eqBool(col string, v *bool) {
	if v != nil {
		p.add(col+" = ?", *v)
	}
}

// createdBetween aplica el rango solo si vienen ambos extremos.
func (p *predicate) createdBetween(col string, r repository.TimeRange) {
	if r.Complete() {
		p.add(col+" BETWEEN ? AND ?", *r.Start, *r.End)
	}
}

// where devuelve " WHERE a AND b" o "" si no hay condiciones.
func (p *predicate) where() string {
	if len(p.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// page devuelve LIMIT/OFFSET con placeholders. Limit <= 0 = sin límite.
func (p *predicate) page(pg repository.Page) string {
	var s string
	if pg.Limit > 0 {
		p.args = append(p.args, pg.Limit)
		s += fmt.Sprintf(" LIMIT $%d", len(p.args))
	}
	if pg.Offset > 0 {
		p.args = append(p.args, pg.Offset)
		s += fmt.Sprintf(" OFFSET $%d", len(p.args))
	}
	return s
}

// orderBy traduce un ordenamiento ("campo" o "-campo") a SQL usando la lista blanca columns.
// Vacío usa def. Se agrega el id como desempate para que el orden sea estable.
func orderBy(ordering, def string, columns map[string]string, idCol string) (string, error) {
	if ordering == "" {
		ordering = def
	}
	dir := "ASC"
	field := ordering
	if strings.HasPrefix(ordering, "-") {
		dir = "DESC"
		field = ordering[1:]
	}
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("%w: ordenamiento %q no permitido", domain.ErrValidation, ordering)
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", col, dir, idCol, dir), nil
}
