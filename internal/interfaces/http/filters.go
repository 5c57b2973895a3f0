package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

// queryReader lee parámetros opcionales del query string y acumula el primer error.
type queryReader struct {
	c   *fiber.Ctx
	err error
}

func (q *queryReader) fail(format string, args ...any) {
	if q.err == nil {
		q.err = fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
	}
}

// id devuelve nil si el parámetro no viene; error si no es un UUID.
func (q *queryReader) id(name string) *string {
	v := strings.TrimSpace(q.c.Query(name))
	if v == "" {
		return nil
	}
	if _, err := uuid.Parse(v); err != nil {
		q.fail("%s no es un UUID", name)
		return nil
	}
	return &v
}

func (q *queryReader) boolean(name string) *bool {
	v := strings.TrimSpace(q.c.Query(name))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail("%s debe ser true o false", name)
		return nil
	}
	return &b
}

// timestamp acepta RFC3339 o YYYY-MM-DD. Con endOfDay una fecha sola cubre el día completo.
func (q *queryReader) timestamp(name string, endOfDay bool) *time.Time {
	v := strings.TrimSpace(q.c.Query(name))
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		q.fail("%s debe ser RFC3339 o YYYY-MM-DD", name)
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}

func (q *queryReader) created() repository.TimeRange {
	return repository.TimeRange{Start: q.timestamp("start_date", false), End: q.timestamp("end_date", true)}
}

func (q *queryReader) page() repository.Page {
	p := dto.PageRequest{Limit: q.c.QueryInt("limit", 0), Offset: q.c.QueryInt("offset", 0)}
	p.DefaultPage()
	return repository.Page{Limit: p.Limit, Offset: p.Offset}
}

func (q *queryReader) ordering() string {
	return strings.TrimSpace(q.c.Query("ordering"))
}

func movementFilterFromQuery(c *fiber.Ctx) (repository.MovementFilter, error) {
	q := &queryReader{c: c}
	f := repository.MovementFilter{
		UserID:             q.id("user_id"),
		SourcePlaceID:      q.id("import_from_id"),
		DestinationPlaceID: q.id("export_to_id"),
		VariantID:          q.id("fish_variant_id"),
		WeighPlaceID:       q.id("weigh_place_id"),
		DiscountID:         q.id("discount_id"),
		IsSP:               q.boolean("is_SP"),
		Active:             q.boolean("is_active"),
		Created:            q.created(),
		Ordering:           q.ordering(),
		Page:               q.page(),
	}
	if v := c.Query("record_type"); v != "" {
		kind := entity.RecordKind(strings.ToUpper(v))
		if !kind.IsValid() {
			q.fail("record_type debe ser IMPORT o EXPORT")
		}
		f.Kind = &kind
	}
	return f, q.err
}

func billFilterFromQuery(c *fiber.Ctx) (repository.BillFilter, error) {
	q := &queryReader{c: c}
	f := repository.BillFilter{
		BillerUserID: q.id("user_id"),
		SalePlaceID:  q.id("bill_place_id"),
		DiscountID:   q.id("discount_id"),
		Active:       q.boolean("is_active"),
		Created:      q.created(),
		Ordering:     q.ordering(),
		Page:         q.page(),
	}
	if v := c.Query("pay_type"); v != "" {
		pt := entity.PayType(strings.ToUpper(v))
		if !pt.IsValid() {
			q.fail("pay_type debe ser CASH u ONLINE")
		}
		f.PayType = &pt
	}
	return f, q.err
}

func billItemFilterFromQuery(c *fiber.Ctx) (repository.BillItemFilter, error) {
	q := &queryReader{c: c}
	f := repository.BillItemFilter{
		BillID:    q.id("bill_id"),
		VariantID: q.id("fish_variant_id"),
		IsSP:      q.boolean("is_SP"),
		Active:    q.boolean("is_active"),
		Ordering:  q.ordering(),
		Page:      q.page(),
	}
	return f, q.err
}

func stockFilterFromQuery(c *fiber.Ctx) (repository.StockFilter, error) {
	q := &queryReader{c: c}
	f := repository.StockFilter{
		PlaceID:   q.id("place_id"),
		VariantID: q.id("fish_variant_id"),
		IsSP:      q.boolean("is_SP"),
		Ordering:  q.ordering(),
		Page:      q.page(),
	}
	if v := c.Query("weight_unit"); v != "" {
		u := entity.WeightUnit(v)
		if !u.IsValid() {
			q.fail("weight_unit %q no soportada", v)
		}
		f.Unit = &u
	}
	return f, q.err
}

// pathID valida que el parámetro :id sea un UUID.
func pathID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: id %q no es un UUID", domain.ErrValidation, id)
	}
	return id, nil
}
