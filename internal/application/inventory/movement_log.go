package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

// MovementLog escribe y desactiva entradas del log append-only. No toca saldos.
type MovementLog struct {
	refs    repository.ReferenceRepository
	movRepo repository.MovementRepository
	now     func() time.Time
}

// NewMovementLog construye el log. movRepo es el repositorio fuera de transacción (para Deactivate).
func NewMovementLog(refs repository.ReferenceRepository, movRepo repository.MovementRepository) *MovementLog {
	return &MovementLog{refs: refs, movRepo: movRepo, now: time.Now}
}

// validate revisa los campos del registro y que cada referencia exista en la organización.
func (l *MovementLog) validate(ctx context.Context, rec *entity.MovementRecord) error {
	if rec.OrganizationID == "" {
		return fmt.Errorf("%w: organización requerida", domain.ErrValidation)
	}
	if !rec.Kind.IsValid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrValidation, rec.Kind)
	}
	if rec.VariantID == "" {
		return fmt.Errorf("%w: variante requerida", domain.ErrValidation)
	}
	if !rec.Quantity.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	if !rec.Unit.IsValid() {
		return fmt.Errorf("%w: unidad %q", domain.ErrValidation, rec.Unit)
	}
	if rec.Kind == entity.RecordKindImport && rec.DestinationPlaceID == "" {
		return fmt.Errorf("%w: una entrada requiere lugar destino", domain.ErrValidation)
	}
	if rec.Kind == entity.RecordKindExport && rec.SourcePlaceID == "" {
		return fmt.Errorf("%w: una salida requiere lugar origen", domain.ErrValidation)
	}

	org := rec.OrganizationID
	if err := l.requireRef(ctx, "variante", rec.VariantID, func() (bool, error) {
		return l.refs.VariantExists(ctx, org, rec.VariantID)
	}); err != nil {
		return err
	}
	for _, placeID := range []string{rec.SourcePlaceID, rec.DestinationPlaceID, rec.WeighPlaceID} {
		if placeID == "" {
			continue
		}
		id := placeID
		if err := l.requireRef(ctx, "lugar", id, func() (bool, error) {
			return l.refs.PlaceExists(ctx, org, id)
		}); err != nil {
			return err
		}
	}
	if rec.UserID != "" {
		if err := l.requireRef(ctx, "usuario", rec.UserID, func() (bool, error) {
			return l.refs.UserExists(ctx, org, rec.UserID)
		}); err != nil {
			return err
		}
	}
	if rec.DiscountID != "" {
		if err := l.requireRef(ctx, "descuento", rec.DiscountID, func() (bool, error) {
			return l.refs.DiscountExists(ctx, org, rec.DiscountID)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (l *MovementLog) requireRef(ctx context.Context, what, id string, exists func() (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := exists()
	if err != nil {
		return fmt.Errorf("resolve %s: %w", what, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", domain.ErrReferenceNotFound, what, id)
	}
	return nil
}

// Append valida el registro (campos y referencias) y lo inserta con el repositorio de la
// transacción en curso. No modifica saldos.
func (l *MovementLog) Append(ctx context.Context, movRepo repository.MovementRepository, rec *entity.MovementRecord) error {
	if err := l.validate(ctx, rec); err != nil {
		return err
	}
	now := l.now()
	rec.Active = true
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if err := movRepo.Create(ctx, rec); err != nil {
		return fmt.Errorf("append %s record: %w", rec.Kind, err)
	}
	return nil
}

// Deactivate pasa el registro a inactivo. Idempotente; no revierte el delta de stock.
func (l *MovementLog) Deactivate(ctx context.Context, actor dto.Actor, id string) error {
	rec, err := l.movRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil || rec.OrganizationID != actor.OrganizationID {
		return fmt.Errorf("%w: registro %s", domain.ErrReferenceNotFound, id)
	}
	now := l.now()
	if !rec.Deactivate(now) {
		return nil
	}
	return l.movRepo.Deactivate(ctx, id, now)
}
