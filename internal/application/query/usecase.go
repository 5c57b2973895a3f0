package query

import (
	"context"
	"fmt"

	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
)

// Service lecturas del log, facturas y saldos. Siempre acotadas a la organización del llamador.
type Service interface {
	ListMovements(ctx context.Context, actor dto.Actor, filter repository.MovementFilter) ([]*entity.MovementRecord, error)
	GetMovement(ctx context.Context, actor dto.Actor, id string) (*entity.MovementRecord, error)
	ListBills(ctx context.Context, actor dto.Actor, filter repository.BillFilter) ([]*entity.Bill, error)
	GetBill(ctx context.Context, actor dto.Actor, id string) (*dto.BillDetail, error)
	ListBillItems(ctx context.Context, actor dto.Actor, filter repository.BillItemFilter) ([]*entity.BillItem, error)
	ListStocks(ctx context.Context, actor dto.Actor, filter repository.StockFilter) ([]*entity.StockBalance, error)
	GetStock(ctx context.Context, actor dto.Actor, id string) (*entity.StockBalance, error)
}

var _ Service = (*UseCase)(nil)

// UseCase implementación directa sobre los repositorios (solo lectura).
type UseCase struct {
	movRepo   repository.MovementRepository
	billRepo  repository.BillRepository
	stockRepo repository.StockRepository
	refs      repository.ReferenceRepository
}

// NewUseCase construye el caso de uso de consultas.
func NewUseCase(
	movRepo repository.MovementRepository,
	billRepo repository.BillRepository,
	stockRepo repository.StockRepository,
	refs repository.ReferenceRepository,
) *UseCase {
	return &UseCase{movRepo: movRepo, billRepo: billRepo, stockRepo: stockRepo, refs: refs}
}

// ListMovements filtra el log. Orden por defecto -created_at.
func (uc *UseCase) ListMovements(ctx context.Context, actor dto.Actor, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	filter.OrganizationID = &actor.OrganizationID
	if filter.Ordering == "" {
		filter.Ordering = repository.DefaultMovementOrdering
	}
	return uc.movRepo.List(ctx, filter)
}

// GetMovement un registro del log.
func (uc *UseCase) GetMovement(ctx context.Context, actor dto.Actor, id string) (*entity.MovementRecord, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	rec, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.OrganizationID != actor.OrganizationID {
		return nil, fmt.Errorf("%w: registro %s", domain.ErrReferenceNotFound, id)
	}
	return rec, nil
}

// ListBills filtra facturas. Orden por defecto -created_at.
func (uc *UseCase) ListBills(ctx context.Context, actor dto.Actor, filter repository.BillFilter) ([]*entity.Bill, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	filter.OrganizationID = &actor.OrganizationID
	if filter.Ordering == "" {
		filter.Ordering = repository.DefaultBillOrdering
	}
	return uc.billRepo.List(ctx, filter)
}

// GetBill cabecera con todas sus líneas (activas e inactivas).
func (uc *UseCase) GetBill(ctx context.Context, actor dto.Actor, id string) (*dto.BillDetail, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	bill, err := uc.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill == nil || bill.OrganizationID != actor.OrganizationID {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrReferenceNotFound, id)
	}
	items, err := uc.billRepo.ListItems(ctx, repository.BillItemFilter{
		BillID:   &bill.ID,
		Ordering: repository.DefaultBillItemOrdering,
	})
	if err != nil {
		return nil, err
	}
	return &dto.BillDetail{Bill: bill, Items: items}, nil
}

// ListBillItems filtra líneas de una o varias facturas. Orden por defecto: nombre de la variante.
func (uc *UseCase) ListBillItems(ctx context.Context, actor dto.Actor, filter repository.BillItemFilter) ([]*entity.BillItem, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	filter.OrganizationID = &actor.OrganizationID
	if filter.Ordering == "" {
		filter.Ordering = repository.DefaultBillItemOrdering
	}
	return uc.billRepo.ListItems(ctx, filter)
}

// ListStocks filtra saldos. Orden por defecto -quantity.
func (uc *UseCase) ListStocks(ctx context.Context, actor dto.Actor, filter repository.StockFilter) ([]*entity.StockBalance, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	filter.OrganizationID = &actor.OrganizationID
	if filter.Ordering == "" {
		filter.Ordering = repository.DefaultStockOrdering
	}
	return uc.stockRepo.List(ctx, filter)
}

// GetStock una fila del libro; la organización se comprueba a través del lugar.
func (uc *UseCase) GetStock(ctx context.Context, actor dto.Actor, id string) (*entity.StockBalance, error) {
	if err := requireOrg(actor); err != nil {
		return nil, err
	}
	row, err := uc.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("%w: stock %s", domain.ErrReferenceNotFound, id)
	}
	ok, err := uc.refs.PlaceExists(ctx, actor.OrganizationID, row.PlaceID)
	if err != nil {
		return nil, fmt.Errorf("resolve lugar: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: stock %s", domain.ErrReferenceNotFound, id)
	}
	return row, nil
}

func requireOrg(actor dto.Actor) error {
	if actor.OrganizationID == "" {
		return fmt.Errorf("%w: organización requerida", domain.ErrValidation)
	}
	return nil
}
