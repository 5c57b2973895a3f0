package repository

import (
	"context"
	"time"

	"github.com/jhoicas/farms-ledger/internal/domain/entity"
)

// BillRepository puerto de persistencia de facturas de venta y sus líneas.
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	// CreateItems inserta todas las líneas en bloque.
	CreateItems(ctx context.Context, items []*entity.BillItem) error
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	// Update actualiza los campos editables de la cabecera (no Active).
	Update(ctx context.Context, bill *entity.Bill) error
	// DeactivateWithItems marca la factura y todas sus líneas como inactivas.
	DeactivateWithItems(ctx context.Context, billID string, now time.Time) error
	List(ctx context.Context, filter BillFilter) ([]*entity.Bill, error)

	GetItemByID(ctx context.Context, id string) (*entity.BillItem, error)
	// UpdateItem actualiza los campos editables de una línea (no Active).
	UpdateItem(ctx context.Context, item *entity.BillItem) error
	DeactivateItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, filter BillItemFilter) ([]*entity.BillItem, error)
}
