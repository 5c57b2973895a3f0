package ports

import "context"

// Notifier puerto de avisos posteriores al Commit (SMS, correo...).
// Best effort: las implementaciones no bloquean al llamador y sus fallos solo se registran en log.
type Notifier interface {
	// MovementRecorded se llama tras confirmar entradas, salidas o traslados.
	MovementRecorded(ctx context.Context, organizationID string, recordIDs ...string)
	// SaleRecorded se llama tras confirmar una venta.
	SaleRecorded(ctx context.Context, organizationID, billID string)
}

// NopNotifier descarta todos los avisos.
type NopNotifier struct{}

func (NopNotifier) MovementRecorded(context.Context, string, ...string) {}
func (NopNotifier) SaleRecorded(context.Context, string, string)        {}
