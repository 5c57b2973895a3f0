package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/farms-ledger/internal/application/ports"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

var _ ports.Notifier = (*AsyncNotifier)(nil)

// AsyncNotifier implementa ports.Notifier despachando cada aviso en su propia goroutine.
// Los fallos (y panics) del Sender se registran y se descartan; nunca llegan al llamador.
type AsyncNotifier struct {
	sender  Sender
	numbers []string
	timeout time.Duration
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewAsyncNotifier construye el notificador. timeout acota cada envío.
func NewAsyncNotifier(sender Sender, numbers []string, timeout time.Duration, log *logger.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AsyncNotifier{sender: sender, numbers: numbers, timeout: timeout, log: log}
}

// MovementRecorded avisa de movimientos confirmados.
func (n *AsyncNotifier) MovementRecorded(ctx context.Context, organizationID string, recordIDs ...string) {
	if len(recordIDs) == 0 {
		return
	}
	msg := fmt.Sprintf("FARMS: %d movimiento(s) registrados: %s", len(recordIDs), strings.Join(recordIDs, ", "))
	n.dispatch(ctx, "movement", organizationID, msg)
}

// SaleRecorded avisa de una venta confirmada.
func (n *AsyncNotifier) SaleRecorded(ctx context.Context, organizationID, billID string) {
	n.dispatch(ctx, "sale", organizationID, "FARMS: venta registrada "+billID)
}

// Wait bloquea hasta que terminen los envíos en curso (apagado ordenado y tests).
func (n *AsyncNotifier) Wait() {
	n.wg.Wait()
}

func (n *AsyncNotifier) dispatch(ctx context.Context, kind, organizationID, message string) {
	if len(n.numbers) == 0 {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				n.log.Error().Interface("panic", r).Str("kind", kind).Msg("notificación: panic recuperado")
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, n.numbers, message); err != nil {
			n.log.Warn().Err(err).Str("kind", kind).Str("organization_id", organizationID).Msg("notificación no enviada")
			return
		}
		n.log.Debug().Str("kind", kind).Str("organization_id", organizationID).Msg("notificación enviada")
	}()
}
