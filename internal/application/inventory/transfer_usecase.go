package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/ports"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// TransferUseCase orquesta entradas, salidas y traslados: cada operación escribe sus registros
// y ajusta el saldo dentro de una única transacción (Commit o Rollback completo).
type TransferUseCase struct {
	txRunner TxRunner
	log      *MovementLog
	ledger   *StockLedger
	notifier ports.Notifier
	logger   *logger.Logger
}

// NewTransferUseCase construye el caso de uso. notifier y log pueden ser nil.
func NewTransferUseCase(txRunner TxRunner, movLog *MovementLog, ledger *StockLedger, notifier ports.Notifier, log *logger.Logger) *TransferUseCase {
	if notifier == nil {
		notifier = ports.NopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TransferUseCase{
		txRunner: txRunner,
		log:      movLog,
		ledger:   ledger,
		notifier: notifier,
		logger:   log,
	}
}

// ReceiveInbound registra una entrada (IMPORT) hacia el lugar destino (por defecto el del llamador).
// Con OnwardDestinationID la mercancía sigue de largo: se registra además un EXPORT hacia ese
// destino y no se toca ningún saldo. Sin él, se suma la cantidad al saldo del destino.
func (uc *TransferUseCase) ReceiveInbound(ctx context.Context, cmd dto.ReceiveInboundCommand) (*dto.ReceiveInboundResult, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	if err := validateGoods(cmd.Goods); err != nil {
		return nil, err
	}
	dest := cmd.DestinationPlaceID
	if dest == "" {
		dest = cmd.PlaceID
	}

	imp := newRecord(cmd.Actor, cmd.Goods, entity.RecordKindImport, cmd.SourcePlaceID, dest)
	var exp *entity.MovementRecord
	if cmd.OnwardDestinationID != "" {
		exp = newRecord(cmd.Actor, cmd.Goods, entity.RecordKindExport, dest, cmd.OnwardDestinationID)
	}

	res := &dto.ReceiveInboundResult{}
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if err := uc.log.Append(ctx, movRepo, imp); err != nil {
			return err
		}
		res.ImportRecordID = imp.ID
		if exp != nil {
			if err := uc.log.Append(ctx, movRepo, exp); err != nil {
				return err
			}
			res.ExportRecordID = exp.ID
			return nil
		}
		row, err := uc.ledger.ApplyDelta(ctx, stockRepo, imp.StockKey(dest), cmd.Goods.Quantity)
		if err != nil {
			return err
		}
		res.StockID = row.ID
		return nil
	})
	if err != nil {
		uc.abort("receive_inbound", cmd.Actor, err)
		return nil, err
	}

	uc.logger.Info().Str("op", "receive_inbound").Str("organization_id", cmd.OrganizationID).
		Str("import_id", res.ImportRecordID).Str("export_id", res.ExportRecordID).Msg("entrada registrada")
	ids := []string{res.ImportRecordID}
	if res.ExportRecordID != "" {
		ids = append(ids, res.ExportRecordID)
	}
	uc.notifier.MovementRecorded(context.WithoutCancel(ctx), cmd.OrganizationID, ids...)
	return res, nil
}

// DispatchOutbound registra una salida (EXPORT) desde el lugar del llamador hacia el destino
// opcional y descuenta la cantidad de su saldo.
func (uc *TransferUseCase) DispatchOutbound(ctx context.Context, cmd dto.DispatchCommand) (*dto.MovementResult, error) {
	return uc.dispatch(ctx, "dispatch_outbound", cmd)
}

// TransferBetweenPlaces igual que DispatchOutbound pero el destino es obligatorio y distinto del origen.
func (uc *TransferUseCase) TransferBetweenPlaces(ctx context.Context, cmd dto.DispatchCommand) (*dto.MovementResult, error) {
	if cmd.DestinationPlaceID == "" {
		return nil, fmt.Errorf("%w: destino requerido", domain.ErrValidation)
	}
	if cmd.DestinationPlaceID == cmd.PlaceID {
		return nil, fmt.Errorf("%w: el destino debe ser distinto del origen", domain.ErrValidation)
	}
	return uc.dispatch(ctx, "transfer", cmd)
}

func (uc *TransferUseCase) dispatch(ctx context.Context, op string, cmd dto.DispatchCommand) (*dto.MovementResult, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	if err := validateGoods(cmd.Goods); err != nil {
		return nil, err
	}

	rec := newRecord(cmd.Actor, cmd.Goods, entity.RecordKindExport, cmd.PlaceID, cmd.DestinationPlaceID)
	res := &dto.MovementResult{}
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if err := uc.log.Append(ctx, movRepo, rec); err != nil {
			return err
		}
		row, err := uc.ledger.ApplyDelta(ctx, stockRepo, rec.StockKey(cmd.PlaceID), cmd.Goods.Quantity.Neg())
		if err != nil {
			return err
		}
		res.RecordID = rec.ID
		res.StockID = row.ID
		return nil
	})
	if err != nil {
		uc.abort(op, cmd.Actor, err)
		return nil, err
	}

	uc.logger.Info().Str("op", op).Str("organization_id", cmd.OrganizationID).
		Str("record_id", res.RecordID).Str("stock_id", res.StockID).Msg("salida registrada")
	uc.notifier.MovementRecorded(context.WithoutCancel(ctx), cmd.OrganizationID, res.RecordID)
	return res, nil
}

// BulkReceive registra varias entradas al lugar del llamador. Cada línea es su propia
// transacción: una línea fallida se revierte sola y el proceso continúa con la siguiente.
func (uc *TransferUseCase) BulkReceive(ctx context.Context, cmd dto.BulkReceiveCommand) ([]dto.BulkReceiveLineResult, error) {
	if err := validateActor(cmd.Actor); err != nil {
		return nil, err
	}
	if len(cmd.Lines) == 0 {
		return nil, fmt.Errorf("%w: sin líneas", domain.ErrValidation)
	}

	results := make([]dto.BulkReceiveLineResult, len(cmd.Lines))
	var recorded []string
	for i, line := range cmd.Lines {
		results[i].Index = i
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		res, err := uc.receiveLine(ctx, cmd.Actor, line)
		if err != nil {
			results[i].Err = err
			uc.abort("bulk_receive", cmd.Actor, err)
			continue
		}
		results[i].RecordID = res.RecordID
		results[i].StockID = res.StockID
		recorded = append(recorded, res.RecordID)
	}

	uc.logger.Info().Str("op", "bulk_receive").Str("organization_id", cmd.OrganizationID).
		Int("lines", len(cmd.Lines)).Int("ok", len(recorded)).Msg("recepción en bloque")
	if len(recorded) > 0 {
		uc.notifier.MovementRecorded(context.WithoutCancel(ctx), cmd.OrganizationID, recorded...)
	}
	return results, nil
}

func (uc *TransferUseCase) receiveLine(ctx context.Context, actor dto.Actor, line dto.BulkReceiveLine) (*dto.MovementResult, error) {
	if err := validateGoods(line.Goods); err != nil {
		return nil, err
	}
	rec := newRecord(actor, line.Goods, entity.RecordKindImport, line.SourcePlaceID, actor.PlaceID)
	res := &dto.MovementResult{}
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		if err := uc.log.Append(ctx, movRepo, rec); err != nil {
			return err
		}
		row, err := uc.ledger.ApplyDelta(ctx, stockRepo, rec.StockKey(actor.PlaceID), line.Goods.Quantity)
		if err != nil {
			return err
		}
		res.RecordID = rec.ID
		res.StockID = row.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Deactivate desactiva un registro del log; no revierte su efecto en el saldo.
func (uc *TransferUseCase) Deactivate(ctx context.Context, actor dto.Actor, recordID string) error {
	if actor.OrganizationID == "" {
		return fmt.Errorf("%w: organización requerida", domain.ErrValidation)
	}
	return uc.log.Deactivate(ctx, actor, recordID)
}

func (uc *TransferUseCase) abort(op string, actor dto.Actor, err error) {
	ev := uc.logger.Warn()
	if domain.Classify(err) == domain.ErrInternal {
		ev = uc.logger.Error()
	}
	ev.Err(err).Str("op", op).Str("organization_id", actor.OrganizationID).Msg("operación revertida")
}

func newRecord(actor dto.Actor, g dto.GoodsInput, kind entity.RecordKind, source, dest string) *entity.MovementRecord {
	weighPlace := g.WeighPlaceID
	if weighPlace == "" {
		weighPlace = actor.PlaceID
	}
	return &entity.MovementRecord{
		OrganizationID:     actor.OrganizationID,
		UserID:             actor.UserID,
		SourcePlaceID:      source,
		DestinationPlaceID: dest,
		Kind:               kind,
		VariantID:          g.VariantID,
		WeighPlaceID:       weighPlace,
		Quantity:           g.Quantity,
		Unit:               g.Unit.OrDefault(),
		IsSP:               g.IsSP,
		DiscountID:         g.DiscountID,
	}
}

func validateActor(a dto.Actor) error {
	if a.OrganizationID == "" || a.PlaceID == "" {
		return fmt.Errorf("%w: el llamador no tiene organización o lugar asignado", domain.ErrValidation)
	}
	return nil
}

func validateGoods(g dto.GoodsInput) error {
	if g.VariantID == "" {
		return fmt.Errorf("%w: variante requerida", domain.ErrValidation)
	}
	if err := entity.CheckQuantity(g.Quantity); err != nil {
		return err
	}
	if !g.Unit.OrDefault().IsValid() {
		return fmt.Errorf("%w: unidad %q", domain.ErrValidation, g.Unit)
	}
	return nil
}
