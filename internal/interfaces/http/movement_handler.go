package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/inventory"
	"github.com/jhoicas/farms-ledger/internal/application/query"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// MovementHandler maneja los endpoints del log de movimientos (protegido).
type MovementHandler struct {
	transfer *inventory.TransferUseCase
	query    query.Service
	log      *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(transfer *inventory.TransferUseCase, q query.Service, log *logger.Logger) *MovementHandler {
	return &MovementHandler{transfer: transfer, query: q, log: log}
}

// Receive godoc
// @Summary      Registrar desembarque
// @Description  IMPORT al lugar del llamador. Con export_to_id la mercancía sigue de largo
//
//	(IMPORT + EXPORT) y no se toca ningún saldo.
//
// @Tags         records
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GoodsRequest  true  "fish_variant_id, weight, weight_unit, is_SP, import_from_id, export_to_id"
// @Success      201   {object}  dto.ReceiveInboundResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/records/landings [post]
func (h *MovementHandler) Receive(c *fiber.Ctx) error {
	var in dto.GoodsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.transfer.ReceiveInbound(c.UserContext(), dto.ReceiveInboundCommand{
		Actor:               GetActor(c),
		Goods:               in.Goods(),
		SourcePlaceID:       in.SourcePlaceID,
		OnwardDestinationID: in.DestinationPlaceID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Dispatch godoc
// @Summary      Registrar salida
// @Tags         records
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GoodsRequest  true  "fish_variant_id, weight, export_to_id opcional"
// @Success      201   {object}  dto.MovementResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/records/sales [post]
func (h *MovementHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.GoodsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.transfer.DispatchOutbound(c.UserContext(), dto.DispatchCommand{
		Actor:              GetActor(c),
		Goods:              in.Goods(),
		DestinationPlaceID: in.DestinationPlaceID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Transfer godoc
// @Summary      Enviar stock a otro lugar
// @Tags         records
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.GoodsRequest  true  "export_to_id obligatorio y distinto del lugar del llamador"
// @Success      201   {object}  dto.MovementResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/records/send-stock [post]
func (h *MovementHandler) Transfer(c *fiber.Ctx) error {
	var in dto.GoodsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.transfer.TransferBetweenPlaces(c.UserContext(), dto.DispatchCommand{
		Actor:              GetActor(c),
		Goods:              in.Goods(),
		DestinationPlaceID: in.DestinationPlaceID,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// BulkReceive recibe varias líneas; cada una se confirma o revierte por separado.
// Responde 207 si alguna línea falló.
// POST /api/records/stock
func (h *MovementHandler) BulkReceive(c *fiber.Ctx) error {
	var in dto.BulkReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cmd := dto.BulkReceiveCommand{Actor: GetActor(c), Lines: make([]dto.BulkReceiveLine, 0, len(in.Items))}
	for _, it := range in.Items {
		cmd.Lines = append(cmd.Lines, dto.BulkReceiveLine{Goods: it.Goods(), SourcePlaceID: it.SourcePlaceID})
	}
	results, err := h.transfer.BulkReceive(c.UserContext(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	out := make([]dto.BulkReceiveLineResponse, 0, len(results))
	for _, r := range results {
		line := dto.BulkReceiveLineResponse{Index: r.Index, RecordID: r.RecordID, StockID: r.StockID}
		if r.Err != nil {
			status = fiber.StatusMultiStatus
			line.Error = lineError(r.Err)
		}
		out = append(out, line)
	}
	return c.Status(status).JSON(fiber.Map{"items": out})
}

// List lista registros del log con filtros, orden y paginación.
// GET /api/records
func (h *MovementHandler) List(c *fiber.Ctx) error {
	filter, err := movementFilterFromQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	records, err := h.query.ListMovements(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0, len(records))
	for _, r := range records {
		items = append(items, dto.NewMovementResponse(r))
	}
	return c.JSON(dto.ListResponse[dto.MovementResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Count: len(items)},
	})
}

// Get obtiene un registro.
// GET /api/records/:id
func (h *MovementHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rec, err := h.query.GetMovement(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewMovementResponse(rec))
}

// Deactivate marca el registro como inactivo. No revierte el saldo.
// POST /api/records/:id/deactivate
func (h *MovementHandler) Deactivate(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.transfer.Deactivate(c.UserContext(), GetActor(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// lineError resume el error de una línea sin filtrar detalles internos.
func lineError(err error) *dto.ErrorResponse {
	switch domain.Classify(err) {
	case domain.ErrValidation:
		return &dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case domain.ErrReferenceNotFound:
		return &dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case domain.ErrInsufficientStock:
		return &dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()}
	case domain.ErrIntegrityConflict:
		return &dto.ErrorResponse{Code: "CONFLICT", Message: domain.ErrIntegrityConflict.Error()}
	default:
		return &dto.ErrorResponse{Code: "INTERNAL", Message: domain.ErrInternal.Error()}
	}
}

