package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/farms-ledger/internal/application/billing"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/query"
	"github.com/jhoicas/farms-ledger/internal/domain/entity"
	"github.com/jhoicas/farms-ledger/internal/domain/repository"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// BillHandler maneja ventas (cabecera y líneas) y el recibo PDF (protegido).
type BillHandler struct {
	sales    *billing.SaleUseCase
	receipts *billing.ReceiptUseCase
	query    query.Service
	log      *logger.Logger
}

// NewBillHandler construye el handler.
func NewBillHandler(sales *billing.SaleUseCase, receipts *billing.ReceiptUseCase, q query.Service, log *logger.Logger) *BillHandler {
	return &BillHandler{sales: sales, receipts: receipts, query: q, log: log}
}

// Create godoc
// @Summary      Registrar venta
// @Description  Cabecera, líneas y descuento de stock en una sola transacción.
// @Tags         bills
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.BillRequest  true  "montos, pay_type y bill_items"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bills [post]
func (h *BillHandler) Create(c *fiber.Ctx) error {
	var in dto.BillRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cmd := dto.CreateSaleCommand{
		Actor:        GetActor(c),
		BillerUserID: in.BillerUserID,
		SalePlaceID:  in.SalePlaceID,
		DiscountID:   in.DiscountID,
		PayType:      in.PayTypeOrDefault(),
		Amounts:      in.Amounts(),
		Lines:        make([]dto.SaleLineInput, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		cmd.Lines = append(cmd.Lines, it.Line())
	}
	res, err := h.sales.CreateSale(c.UserContext(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.SaleResponse{BillID: res.BillID, StockID: res.StockID, BillItems: make([]dto.BillItemResponse, 0, len(res.Items))}
	for _, it := range res.Items {
		out.BillItems = append(out.BillItems, dto.NewBillItemResponse(it))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List lista ventas.
// GET /api/bills
func (h *BillHandler) List(c *fiber.Ctx) error {
	filter, err := billFilterFromQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	bills, err := h.query.ListBills(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.BillResponse, 0, len(bills))
	for _, b := range bills {
		items = append(items, dto.NewBillResponse(b))
	}
	return c.JSON(dto.ListResponse[dto.BillResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Count: len(items)},
	})
}

// Get obtiene una venta con sus líneas activas.
// GET /api/bills/:id
func (h *BillHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	detail, err := h.query.GetBill(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBillDetailResponse(detail))
}

// Update edita la cabecera. No reconcilia stock.
// PATCH /api/bills/:id
func (h *BillHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.BillRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	bill, err := h.sales.EditSale(c.UserContext(), dto.EditSaleCommand{
		Actor:        GetActor(c),
		BillID:       id,
		BillerUserID: in.BillerUserID,
		SalePlaceID:  in.SalePlaceID,
		DiscountID:   in.DiscountID,
		PayType:      in.PayTypeOrDefault(),
		Amounts:      in.Amounts(),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBillResponse(bill))
}

// Deactivate marca la venta y sus líneas como inactivas.
// POST /api/bills/:id/deactivate
func (h *BillHandler) Deactivate(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.sales.DeactivateBill(c.UserContext(), GetActor(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Items lista las líneas de una venta.
// GET /api/bills/:id/items
func (h *BillHandler) Items(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	filter, err := billItemFilterFromQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	filter.BillID = &id
	return h.listItems(c, filter)
}

// Receipt godoc
// @Summary      Descargar recibo PDF
// @Tags         bills
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta (UUID)"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bills/{id}/receipt [get]
func (h *BillHandler) Receipt(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pdf, filename, err := h.receipts.DownloadReceipt(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdf)
}

// ListItems lista líneas de venta de la organización.
// GET /api/bill-items
func (h *BillHandler) ListItems(c *fiber.Ctx) error {
	filter, err := billItemFilterFromQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.listItems(c, filter)
}

// UpdateItem edita una línea. No reconcilia stock.
// PATCH /api/bill-items/:id
func (h *BillHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var in dto.BillItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	line := in.Line()
	item, err := h.sales.EditLineItem(c.UserContext(), dto.EditLineItemCommand{
		Actor:     GetActor(c),
		ItemID:    id,
		VariantID: line.VariantID,
		Quantity:  line.Quantity,
		Unit:      line.Unit,
		LinePrice: line.LinePrice,
		IsSP:      line.IsSP,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewBillItemResponse(item))
}

// DeactivateItem marca una línea como inactiva.
// POST /api/bill-items/:id/deactivate
func (h *BillHandler) DeactivateItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.sales.DeactivateLineItem(c.UserContext(), GetActor(c), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *BillHandler) listItems(c *fiber.Ctx, filter repository.BillItemFilter) error {
	rows, err := h.query.ListBillItems(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.BillItemResponse]{
		Items: mapItems(rows),
		Page:  dto.PageResponse{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Count: len(rows)},
	})
}

func mapItems(rows []*entity.BillItem) []dto.BillItemResponse {
	out := make([]dto.BillItemResponse, 0, len(rows))
	for _, it := range rows {
		out = append(out, dto.NewBillItemResponse(it))
	}
	return out
}
