package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/farms-ledger/internal/application/dto"
	"github.com/jhoicas/farms-ledger/internal/application/query"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// StockHandler expone el libro de saldos (solo lectura).
type StockHandler struct {
	query query.Service
	log   *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(q query.Service, log *logger.Logger) *StockHandler {
	return &StockHandler{query: q, log: log}
}

// List GET /api/stocks
func (h *StockHandler) List(c *fiber.Ctx) error {
	filter, err := stockFilterFromQuery(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rows, err := h.query.ListStocks(c.UserContext(), GetActor(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.StockResponse, 0, len(rows))
	for _, s := range rows {
		items = append(items, dto.NewStockResponse(s))
	}
	return c.JSON(dto.ListResponse[dto.StockResponse]{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Page.Limit, Offset: filter.Page.Offset, Count: len(items)},
	})
}

// Get GET /api/stocks/:id
func (h *StockHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	s, err := h.query.GetStock(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NewStockResponse(s))
}
