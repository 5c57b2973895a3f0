package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/farms-ledger/internal/application/billing"
	"github.com/jhoicas/farms-ledger/internal/application/inventory"
	"github.com/jhoicas/farms-ledger/internal/application/query"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Transfer  *inventory.TransferUseCase
	Sales     *billing.SaleUseCase
	Receipts  *billing.ReceiptUseCase
	Query     query.Service
	Logger    *logger.Logger
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Log de movimientos
	records := api.Group("/records")
	movementHandler := NewMovementHandler(deps.Transfer, deps.Query, log.Named("records"))
	records.Post("/landings", movementHandler.Receive)
	records.Post("/sales", movementHandler.Dispatch)
	records.Post("/send-stock", movementHandler.Transfer)
	records.Post("/stock", movementHandler.BulkReceive)
	records.Get("/", movementHandler.List)
	records.Get("/:id", movementHandler.Get)
	records.Post("/:id/deactivate", movementHandler.Deactivate)

	// Ventas
	billHandler := NewBillHandler(deps.Sales, deps.Receipts, deps.Query, log.Named("bills"))
	bills := api.Group("/bills")
	bills.Post("/", billHandler.Create)
	bills.Get("/", billHandler.List)
	bills.Get("/:id", billHandler.Get)
	bills.Patch("/:id", billHandler.Update)
	bills.Post("/:id/deactivate", billHandler.Deactivate)
	bills.Get("/:id/items", billHandler.Items)
	bills.Get("/:id/receipt", billHandler.Receipt)

	billItems := api.Group("/bill-items")
	billItems.Get("/", billHandler.ListItems)
	billItems.Patch("/:id", billHandler.UpdateItem)
	billItems.Post("/:id/deactivate", billHandler.DeactivateItem)

	// Saldos
	stocks := api.Group("/stocks")
	stockHandler := NewStockHandler(deps.Query, log.Named("stocks"))
	stocks.Get("/", stockHandler.List)
	stocks.Get("/:id", stockHandler.Get)
}
