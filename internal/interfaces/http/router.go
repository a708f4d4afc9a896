package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/notification"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName       string
	CompanyUC     *usecase.CompanyUseCase
	WarehouseUC   *usecase.WarehouseUseCase
	ItemUC        *usecase.ItemUseCase
	HistoryUC     *usecase.HistoryUseCase
	UserUC        *usecase.UserUseCase
	Engine        *inventory.Engine
	Query         *inventory.QueryUseCase
	Notifications *notification.Service
	// Stream nil deja /api/notifications/stream en 503.
	Stream notification.Subscriber
	// StreamContext se cancela en el apagado para cerrar los SSE abiertos.
	StreamContext context.Context
	AuthUC        *auth.AuthUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Alta de empresa pública: es el primer paso antes de registrar usuarios.
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	protected := api.Group("", AuthMiddleware(deps.JWTSecret))
	protected.Get("/companies/:id", companyHandler.GetByID)

	adminOnly := RequireRole(entity.RoleAdmin)
	movers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	userHandler := NewUserHandler(deps.UserUC)
	protected.Get("/users/me", userHandler.Me)
	protected.Patch("/users/:id/status", adminOnly, userHandler.SetStatus)

	// Bodegas: lectura para todos, escritura admin
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, deps.Query)
	warehouses := protected.Group("/warehouses")
	warehouses.Post("/", adminOnly, warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", adminOnly, warehouseHandler.Update)
	warehouses.Delete("/:id", adminOnly, warehouseHandler.Delete)
	warehouses.Get("/:id/utilization", warehouseHandler.Utilization)

	itemHandler := NewItemHandler(deps.ItemUC)
	items := protected.Group("/items")
	items.Post("/", adminOnly, itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", adminOnly, itemHandler.Update)
	items.Delete("/:id", adminOnly, itemHandler.Delete)

	protected.Get("/inventory", NewInventoryHandler(deps.Query).List)

	// Movimientos: admin o bodeguero
	txHandler := NewTransactionHandler(deps.Engine, deps.Query)
	transactions := protected.Group("/transactions")
	transactions.Post("/", movers, txHandler.Create)
	transactions.Post("/transfer", movers, txHandler.Transfer)
	transactions.Get("/", txHandler.List)
	transactions.Get("/:id", txHandler.GetByID)
	transactions.Get("/:id/pdf", txHandler.PDF)

	protected.Get("/history/:kind/:id", NewHistoryHandler(deps.HistoryUC).List)

	notifHandler := NewNotificationHandler(deps.StreamContext, deps.Notifications, deps.Stream)
	notifications := protected.Group("/notifications")
	notifications.Get("/", notifHandler.List)
	notifications.Get("/stream", notifHandler.Stream)
	notifications.Post("/read-all", notifHandler.MarkAllRead)
	notifications.Patch("/:id/read", notifHandler.MarkRead)
}
