// Package routes defines the API routing configuration: route groups, their
// handlers and the authentication requirements on each group.
package routes

import (
	"campusledger/internal/handlers"
	"campusledger/internal/middleware"
	"campusledger/internal/models"
	"campusledger/internal/repositories/cache"
	"campusledger/internal/services/event"
	"campusledger/internal/services/exchange"
	"campusledger/internal/services/ledger"
	"campusledger/internal/services/payment"
	"campusledger/internal/services/purchase"
	"campusledger/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies carries the wired services the routes dispatch to.
type Dependencies struct {
	DB       *gorm.DB
	Cache    *cache.Service
	Registry *prometheus.Registry
	Log      *zap.Logger

	Wallet   wallet.Service
	Ledger   ledger.Service
	Exchange exchange.Service
	Event    event.Service
	Payment  payment.Service
	Purchase purchase.Service
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	auth := middleware.NewAuth(deps.Log)

	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Cache)
	walletHandler := handlers.NewWalletHandler(deps.Wallet)
	transactionHandler := handlers.NewTransactionHandler(deps.Ledger)
	eventHandler := handlers.NewEventHandler(deps.Event)
	paymentHandler := handlers.NewPaymentRequestHandler(deps.Payment)
	purchaseHandler := handlers.NewPurchaseHandler(deps.Purchase)
	exchangeHandler := handlers.NewExchangeHandler(deps.Exchange)

	app.Get("/health", healthHandler.Check)
	if deps.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", auth.Handler)

	wallets := api.Group("/wallets")
	wallets.Get("/me", walletHandler.GetMyWallet)
	wallets.Get("/:id", walletHandler.GetWallet)
	wallets.Get("/:id/balance", walletHandler.GetBalance)
	wallets.Get("/:id/transactions", transactionHandler.GetHistory)
	wallets.Post("/", middleware.RequireRole(models.RoleAdmin), walletHandler.CreateWallet)
	wallets.Post("/:id/freeze", middleware.RequireRole(models.RoleAdmin), walletHandler.Freeze)
	wallets.Post("/:id/unfreeze", middleware.RequireRole(models.RoleAdmin), walletHandler.Unfreeze)

	groups := api.Group("/groups")
	groups.Get("/:groupId/wallets", middleware.RequireRole(models.RoleGroupAdmin), walletHandler.ListGroupWallets)
	groups.Get("/:groupId/payment-requests", middleware.RequireRole(models.RoleGroupAdmin), paymentHandler.ListByGroup)

	transactions := api.Group("/transactions")
	transactions.Post("/transfer", transactionHandler.Transfer)
	transactions.Post("/credit", middleware.RequireRole(models.RoleAdmin), transactionHandler.ExternalCredit)
	transactions.Get("/:id", transactionHandler.GetTransaction)
	transactions.Post("/:id/settle", middleware.RequireRole(models.RoleGroupAdmin), transactionHandler.Settle)
	transactions.Post("/:id/cancel", transactionHandler.Cancel)

	events := api.Group("/events")
	events.Get("/", eventHandler.ListOpen)
	events.Get("/:id", eventHandler.GetEvent)
	events.Get("/:id/participants", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.ListParticipants)
	events.Post("/", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.CreateEvent)
	events.Post("/:id/publish", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.Publish)
	events.Post("/:id/close", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.Close)
	events.Post("/:id/cancel", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.CancelEvent)
	events.Post("/:id/register", eventHandler.Register)
	events.Delete("/:id/registrations/:walletId", eventHandler.CancelRegistration)
	events.Post("/participations/:participantId/validate", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.Validate)
	events.Post("/participations/:participantId/reject", middleware.RequireRole(models.RoleGroupAdmin), eventHandler.Reject)

	paymentRequests := api.Group("/payment-requests")
	paymentRequests.Get("/me", paymentHandler.ListMine)
	paymentRequests.Get("/:id", paymentHandler.Get)
	paymentRequests.Post("/", middleware.RequireRole(models.RoleGroupAdmin), paymentHandler.Create)
	paymentRequests.Post("/:id/respond", paymentHandler.Respond)

	purchases := api.Group("/purchases")
	purchases.Get("/packs", purchaseHandler.ListPacks)
	purchases.Post("/fulfill", middleware.RequireRole(models.RoleAdmin), purchaseHandler.Fulfill)

	rules := api.Group("/exchange", middleware.RequireRole(models.RoleAdmin))
	rules.Put("/rules", exchangeHandler.UpsertRule)
	rules.Get("/rules/:fromGroupId/:toGroupId", exchangeHandler.GetRule)
	rules.Get("/trust/:fromGroupId/:toGroupId", exchangeHandler.GetTrustScore)
}
