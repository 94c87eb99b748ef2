package handlers

import (
	"net/http"

	"snack-gateway/auth"
	"snack-gateway/cart"
	"snack-gateway/clients"
	"snack-gateway/consumer"
	"snack-gateway/orders"
	"snack-gateway/review"
	"snack-gateway/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Market    *clients.MarketClient
	Auth      *auth.Service
	Carts     *cart.Registry
	Submitter *orders.Submitter
	Reviewer  *review.Reviewer
	Tracker   *consumer.ActivityTracker
	Sessions  *session.Manager
	Logger    *zap.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	logger := deps.Logger.Named("http")

	responder := NewResponder(deps.Auth, deps.Carts, logger)
	guard := NewGuard(deps.Auth, responder)

	authHandler := NewAuthHandler(deps.Auth, deps.Carts, responder, logger)
	catalogHandler := NewCatalogHandler(deps.Market, responder)
	cartHandler := NewCartHandler(deps.Carts, responder, logger)
	orderHandler := NewOrderHandler(deps.Submitter, deps.Carts, responder, logger)
	adminHandler := NewAdminHandler(deps.Reviewer, cartHandler, responder)
	superAdminHandler := NewSuperAdminHandler(deps.Market, deps.Auth, responder)
	statsHandler := NewStatsHandler(deps.Tracker)

	router := gin.New()
	router.Use(Recovery(logger), RequestID(), Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := router.Group("/api", deps.Sessions.Middleware())

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/logout", authHandler.Logout)

	authed := api.Group("", guard.Authenticated())
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/items", catalogHandler.ListItems)
	authed.GET("/items/:id", catalogHandler.GetItem)

	authed.GET("/cart", cartHandler.GetCart)
	authed.POST("/cart/items", cartHandler.AddItem)
	authed.PATCH("/cart/items/:id", cartHandler.UpdateQuantity)
	authed.DELETE("/cart/items/:id", cartHandler.RemoveItem)
	authed.DELETE("/cart", cartHandler.Clear)
	authed.POST("/cart/remove-selected", cartHandler.RemoveSelected)

	authed.GET("/orders/purchase-complete", orderHandler.PurchaseComplete)
	authed.GET("/orders", orderHandler.List)
	authed.GET("/orders/:id", orderHandler.Detail)

	buyer := authed.Group("/orders", guard.CurrentUser())
	buyer.POST("", orderHandler.Submit)
	buyer.POST("/instant", orderHandler.SubmitInstant)
	buyer.DELETE("/:id", orderHandler.Cancel)

	admin := authed.Group("/admin", guard.RequireAdmin())
	admin.GET("/orders/:id", adminHandler.GetOrder)
	admin.POST("/orders/:id/approve", adminHandler.Approve)
	admin.POST("/orders/:id/reject", adminHandler.Reject)
	admin.GET("/budget", adminHandler.GetBudget)
	admin.PATCH("/budget", adminHandler.UpdateBudget)

	authed.GET("/stats/orders", guard.RequireAdmin(), statsHandler.Orders)

	super := authed.Group("/super-admin", guard.RequireSuperAdmin())
	super.GET("/users", superAdminHandler.ListUsers)
	super.PATCH("/users/:id/role", superAdminHandler.UpdateRole)
	super.DELETE("/users/:id", superAdminHandler.DeleteUser)

	return router
}
