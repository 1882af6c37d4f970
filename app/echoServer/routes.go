package echoServer

import (
	"github.com/labstack/echo/v4"

	"github.com/dsimon1405/Library/app/echoServer/controller/account"
	"github.com/dsimon1405/Library/app/echoServer/controller/order"
)

type C struct {
	Account *account.Controller
	Order   *order.Controller
}

// Register wires the routes. The gateway is the only caller: /internal routes
// are reachable from other services, user routes carry the resolved account
// id in X-User-Id, admin routes are gated by the gateway's role check.
func Register(e *echo.Echo, c C) {
	// Service-to-service
	internal := e.Group("/internal")
	internal.POST("/v1/accounts/:id", c.Account.Create)
	internal.DELETE("/v1/accounts/:id", c.Account.Delete)
	internal.POST("/v1/orders/open-by-book", c.Order.OpenByBooks)

	// Admin (role enforced upstream)
	admin := e.Group("/v1/admin")
	admin.GET("/accounts", c.Account.All)
	admin.PUT("/orders/:id/close", c.Order.AdminClose)

	// User
	user := e.Group("/v1")
	user.Use(Identity())
	user.GET("/accounts/balance", c.Account.Balance)
	user.PUT("/accounts/balance", c.Account.AdjustBalance)
	user.POST("/orders/book/:book_id", c.Order.Open)
	user.PUT("/orders/:id/close", c.Order.Close)
	user.GET("/orders", c.Order.List)
}
