// Package main library user-service API.
//
// @title           Library user-service API
// @version         1.0
// @description     Accounts, balances and book rental orders.
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/dsimon1405/Library/app/echoServer"
	accountctrl "github.com/dsimon1405/Library/app/echoServer/controller/account"
	orderctrl "github.com/dsimon1405/Library/app/echoServer/controller/order"
	"github.com/dsimon1405/Library/app/echoServer/validation"
	"github.com/dsimon1405/Library/config"
	accountrepo "github.com/dsimon1405/Library/repository/account"
	"github.com/dsimon1405/Library/repository/inventory"
	orderrepo "github.com/dsimon1405/Library/repository/order"
	accountsvc "github.com/dsimon1405/Library/service/account"
	ordersvc "github.com/dsimon1405/Library/service/order"
	"github.com/dsimon1405/Library/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	txr := database.NewRunner(db)

	// repos
	ar := accountrepo.New(db)
	or := orderrepo.New(db)
	ir := inventory.NewHTTP(cfg.LibServiceURL)

	// services
	accounts := accountsvc.New(txr, ar, or)
	orders := ordersvc.New(txr, or, accounts, ir, log)

	// controllers
	v := validator.New()
	accountC := &accountctrl.Controller{Svc: accounts, V: v, Log: log}
	orderC := &orderctrl.Controller{Svc: orders, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Account: accountC,
		Order:   orderC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port, "lib_service", cfg.LibServiceURL)

	e.Logger.Fatal(e.Start(":" + port))
}
