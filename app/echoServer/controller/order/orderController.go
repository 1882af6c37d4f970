package order

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dsimon1405/Library/app/echoServer/httperr"
	ordersvc "github.com/dsimon1405/Library/service/order"
)

type Controller struct {
	Svc ordersvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/orders/book/:book_id
func (h *Controller) Open(c echo.Context) error {
	bookID, err := pathID(c, "book_id")
	if err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid book_id")
	}
	uid, _ := c.Get("user_id").(int64)

	o, err := h.Svc.Open(c.Request().Context(), uid, bookID)
	if err != nil {
		h.Log.Error("order open", "account_id", uid, "book_id", bookID, "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, toResp(*o))
}

// PUT /v1/orders/:id/close
// The user flow always settles the balance and returns the book.
func (h *Controller) Close(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid id")
	}
	uid, _ := c.Get("user_id").(int64)

	o, err := h.Svc.Close(c.Request().Context(), uid, orderID, true, true)
	if err != nil {
		h.Log.Error("order close", "account_id", uid, "order_id", orderID, "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, toResp(*o))
}

// PUT /v1/orders/admin/:id/close?return_book=true
func (h *Controller) AdminClose(c echo.Context) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid id")
	}
	returnBook, _ := strconv.ParseBool(c.QueryParam("return_book"))

	o, err := h.Svc.AdminClose(c.Request().Context(), orderID, returnBook)
	if err != nil {
		h.Log.Error("order admin close", "order_id", orderID, "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, toResp(*o))
}

// GET /v1/orders?open=true|false
// No open parameter lists everything.
func (h *Controller) List(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)

	var open *bool
	if raw := c.QueryParam("open"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return httperr.Message(c, http.StatusBadRequest, "invalid open parameter")
		}
		open = &b
	}

	orders, err := h.Svc.ByAccount(c.Request().Context(), uid, open)
	if err != nil {
		h.Log.Error("order list", "account_id", uid, "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toRespList(orders)})
}

// POST /internal/v1/orders/open-by-book
// The body is a bare JSON array of book ids, the shape lib-service sends.
func (h *Controller) OpenByBooks(c echo.Context) error {
	var bookIDs []int64
	if err := c.Bind(&bookIDs); err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid JSON")
	}
	if err := h.V.Var(bookIDs, "required,min=1,dive,gt=0"); err != nil {
		return httperr.Message(c, http.StatusBadRequest, "body must be a non-empty list of positive book ids")
	}

	orders, err := h.Svc.OpenByBookIDs(c.Request().Context(), bookIDs)
	if err != nil {
		h.Log.Error("orders open-by-book", "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toRespList(orders)})
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
