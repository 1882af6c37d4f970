package account

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dsimon1405/Library/app/echoServer/httperr"
	accountsvc "github.com/dsimon1405/Library/service/account"
)

type Controller struct {
	Svc accountsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/accounts/:id
// Called by the auth service when a user registers; the id is the caller's,
// not generated here.
func (h *Controller) Create(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.Svc.Create(c.Request().Context(), id); err != nil {
		h.Log.Error("account create", "id", id, "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, AccountResp{ID: id, BalanceUSD: "0.00"})
}

// DELETE /v1/accounts/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("account delete", "id", id, "err", err)
		return httperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /v1/accounts
func (h *Controller) All(c echo.Context) error {
	accounts, err := h.Svc.All(c.Request().Context())
	if err != nil {
		h.Log.Error("account list", "err", err)
		return httperr.Respond(c, err)
	}
	out := make([]AccountResp, len(accounts))
	for i, a := range accounts {
		out[i] = toResp(a)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GET /v1/accounts/balance
func (h *Controller) Balance(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	a, err := h.Svc.Get(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("account balance", "id", uid, "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, toResp(*a))
}

// PUT /v1/accounts/balance?change_on=12.50
func (h *Controller) AdjustBalance(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	delta, err := decimal.NewFromString(c.QueryParam("change_on"))
	if err != nil {
		return httperr.Message(c, http.StatusBadRequest, "invalid change_on amount")
	}
	a, err := h.Svc.AdjustBalance(c.Request().Context(), uid, delta)
	if err != nil {
		h.Log.Error("balance adjust", "id", uid, "delta", delta.String(), "err", err)
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, toResp(*a))
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
