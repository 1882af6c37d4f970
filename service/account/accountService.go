// Package accountsvc owns per-account balances. The non-negative balance
// rule lives in one place, ApplyDelta, used both by the direct adjustment
// endpoint and by the order service's settlement path.
package accountsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/dsimon1405/Library/apperr"
	"github.com/dsimon1405/Library/model"
	"github.com/dsimon1405/Library/util/database"
)

type Repo interface {
	Get(ctx context.Context, id int64) (*model.Account, error)
	All(ctx context.Context) ([]model.Account, error)
	Insert(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (int64, error)
	Balance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error
}

// Orders is the slice of the order store the ledger needs for the
// no-open-orders deletion guard.
type Orders interface {
	OpenByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
}

type Service interface {
	Get(ctx context.Context, id int64) (*model.Account, error)
	All(ctx context.Context) ([]model.Account, error)

	// Create provisions an account with zero balance; ids come from the
	// auth service, never generated here.
	Create(ctx context.Context, id int64) error

	// Delete refuses while the account still has open orders.
	Delete(ctx context.Context, id int64) error

	// AdjustBalance applies delta in its own transaction.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (*model.Account, error)

	// ApplyDelta applies delta inside the caller's transaction, failing
	// with the shortfall when the result would be negative.
	ApplyDelta(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error)
}

type service struct {
	txr    database.TxRunner
	r      Repo
	orders Orders
}

func New(txr database.TxRunner, r Repo, orders Orders) Service {
	return &service{txr: txr, r: r, orders: orders}
}

func (s *service) Get(ctx context.Context, id int64) (*model.Account, error) {
	a, err := s.r.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "account %d not found", id)
	}
	return a, err
}

func (s *service) All(ctx context.Context) ([]model.Account, error) {
	return s.r.All(ctx)
}

func (s *service) Create(ctx context.Context, id int64) error {
	err := s.r.Insert(ctx, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperr.Newf(apperr.CodeAlreadyExists, "account %d already exists", id)
	}
	return err
}

func (s *service) Delete(ctx context.Context, id int64) error {
	open, err := s.orders.OpenByAccount(ctx, id)
	if err != nil {
		return err
	}
	if len(open) > 0 {
		ids := make([]string, len(open))
		for i, o := range open {
			ids[i] = fmt.Sprintf("%d", o.ID)
		}
		return apperr.Newf(apperr.CodeHasOpenOrders,
			"account %d has open orders: %s", id, strings.Join(ids, ", "))
	}
	n, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.Newf(apperr.CodeNotFound, "account %d not found", id)
	}
	return nil
}

func (s *service) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (*model.Account, error) {
	var out *model.Account
	err := s.txr.RunTx(ctx, func(tx database.Tx) error {
		var err error
		out, err = s.ApplyDelta(ctx, tx, id, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ApplyDelta(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error) {
	balance, err := s.r.Balance(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.CodeNotFound, "account %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, &apperr.InsufficientFundsError{Shortfall: newBalance.Neg()}
	}
	if err := s.r.UpdateBalance(ctx, tx, id, newBalance); err != nil {
		return nil, err
	}
	return &model.Account{ID: id, BalanceUSD: newBalance}, nil
}
