// Package ordersvc coordinates the rental order lifecycle across the local
// store and lib-service. Opening and closing an order are sagas in the small:
// two systems commit independently and the call order decides which failures
// are safe. The remote decrement always runs before the local insert, so a
// remote failure never strands a local order; the converse (remote committed,
// local commit failed) is not compensated, only logged.
package ordersvc

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dsimon1405/Library/apperr"
	"github.com/dsimon1405/Library/model"
	"github.com/dsimon1405/Library/util/database"
)

const maxOpenOrders = 3

type Repo interface {
	ByID(ctx context.Context, tx database.Tx, id int64) (*model.Order, error)
	ByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	OpenByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	ClosedByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	OpenByBookIDs(ctx context.Context, bookIDs []int64) ([]model.Order, error)
	Insert(ctx context.Context, tx database.Tx, o *model.Order) error
	Close(ctx context.Context, tx database.Tx, o *model.Order) error
}

// Ledger is the slice of the account service the coordinator needs. Balance
// settlement goes through ApplyDelta so the non-negative rule is the same one
// the direct adjustment endpoint uses.
type Ledger interface {
	Get(ctx context.Context, id int64) (*model.Account, error)
	ApplyDelta(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error)
}

type Inventory interface {
	AdjustQuantity(ctx context.Context, bookID int64, delta int) (*model.Book, error)
}

type Service interface {
	Open(ctx context.Context, accountID, bookID int64) (*model.Order, error)

	// Close settles the balance and/or returns the book depending on the
	// flags, always setting rent_end to today.
	Close(ctx context.Context, accountID, orderID int64, settleBalance, returnBook bool) (*model.Order, error)

	// AdminClose closes any order on behalf of its owner without settling
	// the balance.
	AdminClose(ctx context.Context, orderID int64, returnBook bool) (*model.Order, error)

	// ByAccount lists orders; open == nil means all, otherwise only open or
	// only closed ones.
	ByAccount(ctx context.Context, accountID int64, open *bool) ([]model.Order, error)

	// OpenByBookIDs is the query lib-service runs before deleting a book,
	// to veto deletion of actively rented ones.
	OpenByBookIDs(ctx context.Context, bookIDs []int64) ([]model.Order, error)
}

type service struct {
	txr    database.TxRunner
	r      Repo
	ledger Ledger
	inv    Inventory
	log    *slog.Logger
}

func New(txr database.TxRunner, r Repo, ledger Ledger, inv Inventory, log *slog.Logger) Service {
	return &service{txr: txr, r: r, ledger: ledger, inv: inv, log: log}
}

// Open checks the per-account limits, reserves a copy at lib-service and only
// then writes the order. The limit and duplicate checks are read-then-decide
// with no lock, so two concurrent opens can both pass them; that race is
// inherited from the original design and left as is.
func (s *service) Open(ctx context.Context, accountID, bookID int64) (*model.Order, error) {
	open, err := s.r.OpenByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(open) >= maxOpenOrders {
		return nil, apperr.Newf(apperr.CodeLimitExceeded,
			"reached max number of open orders: %d", maxOpenOrders)
	}
	for _, o := range open {
		if o.BookID == bookID {
			return nil, apperr.Newf(apperr.CodeDuplicateRental,
				"account %d already rents book %d", accountID, bookID)
		}
	}
	// An account with open orders is known to exist, skip the lookup then.
	if len(open) == 0 {
		if _, err := s.ledger.Get(ctx, accountID); err != nil {
			return nil, err
		}
	}

	// Remote decrement before any local write: a remote failure leaves
	// nothing to compensate.
	book, err := s.inv.AdjustQuantity(ctx, bookID, -1)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		AccountID:          accountID,
		BookID:             bookID,
		OneDayRentPriceUSD: book.OneDayRentPriceUSD,
		PaidPriceUSD:       decimal.Zero,
		RentStart:          model.Today(),
	}
	if err := s.txr.RunTx(ctx, func(tx database.Tx) error {
		return s.r.Insert(ctx, tx, order)
	}); err != nil {
		// The copy stays reserved at lib-service with no order to show for
		// it. No compensating call exists, so make the gap loud.
		s.log.Error("inventory decremented but order insert did not commit",
			"account_id", accountID, "book_id", bookID, "err", err)
		return nil, err
	}
	return order, nil
}

func (s *service) Close(ctx context.Context, accountID, orderID int64, settleBalance, returnBook bool) (*model.Order, error) {
	return s.close(ctx, &accountID, orderID, settleBalance, returnBook)
}

func (s *service) AdminClose(ctx context.Context, orderID int64, returnBook bool) (*model.Order, error) {
	return s.close(ctx, nil, orderID, false, returnBook)
}

func (s *service) close(ctx context.Context, requesterID *int64, orderID int64, settleBalance, returnBook bool) (*model.Order, error) {
	var order *model.Order
	returned := false

	err := s.txr.RunTx(ctx, func(tx database.Tx) error {
		var err error
		order, err = s.r.ByID(ctx, tx, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Newf(apperr.CodeNotFound, "order %d not found", orderID)
		}
		if err != nil {
			return err
		}
		if requesterID != nil && order.AccountID != *requesterID {
			return apperr.Newf(apperr.CodeForbidden,
				"account %d has no order %d", *requesterID, orderID)
		}
		if order.RentEnd != nil {
			return apperr.Newf(apperr.CodeAlreadyClosed, "order %d is already closed", orderID)
		}

		rentEnd := model.Today()
		if settleBalance {
			price, err := order.RentPrice(rentEnd)
			if err != nil {
				return err
			}
			if _, err := s.ledger.ApplyDelta(ctx, tx, order.AccountID, price.Neg()); err != nil {
				return err
			}
			order.PaidPriceUSD = price
		}
		order.RentEnd = &rentEnd

		if returnBook {
			// The increment commits remotely on its own; a failure after
			// this point rolls back the local writes but not this call.
			if _, err := s.inv.AdjustQuantity(ctx, order.BookID, 1); err != nil {
				return err
			}
			returned = true
		}
		return s.r.Close(ctx, tx, order)
	})
	if err != nil {
		if returned {
			s.log.Error("book returned to inventory but order close did not commit",
				"order_id", orderID, "book_id", order.BookID, "err", err)
		}
		return nil, err
	}
	return order, nil
}

func (s *service) ByAccount(ctx context.Context, accountID int64, open *bool) ([]model.Order, error) {
	switch {
	case open == nil:
		return s.r.ByAccount(ctx, accountID)
	case *open:
		return s.r.OpenByAccount(ctx, accountID)
	default:
		return s.r.ClosedByAccount(ctx, accountID)
	}
}

func (s *service) OpenByBookIDs(ctx context.Context, bookIDs []int64) ([]model.Order, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}
	return s.r.OpenByBookIDs(ctx, bookIDs)
}
