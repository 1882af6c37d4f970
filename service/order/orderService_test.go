package ordersvc

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dsimon1405/Library/apperr"
	"github.com/dsimon1405/Library/model"
	"github.com/dsimon1405/Library/util/database"
)

type txRunnerStub struct{}

func (txRunnerStub) RunTx(ctx context.Context, fn func(database.Tx) error) error {
	return fn(nil)
}

// txRunnerCommitErr runs fn and then fails as a commit would.
type txRunnerCommitErr struct{ err error }

func (r txRunnerCommitErr) RunTx(ctx context.Context, fn func(database.Tx) error) error {
	if err := fn(nil); err != nil {
		return err
	}
	return r.err
}

type repoMock struct {
	byIDFn            func(ctx context.Context, tx database.Tx, id int64) (*model.Order, error)
	byAccountFn       func(ctx context.Context, accountID int64) ([]model.Order, error)
	openByAccountFn   func(ctx context.Context, accountID int64) ([]model.Order, error)
	closedByAccountFn func(ctx context.Context, accountID int64) ([]model.Order, error)
	openByBookIDsFn   func(ctx context.Context, bookIDs []int64) ([]model.Order, error)
	insertFn          func(ctx context.Context, tx database.Tx, o *model.Order) error
	closeFn           func(ctx context.Context, tx database.Tx, o *model.Order) error
}

var _ Repo = (*repoMock)(nil)

func (m *repoMock) ByID(ctx context.Context, tx database.Tx, id int64) (*model.Order, error) {
	return m.byIDFn(ctx, tx, id)
}
func (m *repoMock) ByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return m.byAccountFn(ctx, accountID)
}
func (m *repoMock) OpenByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return m.openByAccountFn(ctx, accountID)
}
func (m *repoMock) ClosedByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	return m.closedByAccountFn(ctx, accountID)
}
func (m *repoMock) OpenByBookIDs(ctx context.Context, bookIDs []int64) ([]model.Order, error) {
	return m.openByBookIDsFn(ctx, bookIDs)
}
func (m *repoMock) Insert(ctx context.Context, tx database.Tx, o *model.Order) error {
	if m.insertFn == nil {
		o.ID = 1
		return nil
	}
	return m.insertFn(ctx, tx, o)
}
func (m *repoMock) Close(ctx context.Context, tx database.Tx, o *model.Order) error {
	if m.closeFn == nil {
		return nil
	}
	return m.closeFn(ctx, tx, o)
}

type ledgerMock struct {
	getFn        func(ctx context.Context, id int64) (*model.Account, error)
	applyDeltaFn func(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error)
}

func (m *ledgerMock) Get(ctx context.Context, id int64) (*model.Account, error) {
	if m.getFn == nil {
		return &model.Account{ID: id}, nil
	}
	return m.getFn(ctx, id)
}
func (m *ledgerMock) ApplyDelta(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error) {
	if m.applyDeltaFn == nil {
		return &model.Account{ID: id}, nil
	}
	return m.applyDeltaFn(ctx, tx, id, delta)
}

type invMock struct {
	adjustFn func(ctx context.Context, bookID int64, delta int) (*model.Book, error)
}

func (m *invMock) AdjustQuantity(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
	if m.adjustFn == nil {
		return &model.Book{ID: bookID, OneDayRentPriceUSD: decimal.NewFromInt(1)}, nil
	}
	return m.adjustFn(ctx, bookID, delta)
}

func noLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openOrders(accountID int64, bookIDs ...int64) []model.Order {
	out := make([]model.Order, len(bookIDs))
	for i, b := range bookIDs {
		out[i] = model.Order{ID: int64(100 + i), AccountID: accountID, BookID: b, RentStart: model.Today()}
	}
	return out
}

// --- Open ---

func TestOpen_FourthOrderFails(t *testing.T) {
	r := &repoMock{
		openByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return openOrders(7, 1, 2, 3), nil
		},
	}
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		t.Fatal("inventory must not be called after the limit check fails")
		return nil, nil
	}}
	s := New(txRunnerStub{}, r, &ledgerMock{}, inv, noLog())

	_, err := s.Open(context.Background(), 7, 4)
	require.Equal(t, apperr.CodeLimitExceeded, apperr.CodeOf(err))
}

func TestOpen_DuplicateBook(t *testing.T) {
	r := &repoMock{
		openByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return openOrders(7, 5), nil
		},
	}
	s := New(txRunnerStub{}, r, &ledgerMock{}, &invMock{}, noLog())

	_, err := s.Open(context.Background(), 7, 5)
	require.Equal(t, apperr.CodeDuplicateRental, apperr.CodeOf(err))
}

func TestOpen_UnknownAccount(t *testing.T) {
	r := &repoMock{
		openByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return nil, nil
		},
	}
	ledger := &ledgerMock{
		getFn: func(ctx context.Context, id int64) (*model.Account, error) {
			return nil, apperr.Newf(apperr.CodeNotFound, "account %d not found", id)
		},
	}
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		t.Fatal("inventory must not be called for an unknown account")
		return nil, nil
	}}
	s := New(txRunnerStub{}, r, ledger, inv, noLog())

	_, err := s.Open(context.Background(), 99, 5)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestOpen_RemoteFailureWritesNothing(t *testing.T) {
	inserted := false
	r := &repoMock{
		openByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return openOrders(7, 1), nil
		},
		insertFn: func(ctx context.Context, tx database.Tx, o *model.Order) error {
			inserted = true
			return nil
		},
	}
	remoteErr := apperr.New(apperr.CodeRemoteService, "have no available quantity of book with id: 5")
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		return nil, remoteErr
	}}
	s := New(txRunnerStub{}, r, &ledgerMock{}, inv, noLog())

	_, err := s.Open(context.Background(), 7, 5)
	require.ErrorIs(t, err, remoteErr, "remote errors propagate unchanged")
	require.False(t, inserted, "no local write after a remote failure")
}

func TestOpen_Success(t *testing.T) {
	accountLookups := 0
	ledger := &ledgerMock{
		getFn: func(ctx context.Context, id int64) (*model.Account, error) {
			accountLookups++
			return &model.Account{ID: id}, nil
		},
	}
	var inserted *model.Order
	r := &repoMock{
		openByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return openOrders(7, 1), nil
		},
		insertFn: func(ctx context.Context, tx database.Tx, o *model.Order) error {
			o.ID = 42
			inserted = o
			return nil
		},
	}
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		require.EqualValues(t, 5, bookID)
		require.Equal(t, -1, delta)
		return &model.Book{ID: bookID, OneDayRentPriceUSD: decimal.RequireFromString("2.50")}, nil
	}}
	s := New(txRunnerStub{}, r, ledger, inv, noLog())

	o, err := s.Open(context.Background(), 7, 5)
	require.NoError(t, err)
	require.EqualValues(t, 42, o.ID)
	require.EqualValues(t, 7, o.AccountID)
	require.EqualValues(t, 5, o.BookID)
	require.True(t, o.OneDayRentPriceUSD.Equal(decimal.RequireFromString("2.50")))
	require.True(t, o.PaidPriceUSD.IsZero())
	require.Equal(t, model.Today(), o.RentStart)
	require.Nil(t, o.RentEnd)
	require.NotNil(t, inserted)
	require.Zero(t, accountLookups, "open orders already prove the account exists")
}

// --- Close ---

func closeFixture(order *model.Order) *repoMock {
	return &repoMock{
		byIDFn: func(ctx context.Context, tx database.Tx, id int64) (*model.Order, error) {
			if order == nil || order.ID != id {
				return nil, sql.ErrNoRows
			}
			cp := *order
			return &cp, nil
		},
		closeFn: func(ctx context.Context, tx database.Tx, o *model.Order) error {
			*order = *o
			return nil
		},
	}
}

func TestClose_NotFound(t *testing.T) {
	s := New(txRunnerStub{}, closeFixture(nil), &ledgerMock{}, &invMock{}, noLog())

	_, err := s.Close(context.Background(), 7, 42, true, true)
	require.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestClose_Forbidden(t *testing.T) {
	order := &model.Order{ID: 42, AccountID: 7, BookID: 5, RentStart: model.Today()}
	s := New(txRunnerStub{}, closeFixture(order), &ledgerMock{}, &invMock{}, noLog())

	_, err := s.Close(context.Background(), 8, 42, true, true)
	require.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	require.Nil(t, order.RentEnd)
}

func TestClose_SecondCallAlreadyClosed(t *testing.T) {
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.NewFromInt(1),
		RentStart:          model.Today(),
	}
	s := New(txRunnerStub{}, closeFixture(order), &ledgerMock{}, &invMock{}, noLog())

	_, err := s.Close(context.Background(), 7, 42, true, true)
	require.NoError(t, err)
	require.NotNil(t, order.RentEnd)

	_, err = s.Close(context.Background(), 7, 42, true, true)
	require.Equal(t, apperr.CodeAlreadyClosed, apperr.CodeOf(err))
}

func TestClose_ChargesBothEndDays(t *testing.T) {
	yesterday := model.Today().AddDate(0, 0, -1)
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.RequireFromString("5.00"),
		RentStart:          yesterday,
	}
	var charged decimal.Decimal
	ledger := &ledgerMock{
		applyDeltaFn: func(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error) {
			require.EqualValues(t, 7, id)
			charged = delta.Neg()
			return &model.Account{ID: id, BalanceUSD: decimal.Zero}, nil
		},
	}
	var returnedDelta int
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		require.EqualValues(t, 5, bookID)
		returnedDelta = delta
		return &model.Book{ID: bookID}, nil
	}}
	s := New(txRunnerStub{}, closeFixture(order), ledger, inv, noLog())

	o, err := s.Close(context.Background(), 7, 42, true, true)
	require.NoError(t, err)
	require.True(t, charged.Equal(decimal.RequireFromString("10.00")), "charged %s", charged)
	require.True(t, o.PaidPriceUSD.Equal(decimal.RequireFromString("10.00")))
	require.Equal(t, model.Today(), *o.RentEnd)
	require.Equal(t, 1, returnedDelta)
}

func TestClose_InsufficientFundsLeavesOrderOpen(t *testing.T) {
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.RequireFromString("5.00"),
		RentStart:          model.Today().AddDate(0, 0, -1),
	}
	ledger := &ledgerMock{
		applyDeltaFn: func(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error) {
			return nil, &apperr.InsufficientFundsError{Shortfall: decimal.RequireFromString("7.00")}
		},
	}
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		t.Fatal("book must not be returned when settlement fails")
		return nil, nil
	}}
	s := New(txRunnerStub{}, closeFixture(order), ledger, inv, noLog())

	_, err := s.Close(context.Background(), 7, 42, true, true)
	require.Equal(t, apperr.CodeInsufficientFunds, apperr.CodeOf(err))

	var insufficient *apperr.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	require.True(t, insufficient.Shortfall.Equal(decimal.RequireFromString("7.00")))
	require.Nil(t, order.RentEnd, "order stays open")
	require.True(t, order.PaidPriceUSD.IsZero())
}

func TestClose_ReturnFailureAborts(t *testing.T) {
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.NewFromInt(1),
		RentStart:          model.Today(),
	}
	remoteErr := apperr.New(apperr.CodeRemoteService, "lib-service is down")
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		return nil, remoteErr
	}}
	s := New(txRunnerStub{}, closeFixture(order), &ledgerMock{}, inv, noLog())

	_, err := s.Close(context.Background(), 7, 42, true, true)
	require.ErrorIs(t, err, remoteErr)
	require.Nil(t, order.RentEnd, "close must not be persisted after a failed return")
}

func TestClose_CommitFailureAfterReturn(t *testing.T) {
	// The known saga gap: the book went back to lib-service but the local
	// close never committed. The operation fails; nothing compensates.
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.NewFromInt(1),
		RentStart:          model.Today(),
	}
	returned := false
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		returned = true
		return &model.Book{ID: bookID}, nil
	}}
	commitErr := errors.New("commit failed")
	s := New(txRunnerCommitErr{err: commitErr}, closeFixture(order), &ledgerMock{}, inv, noLog())

	_, err := s.Close(context.Background(), 7, 42, true, true)
	require.ErrorIs(t, err, commitErr)
	require.True(t, returned, "the remote increment already happened")
}

func TestAdminClose_SkipsOwnershipAndSettlement(t *testing.T) {
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.NewFromInt(5),
		RentStart:          model.Today().AddDate(0, 0, -3),
	}
	ledger := &ledgerMock{
		applyDeltaFn: func(ctx context.Context, tx database.Tx, id int64, delta decimal.Decimal) (*model.Account, error) {
			t.Fatal("admin close never settles the balance")
			return nil, nil
		},
	}
	invCalls := 0
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		invCalls++
		return &model.Book{ID: bookID}, nil
	}}
	s := New(txRunnerStub{}, closeFixture(order), ledger, inv, noLog())

	o, err := s.AdminClose(context.Background(), 42, true)
	require.NoError(t, err)
	require.NotNil(t, o.RentEnd)
	require.True(t, o.PaidPriceUSD.IsZero())
	require.Equal(t, 1, invCalls)
}

func TestAdminClose_WithoutReturn(t *testing.T) {
	order := &model.Order{
		ID: 42, AccountID: 7, BookID: 5,
		OneDayRentPriceUSD: decimal.NewFromInt(5),
		RentStart:          model.Today(),
	}
	inv := &invMock{adjustFn: func(ctx context.Context, bookID int64, delta int) (*model.Book, error) {
		t.Fatal("return_book=false must not touch inventory")
		return nil, nil
	}}
	s := New(txRunnerStub{}, closeFixture(order), &ledgerMock{}, inv, noLog())

	o, err := s.AdminClose(context.Background(), 42, false)
	require.NoError(t, err)
	require.NotNil(t, o.RentEnd)
}

// --- queries ---

func TestByAccount_Filters(t *testing.T) {
	r := &repoMock{
		byAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return openOrders(7, 1, 2), nil
		},
		openByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			return openOrders(7, 1), nil
		},
		closedByAccountFn: func(ctx context.Context, accountID int64) ([]model.Order, error) {
			end := model.Today()
			return []model.Order{{ID: 9, AccountID: 7, BookID: 2, RentEnd: &end}}, nil
		},
	}
	s := New(txRunnerStub{}, r, &ledgerMock{}, &invMock{}, noLog())
	ctx := context.Background()

	all, err := s.ByAccount(ctx, 7, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	open := true
	got, err := s.ByAccount(ctx, 7, &open)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Nil(t, got[0].RentEnd)

	open = false
	got, err = s.ByAccount(ctx, 7, &open)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].RentEnd)
}

func TestOpenByBookIDs(t *testing.T) {
	var asked []int64
	r := &repoMock{
		openByBookIDsFn: func(ctx context.Context, bookIDs []int64) ([]model.Order, error) {
			asked = bookIDs
			return openOrders(7, 5), nil
		},
	}
	s := New(txRunnerStub{}, r, &ledgerMock{}, &invMock{}, noLog())

	got, err := s.OpenByBookIDs(context.Background(), []int64{5, 6})
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, asked)
	require.Len(t, got, 1)

	got, err = s.OpenByBookIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
