// repository/order/repo.go
package orderrepo

import (
	"context"
	"database/sql"

	"github.com/dsimon1405/Library/model"
	"github.com/dsimon1405/Library/util/database"
)

type Repo interface {
	ByID(ctx context.Context, tx database.Tx, id int64) (*model.Order, error)
	ByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	OpenByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	ClosedByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	OpenByBookIDs(ctx context.Context, bookIDs []int64) ([]model.Order, error)

	Insert(ctx context.Context, tx database.Tx, o *model.Order) error
	Close(ctx context.Context, tx database.Tx, o *model.Order) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const orderCols = `order_id, account_id, book_id, one_day_rent_price_usd, paid_price_usd, rent_start, rent_end`

func (r *repo) ByID(ctx context.Context, tx database.Tx, id int64) (*model.Order, error) {
	const q = `
		SELECT ` + orderCols + `
		FROM orders
		WHERE order_id = $1`
	return scanOrder(tx.QueryRowContext(ctx, q, id))
}

func (r *repo) ByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	const q = `
		SELECT ` + orderCols + `
		FROM orders
		WHERE account_id = $1
		ORDER BY order_id`
	return r.list(ctx, q, accountID)
}

func (r *repo) OpenByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	const q = `
		SELECT ` + orderCols + `
		FROM orders
		WHERE account_id = $1
		AND rent_end IS NULL
		ORDER BY order_id`
	return r.list(ctx, q, accountID)
}

func (r *repo) ClosedByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	const q = `
		SELECT ` + orderCols + `
		FROM orders
		WHERE account_id = $1
		AND rent_end IS NOT NULL
		ORDER BY order_id`
	return r.list(ctx, q, accountID)
}

func (r *repo) OpenByBookIDs(ctx context.Context, bookIDs []int64) ([]model.Order, error) {
	const q = `
		SELECT ` + orderCols + `
		FROM orders
		WHERE rent_end IS NULL
		AND book_id = ANY($1)
		ORDER BY order_id`
	return r.list(ctx, q, bookIDs)
}

func (r *repo) Insert(ctx context.Context, tx database.Tx, o *model.Order) error {
	const q = `
		INSERT INTO orders (account_id, book_id, one_day_rent_price_usd, paid_price_usd, rent_start)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING order_id`
	return tx.QueryRowContext(ctx, q,
		o.AccountID, o.BookID, o.OneDayRentPriceUSD, o.PaidPriceUSD, o.RentStart,
	).Scan(&o.ID)
}

// Close writes the fields the close operation may have changed. rent_end is
// only ever set, never cleared; orders are never deleted.
func (r *repo) Close(ctx context.Context, tx database.Tx, o *model.Order) error {
	const q = `
		UPDATE orders
		SET paid_price_usd = $2,
			rent_end = $3
		WHERE order_id = $1`
	_, err := tx.ExecContext(ctx, q, o.ID, o.PaidPriceUSD, o.RentEnd)
	return err
}

func (r *repo) list(ctx context.Context, q string, arg any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		var end sql.NullTime
		if err := rows.Scan(&o.ID, &o.AccountID, &o.BookID,
			&o.OneDayRentPriceUSD, &o.PaidPriceUSD, &o.RentStart, &end); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			o.RentEnd = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (*model.Order, error) {
	o := &model.Order{}
	var end sql.NullTime
	if err := row.Scan(&o.ID, &o.AccountID, &o.BookID,
		&o.OneDayRentPriceUSD, &o.PaidPriceUSD, &o.RentStart, &end); err != nil {
		return nil, err
	}
	if end.Valid {
		t := end.Time
		o.RentEnd = &t
	}
	return o, nil
}
