// repository/account/repo.go
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/dsimon1405/Library/model"
	"github.com/dsimon1405/Library/util/database"
)

type Repo interface {
	Get(ctx context.Context, id int64) (*model.Account, error)
	All(ctx context.Context) ([]model.Account, error)
	Insert(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) (int64, error)

	// Balance read/write used inside a settlement or adjustment transaction.
	// No FOR UPDATE: concurrent adjustments race exactly like concurrent
	// order opens do, see the order service notes.
	Balance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Get(ctx context.Context, id int64) (*model.Account, error) {
	const q = `
		SELECT account_id, balance_usd
		FROM accounts
		WHERE account_id = $1`
	a := &model.Account{}
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.BalanceUSD); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repo) All(ctx context.Context) ([]model.Account, error) {
	const q = `
		SELECT account_id, balance_usd
		FROM accounts
		ORDER BY account_id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.BalanceUSD); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) Insert(ctx context.Context, id int64) error {
	const q = `
		INSERT INTO accounts (account_id, balance_usd)
		VALUES ($1, 0)`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func (r *repo) Delete(ctx context.Context, id int64) (int64, error) {
	const q = `
		DELETE FROM accounts
		WHERE account_id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repo) Balance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error) {
	const q = `
		SELECT balance_usd
		FROM accounts
		WHERE account_id = $1`
	var bal decimal.Decimal
	err := tx.QueryRowContext(ctx, q, id).Scan(&bal)
	return bal, err
}

func (r *repo) UpdateBalance(ctx context.Context, tx database.Tx, id int64, balance decimal.Decimal) error {
	const q = `
		UPDATE accounts
		SET balance_usd = $2
		WHERE account_id = $1`
	_, err := tx.ExecContext(ctx, q, id, balance)
	return err
}
