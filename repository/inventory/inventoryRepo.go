// Package inventory is the outbound gateway to lib-service. It owns no
// business logic: it shapes requests, bounds them with the shared client's
// timeout and translates every failure into the apperr taxonomy so the order
// service never sees transport errors.
package inventory

import (
	"context"

	"github.com/dsimon1405/Library/model"
)

type Repo interface {
	// AdjustQuantity changes the available quantity of a book by delta
	// (-1 when an order opens, +1 when a returned book is handed back) and
	// returns the book as lib-service sees it, including the current
	// one-day rent price.
	AdjustQuantity(ctx context.Context, bookID int64, delta int) (*model.Book, error)
}
