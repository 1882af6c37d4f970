// model/order.go
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dsimon1405/Library/apperr"
)

// Order is a single book rental. A nil RentEnd means the order is open;
// once set it is never cleared and the order is never reopened.
type Order struct {
	ID                 int64           `json:"id"`
	AccountID          int64           `json:"account_id"`
	BookID             int64           `json:"book_id"`
	OneDayRentPriceUSD decimal.Decimal `json:"one_day_rent_price_usd"`
	PaidPriceUSD       decimal.Decimal `json:"paid_price_usd"`
	RentStart          time.Time       `json:"rent_start"`
	RentEnd            *time.Time      `json:"rent_end,omitempty"`
}

func (o *Order) Open() bool { return o.RentEnd == nil }

// RentPrice charges every calendar day touched by the rental, so a same-day
// return still costs one day.
func (o *Order) RentPrice(rentEnd time.Time) (decimal.Decimal, error) {
	if o.OneDayRentPriceUSD.IsNegative() {
		return decimal.Zero, apperr.Newf(apperr.CodeInvalidState,
			"one day rent price is negative: %s", o.OneDayRentPriceUSD)
	}
	days := daysBetween(o.RentStart, rentEnd)
	if days < 0 {
		return decimal.Zero, apperr.Newf(apperr.CodeInvalidState,
			"rent start %s is after rent end %s", DateString(o.RentStart), DateString(rentEnd))
	}
	return o.OneDayRentPriceUSD.Mul(decimal.NewFromInt(days + 1)), nil
}

// Today is the date used for rent_start and rent_end, normalized to UTC
// midnight so day counting never depends on the server clock's time of day.
func Today() time.Time {
	return DateOf(time.Now().UTC())
}

func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DateString(t time.Time) string { return t.Format("2006-01-02") }

func daysBetween(start, end time.Time) int64 {
	return int64(DateOf(end).Sub(DateOf(start)).Hours() / 24)
}
