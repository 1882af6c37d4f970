package order

import "github.com/dsimon1405/Library/model"

// OrderResp is the wire shape shared by user endpoints and the open-by-book
// query lib-service consumes. rent_end is omitted while the order is open.
// swagger:model OrderResp
type OrderResp struct {
	ID                 int64   `json:"id"`
	BookID             int64   `json:"book_id"`
	OneDayRentPriceUSD string  `json:"one_day_rent_price_usd"`
	PaidPriceUSD       string  `json:"paid_price_usd"`
	RentStart          string  `json:"rent_start"`
	RentEnd            *string `json:"rent_end,omitempty"`
}

func toResp(o model.Order) OrderResp {
	resp := OrderResp{
		ID:                 o.ID,
		BookID:             o.BookID,
		OneDayRentPriceUSD: o.OneDayRentPriceUSD.StringFixed(2),
		PaidPriceUSD:       o.PaidPriceUSD.StringFixed(2),
		RentStart:          model.DateString(o.RentStart),
	}
	if o.RentEnd != nil {
		end := model.DateString(*o.RentEnd)
		resp.RentEnd = &end
	}
	return resp
}

func toRespList(orders []model.Order) []OrderResp {
	out := make([]OrderResp, len(orders))
	for i, o := range orders {
		out[i] = toResp(o)
	}
	return out
}
