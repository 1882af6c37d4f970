// model/book.go
package model

import "github.com/shopspring/decimal"

// Book mirrors the lib-service response for a quantity adjustment. Nothing
// here is persisted locally; only the one-day price is copied onto an order.
type Book struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Genre              *Genre          `json:"genre,omitempty"`
	Author             *Author         `json:"author,omitempty"`
	OneDayRentPriceUSD decimal.Decimal `json:"oneDayRentPriceUSD"`
	AvailableQuantity  int64           `json:"availableQuantity"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Author struct {
	ID          int64  `json:"id"`
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}
