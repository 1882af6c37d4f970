// model/account.go
package model

import "github.com/shopspring/decimal"

// Account id is assigned by the provisioning call from the auth service, it
// is never generated here.
type Account struct {
	ID         int64           `json:"id"`
	BalanceUSD decimal.Decimal `json:"balance_usd"`
}
