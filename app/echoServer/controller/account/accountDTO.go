package account

import "github.com/dsimon1405/Library/model"

// AccountResp keeps money as a fixed two-decimal string on the wire.
// swagger:model AccountResp
type AccountResp struct {
	ID         int64  `json:"id"`
	BalanceUSD string `json:"balance_usd"`
}

func toResp(a model.Account) AccountResp {
	return AccountResp{ID: a.ID, BalanceUSD: a.BalanceUSD.StringFixed(2)}
}
