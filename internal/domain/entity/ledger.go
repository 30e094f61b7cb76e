package entity

// Transaction is an observed directional on-chain movement, denominated in the
// origin address's asset. It records a ledger entry, not a request.
type Transaction struct {
	Origin      Address `json:"origin"`
	Destination Address `json:"destination"`
	AmountOrig  float64 `json:"amountOrig"`
}

// Trade is a completed exchange of one asset for another. Unlike a
// Transaction it implies a price was realized, so both amounts are known.
type Trade struct {
	Origin      Address `json:"origin"`
	Destination Address `json:"destination"`
	AmountOrig  float64 `json:"amountOrig"`
	AmountDest  float64 `json:"amountDest"`
}

// OrderStatus distinguishes exchange-resident intent from settled trades.
type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "OPEN"
	OrderStatusClosed OrderStatus = "CLOSED"
)

// Order is a Trade-shaped record with a status, representing trading intent
// held at an exchange rather than a settled exchange of funds.
type Order struct {
	Origin      Address     `json:"origin"`
	Destination Address     `json:"destination"`
	AmountOrig  float64     `json:"amountOrig"`
	AmountDest  float64     `json:"amountDest"`
	Status      OrderStatus `json:"status"`
}
