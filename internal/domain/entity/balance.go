package entity

// Balance represents a non-negative quantity of one asset, denominated in the
// asset's natural unit (ETH rather than wei, BTC rather than satoshi).
type Balance struct {
	Asset  Asset   `json:"asset"`
	Amount float64 `json:"amount"`
}
