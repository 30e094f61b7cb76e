package entity

import (
	"fmt"
	"sort"
)

// Wallet is an aggregate snapshot: one net balance per asset plus the
// exchange rates attached at build time.
type Wallet struct {
	Balances map[Asset]Balance `json:"balances"`
	Rates    ExchangeRates     `json:"rates"`
}

// Convert re-expresses every held balance in the target asset. If any held
// asset has no rate to the target the whole operation fails with
// ErrRateUnavailable; balances are never silently dropped. The result is
// sorted by asset symbol for stable output.
func (w Wallet) Convert(target Asset) ([]Balance, error) {
	converted := make([]Balance, 0, len(w.Balances))
	for asset, balance := range w.Balances {
		rate, err := w.Rates.Rate(asset, target)
		if err != nil {
			return nil, fmt.Errorf("converting %s to %s: %w", asset, target, err)
		}
		converted = append(converted, Balance{
			Asset:  target,
			Amount: balance.Amount * rate,
		})
	}

	sort.Slice(converted, func(i, j int) bool {
		return converted[i].Amount < converted[j].Amount
	})
	return converted, nil
}

// Total converts every held balance to the target asset and sums them.
func (w Wallet) Total(target Asset) (Balance, error) {
	var total float64
	for asset, balance := range w.Balances {
		rate, err := w.Rates.Rate(asset, target)
		if err != nil {
			return Balance{}, fmt.Errorf("totalling %s in %s: %w", asset, target, err)
		}
		total += balance.Amount * rate
	}
	return Balance{Asset: target, Amount: total}, nil
}
