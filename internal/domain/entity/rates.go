package entity

import "fmt"

// ExchangeRates holds the price of one unit of the base asset in each listed
// asset, plus a derived cross-rate matrix so any held asset can be re-expressed
// in any other without re-fetching rates per pair.
type ExchangeRates struct {
	Base  Asset             `json:"base"`
	Rates map[Asset]float64 `json:"rates"`

	matrix map[Asset]map[Asset]float64
}

// NewExchangeRates builds an ExchangeRates value and derives its cross-rate
// matrix. The base asset is always priced at 1 against itself; zero or
// negative rates are dropped rather than poisoning the matrix.
func NewExchangeRates(base Asset, rates map[Asset]float64) ExchangeRates {
	perBase := make(map[Asset]float64, len(rates)+1)
	perBase[base] = 1
	for asset, rate := range rates {
		if rate <= 0 {
			continue
		}
		perBase[asset] = rate
	}

	matrix := make(map[Asset]map[Asset]float64, len(perBase))
	for from, fromRate := range perBase {
		row := make(map[Asset]float64, len(perBase))
		for to, toRate := range perBase {
			// 1 base = fromRate units of from, so 1 from = toRate/fromRate units of to.
			row[to] = toRate / fromRate
		}
		matrix[from] = row
	}

	kept := make(map[Asset]float64, len(rates))
	for asset, rate := range rates {
		if rate > 0 {
			kept[asset] = rate
		}
	}

	return ExchangeRates{Base: base, Rates: kept, matrix: matrix}
}

// Rate returns the price of one unit of from expressed in to.
func (r ExchangeRates) Rate(from, to Asset) (float64, error) {
	row, ok := r.matrix[from]
	if !ok {
		return 0, fmt.Errorf("no rate for %s: %w", from, ErrRateUnavailable)
	}
	rate, ok := row[to]
	if !ok {
		return 0, fmt.Errorf("no rate from %s to %s: %w", from, to, ErrRateUnavailable)
	}
	return rate, nil
}

// Has reports whether the pair can be converted.
func (r ExchangeRates) Has(from, to Asset) bool {
	row, ok := r.matrix[from]
	if !ok {
		return false
	}
	_, ok = row[to]
	return ok
}
