package entity

import "fmt"

// Asset identifies a fiat or crypto currency. It is used as a map key and
// comparison discriminant throughout the domain.
type Asset string

const (
	AssetBTC Asset = "BTC"
	AssetETH Asset = "ETH"
	AssetUSD Asset = "USD"
	AssetEUR Asset = "EUR"
)

var cryptoAssets = map[Asset]struct{}{
	AssetBTC: {},
	AssetETH: {},
}

var fiatAssets = map[Asset]struct{}{
	AssetUSD: {},
	AssetEUR: {},
}

// IsCrypto reports whether the asset has an on-chain presence.
func (a Asset) IsCrypto() bool {
	_, ok := cryptoAssets[a]
	return ok
}

// IsFiat reports whether the asset is a fiat currency.
func (a Asset) IsFiat() bool {
	_, ok := fiatAssets[a]
	return ok
}

func (a Asset) String() string {
	return string(a)
}

// CryptoAssets returns the closed set of supported on-chain assets.
func CryptoAssets() []Asset {
	return []Asset{AssetBTC, AssetETH}
}

// FiatAssets returns the closed set of supported fiat assets.
func FiatAssets() []Asset {
	return []Asset{AssetUSD, AssetEUR}
}

// ParseAsset converts a symbol into an Asset, rejecting unknown symbols.
func ParseAsset(symbol string) (Asset, error) {
	a := Asset(symbol)
	if _, ok := cryptoAssets[a]; ok {
		return a, nil
	}
	if _, ok := fiatAssets[a]; ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown asset symbol %q", symbol)
}
