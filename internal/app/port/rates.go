package port

import (
	"context"

	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// RateProvider fetches conversion rates between a base asset and a set of
// target assets. Partial success is not an error: unresolvable targets are
// omitted from the result, never defaulted to zero or one. Callers decide
// whether a missing rate blocks their operation.
type RateProvider interface {
	GetRates(ctx context.Context, base entity.Asset, targets []entity.Asset) (entity.ExchangeRates, error)
}
