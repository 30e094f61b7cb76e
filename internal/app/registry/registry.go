package registry

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/chain"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/exchange"
)

// AssetFactory builds an asset source bound to one address.
type AssetFactory func(addr string) (port.AssetSource, error)

// ExchangeFactory builds an exchange source from an opaque credential.
type ExchangeFactory func(credential string) (port.ExchangeSource, error)

// Registry maps the closed asset and exchanger enumerations onto adapter
// factories. It is built once at process start; unknown keys yield
// entity.ErrUnsupported rather than a lookup failure.
type Registry struct {
	assetFactories    map[entity.Asset]AssetFactory
	exchangeFactories map[entity.Exchanger]ExchangeFactory
}

// New wires the supported adapters against the given configuration.
func New(cfg *config.Config, logger *zap.Logger) *Registry {
	return &Registry{
		assetFactories: map[entity.Asset]AssetFactory{
			entity.AssetBTC: func(addr string) (port.AssetSource, error) {
				return chain.NewBTCSource(cfg.BlockCypher, addr, logger)
			},
			entity.AssetETH: func(addr string) (port.AssetSource, error) {
				return chain.NewETHSource(cfg.Ethereum, addr, logger)
			},
		},
		exchangeFactories: map[entity.Exchanger]ExchangeFactory{
			entity.ExchangerKraken: func(credential string) (port.ExchangeSource, error) {
				return exchange.NewKrakenSource(cfg.Kraken, credential, logger)
			},
		},
	}
}

// ForAddress builds the asset source matching the address's asset class.
func (r *Registry) ForAddress(address entity.Address) (port.AssetSource, error) {
	factory, ok := r.assetFactories[address.Asset]
	if !ok {
		return nil, fmt.Errorf("no asset source for %s: %w", address.Asset, entity.ErrUnsupported)
	}
	return factory(address.Addr)
}

// ForExchanger builds the exchange source matching the profile's exchanger.
func (r *Registry) ForExchanger(profile entity.ExchangerProfile) (port.ExchangeSource, error) {
	factory, ok := r.exchangeFactories[profile.Exchanger]
	if !ok {
		return nil, fmt.Errorf("no exchange source for %s: %w", profile.Exchanger, entity.ErrUnsupported)
	}
	return factory(profile.AuthKey)
}
