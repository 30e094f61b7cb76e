package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// WalletService composes a set of asset sources plus an optional rate
// provider into a unified wallet view. Sources are independent, so queries
// fan out concurrently; failures are collected per source instead of blanking
// out the results of the sources that succeeded.
type WalletService struct {
	sources   []port.AssetSource
	rates     port.RateProvider
	reference entity.Asset
	limiter   *rate.Limiter
	maxConc   int
	logger    *zap.Logger
}

// NewWalletService creates a wallet aggregator over the given sources. The
// rate provider may be nil when no conversion is needed.
func NewWalletService(
	sources []port.AssetSource,
	rates port.RateProvider,
	cfg config.AggregatorConfig,
	logger *zap.Logger,
) *WalletService {
	return &WalletService{
		sources:   sources,
		rates:     rates,
		reference: cfg.ReferenceAsset,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.BurstLimit),
		maxConc:   cfg.MaxConcurrentRequests,
		logger:    logger.Named("WalletService"),
	}
}

// GetBalances queries every configured source concurrently and merges the
// results. When two sources report the same asset their amounts are summed,
// so each asset appears at most once in the output; a failed source
// contributes a SourceError and never a placeholder balance. The merged
// balances are sorted by asset symbol since fan-out completion order carries
// no meaning.
func (s *WalletService) GetBalances(ctx context.Context) ([]entity.Balance, []entity.SourceError) {
	var (
		mu         sync.Mutex
		amounts    = make(map[entity.Asset]float64)
		sourceErrs []entity.SourceError
	)

	eg, childCtx := errgroup.WithContext(ctx)
	if s.maxConc > 0 {
		eg.SetLimit(s.maxConc)
	}

	for _, source := range s.sources {
		src := source
		eg.Go(func() error {
			if err := s.limiter.Wait(childCtx); err != nil {
				mu.Lock()
				defer mu.Unlock()
				sourceErrs = append(sourceErrs, entity.SourceError{
					Source:  src.Address().Addr,
					Asset:   src.Asset(),
					Message: err.Error(),
					Err:     err,
				})
				return nil
			}

			balance, err := src.GetBalance(childCtx)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.logger.Error("Source failed to report balance",
					zap.String("address", src.Address().Addr),
					zap.String("asset", string(src.Asset())),
					zap.Error(err))
				sourceErrs = append(sourceErrs, entity.SourceError{
					Source:  src.Address().Addr,
					Asset:   src.Asset(),
					Message: err.Error(),
					Err:     err,
				})
				return nil
			}

			amounts[balance.Asset] += balance.Amount
			return nil
		})
	}

	// Goroutines report their failures through sourceErrs, never here.
	_ = eg.Wait()

	balances := make([]entity.Balance, 0, len(amounts))
	for asset, amount := range amounts {
		balances = append(balances, entity.Balance{Asset: asset, Amount: amount})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Asset < balances[j].Asset
	})

	s.logger.Info("Balance fan-out complete",
		zap.Int("balanceCount", len(balances)),
		zap.Int("errorCount", len(sourceErrs)))
	return balances, sourceErrs
}

// GetExchangeRates fetches rates for the configured reference asset against
// every other supported asset.
func (s *WalletService) GetExchangeRates(ctx context.Context) (entity.ExchangeRates, error) {
	if s.rates == nil {
		return entity.ExchangeRates{}, fmt.Errorf("no rate provider configured: %w", entity.ErrUnsupported)
	}

	var targets []entity.Asset
	for _, asset := range append(entity.CryptoAssets(), entity.FiatAssets()...) {
		if asset != s.reference {
			targets = append(targets, asset)
		}
	}

	return s.rates.GetRates(ctx, s.reference, targets)
}

// BuildWallet eagerly assembles a wallet snapshot: one balance fan-out plus
// one rate fetch. Per-source balance failures are reported alongside the
// wallet; a rate fetch failure fails the build since the wallet could never
// convert.
func (s *WalletService) BuildWallet(ctx context.Context) (entity.Wallet, []entity.SourceError, error) {
	balances, sourceErrs := s.GetBalances(ctx)

	exchangeRates, err := s.GetExchangeRates(ctx)
	if err != nil {
		return entity.Wallet{}, sourceErrs, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}

	byAsset := make(map[entity.Asset]entity.Balance, len(balances))
	for _, balance := range balances {
		byAsset[balance.Asset] = balance
	}

	return entity.Wallet{Balances: byAsset, Rates: exchangeRates}, sourceErrs, nil
}
