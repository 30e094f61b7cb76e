package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

type fakeAssetSource struct {
	asset   entity.Asset
	addr    string
	balance float64
	err     error
}

var _ port.AssetSource = (*fakeAssetSource)(nil)

func (f *fakeAssetSource) Asset() entity.Asset { return f.asset }

func (f *fakeAssetSource) Address() entity.Address {
	return entity.Address{Addr: f.addr, Asset: f.asset}
}

func (f *fakeAssetSource) GetBalance(context.Context) (entity.Balance, error) {
	if f.err != nil {
		return entity.Balance{}, f.err
	}
	return entity.Balance{Asset: f.asset, Amount: f.balance}, nil
}

func (f *fakeAssetSource) GetTransactionCount(context.Context) (int, error) {
	return 0, nil
}

func (f *fakeAssetSource) ScanTransfersAndSwaps(context.Context) ([]entity.Transaction, error) {
	return nil, entity.ErrUnsupported
}

type fakeRateProvider struct {
	rates entity.ExchangeRates
	err   error
}

func (f *fakeRateProvider) GetRates(context.Context, entity.Asset, []entity.Asset) (entity.ExchangeRates, error) {
	if f.err != nil {
		return entity.ExchangeRates{}, f.err
	}
	return f.rates, nil
}

func aggregatorConfig() config.AggregatorConfig {
	return config.AggregatorConfig{
		MaxConcurrentRequests: 4,
		RateLimit:             100,
		BurstLimit:            100,
		ReferenceAsset:        entity.AssetUSD,
	}
}

func TestGetBalancesMergesDuplicateAssets(t *testing.T) {
	t.Parallel()

	svc := NewWalletService([]port.AssetSource{
		&fakeAssetSource{asset: entity.AssetBTC, addr: "btc-1", balance: 1.5},
		&fakeAssetSource{asset: entity.AssetBTC, addr: "btc-2", balance: 0.5},
		&fakeAssetSource{asset: entity.AssetETH, addr: "eth-1", balance: 10},
	}, nil, aggregatorConfig(), zap.NewNop())

	balances, sourceErrs := svc.GetBalances(context.Background())
	if len(sourceErrs) != 0 {
		t.Fatalf("unexpected source errors: %v", sourceErrs)
	}

	want := []entity.Balance{
		{Asset: entity.AssetBTC, Amount: 2},
		{Asset: entity.AssetETH, Amount: 10},
	}
	if len(balances) != len(want) {
		t.Fatalf("got %d balances, want %d: %v", len(balances), len(want), balances)
	}
	for i := range want {
		if balances[i] != want[i] {
			t.Fatalf("balance %d is %+v, want %+v", i, balances[i], want[i])
		}
	}
}

func TestGetBalancesPartialFailure(t *testing.T) {
	t.Parallel()

	providerErr := entity.ErrProviderUnavailable
	svc := NewWalletService([]port.AssetSource{
		&fakeAssetSource{asset: entity.AssetBTC, addr: "btc-good", balance: 3},
		&fakeAssetSource{asset: entity.AssetETH, addr: "eth-bad", err: providerErr},
	}, nil, aggregatorConfig(), zap.NewNop())

	balances, sourceErrs := svc.GetBalances(context.Background())

	if len(balances) != 1 || balances[0].Asset != entity.AssetBTC || balances[0].Amount != 3 {
		t.Fatalf("expected only the BTC balance, got %v", balances)
	}
	// The failed source must never surface as a zero-amount balance.
	for _, b := range balances {
		if b.Asset == entity.AssetETH {
			t.Fatalf("failed ETH source leaked a placeholder balance: %+v", b)
		}
	}

	if len(sourceErrs) != 1 {
		t.Fatalf("got %d source errors, want 1: %v", len(sourceErrs), sourceErrs)
	}
	se := sourceErrs[0]
	if se.Source != "eth-bad" || se.Asset != entity.AssetETH {
		t.Fatalf("source error misattributed: %+v", se)
	}
	if !errors.Is(se.Err, entity.ErrProviderUnavailable) {
		t.Fatalf("source error lost its cause: %v", se.Err)
	}
}

func TestGetBalancesAllSourcesFail(t *testing.T) {
	t.Parallel()

	svc := NewWalletService([]port.AssetSource{
		&fakeAssetSource{asset: entity.AssetBTC, addr: "btc-1", err: entity.ErrProviderError},
		&fakeAssetSource{asset: entity.AssetETH, addr: "eth-1", err: entity.ErrProviderError},
	}, nil, aggregatorConfig(), zap.NewNop())

	balances, sourceErrs := svc.GetBalances(context.Background())
	if len(balances) != 0 {
		t.Fatalf("expected no balances, got %v", balances)
	}
	if len(sourceErrs) != 2 {
		t.Fatalf("got %d source errors, want 2", len(sourceErrs))
	}
}

func TestGetExchangeRatesWithoutProvider(t *testing.T) {
	t.Parallel()

	svc := NewWalletService(nil, nil, aggregatorConfig(), zap.NewNop())

	_, err := svc.GetExchangeRates(context.Background())
	if !errors.Is(err, entity.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestBuildWallet(t *testing.T) {
	t.Parallel()

	rates := entity.NewExchangeRates(entity.AssetUSD, map[entity.Asset]float64{
		entity.AssetBTC: 0.00002,
		entity.AssetETH: 0.0004,
	})
	svc := NewWalletService([]port.AssetSource{
		&fakeAssetSource{asset: entity.AssetBTC, addr: "btc-1", balance: 0.5},
		&fakeAssetSource{asset: entity.AssetETH, addr: "eth-1", balance: 4},
	}, &fakeRateProvider{rates: rates}, aggregatorConfig(), zap.NewNop())

	wallet, sourceErrs, err := svc.BuildWallet(context.Background())
	if err != nil {
		t.Fatalf("BuildWallet failed: %v", err)
	}
	if len(sourceErrs) != 0 {
		t.Fatalf("unexpected source errors: %v", sourceErrs)
	}
	if got := wallet.Balances[entity.AssetBTC].Amount; got != 0.5 {
		t.Fatalf("wallet BTC balance is %v, want 0.5", got)
	}

	total, err := wallet.Total(entity.AssetUSD)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total.Amount != 35000 {
		t.Fatalf("total is %v USD, want 35000", total.Amount)
	}
}

func TestBuildWalletRateFailureIsFatal(t *testing.T) {
	t.Parallel()

	svc := NewWalletService([]port.AssetSource{
		&fakeAssetSource{asset: entity.AssetBTC, addr: "btc-1", balance: 1},
	}, &fakeRateProvider{err: entity.ErrProviderUnavailable}, aggregatorConfig(), zap.NewNop())

	_, sourceErrs, err := svc.BuildWallet(context.Background())
	if !errors.Is(err, entity.ErrProviderUnavailable) {
		t.Fatalf("expected the rate failure to fail the build, got %v", err)
	}
	if len(sourceErrs) != 0 {
		t.Fatalf("unexpected source errors: %v", sourceErrs)
	}
}
