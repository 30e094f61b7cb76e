package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

type fakeExchangeSource struct {
	name     entity.Exchanger
	balances []entity.Balance
	orders   []entity.Order
	trades   []entity.Trade
	err      error
}

var _ port.ExchangeSource = (*fakeExchangeSource)(nil)

func (f *fakeExchangeSource) Exchanger() entity.Exchanger { return f.name }

func (f *fakeExchangeSource) GetBalances(context.Context) ([]entity.Balance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.balances, nil
}

func (f *fakeExchangeSource) GetOpenOrders(context.Context) ([]entity.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func (f *fakeExchangeSource) GetTrades(context.Context) ([]entity.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.trades, nil
}

func TestFetchAll(t *testing.T) {
	t.Parallel()

	svc := NewExchangeService([]port.ExchangeSource{
		&fakeExchangeSource{
			name:     entity.ExchangerKraken,
			balances: []entity.Balance{{Asset: entity.AssetBTC, Amount: 1}},
			orders:   []entity.Order{{Status: entity.OrderStatusOpen}},
			trades:   []entity.Trade{{AmountOrig: 0.5}},
		},
	}, zap.NewNop())

	views, sourceErrs := svc.FetchAll(context.Background())
	if len(sourceErrs) != 0 {
		t.Fatalf("unexpected source errors: %v", sourceErrs)
	}
	if len(views) != 1 {
		t.Fatalf("got %d views, want 1", len(views))
	}

	view := views[0]
	if view.Exchanger != entity.ExchangerKraken {
		t.Fatalf("view exchanger is %s, want KRAKEN", view.Exchanger)
	}
	if len(view.Balances) != 1 || len(view.OpenOrders) != 1 || len(view.Trades) != 1 {
		t.Fatalf("view is missing data: %+v", view)
	}
}

func TestFetchAllPartialFailure(t *testing.T) {
	t.Parallel()

	svc := NewExchangeService([]port.ExchangeSource{
		&fakeExchangeSource{
			name:     entity.ExchangerKraken,
			balances: []entity.Balance{{Asset: entity.AssetUSD, Amount: 100}},
		},
		&fakeExchangeSource{
			name: entity.Exchanger("OTHER"),
			err:  entity.ErrAuthenticationFailed,
		},
	}, zap.NewNop())

	views, sourceErrs := svc.FetchAll(context.Background())
	if len(views) != 1 || views[0].Exchanger != entity.ExchangerKraken {
		t.Fatalf("expected only the healthy view, got %v", views)
	}
	if len(sourceErrs) != 1 {
		t.Fatalf("got %d source errors, want 1: %v", len(sourceErrs), sourceErrs)
	}
	if sourceErrs[0].Source != "OTHER" {
		t.Fatalf("source error misattributed: %+v", sourceErrs[0])
	}
	if !errors.Is(sourceErrs[0].Err, entity.ErrAuthenticationFailed) {
		t.Fatalf("source error lost its cause: %v", sourceErrs[0].Err)
	}
}
