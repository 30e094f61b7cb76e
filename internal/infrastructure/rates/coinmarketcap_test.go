package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

func newTestProvider(baseURL string) *CMCRateProvider {
	return NewCMCRateProvider(
		config.CoinMarketCapConfig{
			BaseURL:              baseURL,
			APIKey:               "test-key",
			RequestTimeoutMillis: 2000,
		},
		config.RateCacheConfig{TTLMinutes: 5, CleanupIntervalMinutes: 10},
		zap.NewNop(),
	)
}

func TestGetRates(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/tools/price-conversion" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-CMC_PRO_API_KEY") != "test-key" {
			t.Errorf("missing or wrong API key header: %q", r.Header.Get("X-CMC_PRO_API_KEY"))
		}
		q := r.URL.Query()
		if q.Get("amount") != "1" || q.Get("symbol") != "USD" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`{
			"status":{"error_code":0,"error_message":null},
			"data":{"symbol":"USD","quote":{
				"BTC":{"price":0.0000154},
				"ETH":{"price":0.00031},
				"EUR":{"price":0.92}
			}}
		}`))
	}))
	defer ts.Close()

	rates, err := newTestProvider(ts.URL).GetRates(context.Background(), entity.AssetUSD,
		[]entity.Asset{entity.AssetBTC, entity.AssetETH, entity.AssetEUR})
	if err != nil {
		t.Fatalf("GetRates failed: %v", err)
	}

	if rates.Base != entity.AssetUSD {
		t.Fatalf("base is %s, want USD", rates.Base)
	}
	if got := rates.Rates[entity.AssetBTC]; got != 0.0000154 {
		t.Fatalf("BTC rate is %v, want 0.0000154", got)
	}
	if !rates.Has(entity.AssetBTC, entity.AssetEUR) {
		t.Fatal("expected a derived BTC->EUR cross rate")
	}
}

func TestGetRatesOmitsUnresolvableTargets(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status":{"error_code":0},
			"data":{"symbol":"USD","quote":{
				"BTC":{"price":0.0000154},
				"ETH":{"price":null}
			}}
		}`))
	}))
	defer ts.Close()

	rates, err := newTestProvider(ts.URL).GetRates(context.Background(), entity.AssetUSD,
		[]entity.Asset{entity.AssetBTC, entity.AssetETH})
	if err != nil {
		t.Fatalf("GetRates failed: %v", err)
	}

	if _, ok := rates.Rates[entity.AssetETH]; ok {
		t.Fatal("expected the unresolvable ETH target to be omitted")
	}
	if _, ok := rates.Rates[entity.AssetBTC]; !ok {
		t.Fatal("expected the resolvable BTC target to be present")
	}
}

func TestGetRatesCachesResults(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{
			"status":{"error_code":0},
			"data":{"symbol":"USD","quote":{"BTC":{"price":0.0000154}}}
		}`))
	}))
	defer ts.Close()

	provider := newTestProvider(ts.URL)
	targets := []entity.Asset{entity.AssetBTC}

	first, err := provider.GetRates(context.Background(), entity.AssetUSD, targets)
	if err != nil {
		t.Fatalf("first GetRates failed: %v", err)
	}
	second, err := provider.GetRates(context.Background(), entity.AssetUSD, targets)
	if err != nil {
		t.Fatalf("second GetRates failed: %v", err)
	}

	if n := requests.Load(); n != 1 {
		t.Fatalf("expected 1 upstream request, saw %d", n)
	}
	if first.Rates[entity.AssetBTC] != second.Rates[entity.AssetBTC] {
		t.Fatal("cached result differs from the fetched one")
	}
}

func TestGetRatesAPIError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":{"error_code":1002,"error_message":"API key missing."}}`))
	}))
	defer ts.Close()

	_, err := newTestProvider(ts.URL).GetRates(context.Background(), entity.AssetUSD,
		[]entity.Asset{entity.AssetBTC})
	if !errors.Is(err, entity.ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
}

func TestGetRatesNoTargets(t *testing.T) {
	t.Parallel()

	_, err := newTestProvider("http://localhost").GetRates(context.Background(), entity.AssetUSD, nil)
	if !errors.Is(err, entity.ErrProviderError) {
		t.Fatalf("expected ErrProviderError, got %v", err)
	}
}
