package rates

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const conversionPath = "/v2/tools/price-conversion"

// CMCRateProvider implements port.RateProvider against the CoinMarketCap
// price-conversion endpoint. Fetched rate tables are cached for the
// configured TTL so repeated aggregations don't hammer the API.
type CMCRateProvider struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	cache   *cache.Cache
	logger  *zap.Logger
}

var _ port.RateProvider = (*CMCRateProvider)(nil)

// NewCMCRateProvider creates a rate provider from configuration. The API key
// comes from config or the CMC_API_KEY environment variable, never from
// source.
func NewCMCRateProvider(cfg config.CoinMarketCapConfig, cacheCfg config.RateCacheConfig, logger *zap.Logger) *CMCRateProvider {
	return &CMCRateProvider{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		cache: cache.New(
			time.Duration(cacheCfg.TTLMinutes)*time.Minute,
			time.Duration(cacheCfg.CleanupIntervalMinutes)*time.Minute,
		),
		logger: logger.Named("CMCRateProvider"),
	}
}

type cmcQuote struct {
	Price *float64 `json:"price"`
}

type cmcConversion struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data struct {
		Symbol string              `json:"symbol"`
		Quote  map[string]cmcQuote `json:"quote"`
	} `json:"data"`
}

// GetRates prices one unit of base against every target. Targets the API
// cannot resolve are omitted from the result rather than defaulted; callers
// decide whether a gap blocks them.
func (p *CMCRateProvider) GetRates(ctx context.Context, base entity.Asset, targets []entity.Asset) (entity.ExchangeRates, error) {
	if len(targets) == 0 {
		return entity.ExchangeRates{}, fmt.Errorf("no target assets given: %w", entity.ErrProviderError)
	}

	symbols := make([]string, 0, len(targets))
	for _, t := range targets {
		symbols = append(symbols, string(t))
	}
	convert := strings.Join(symbols, ",")

	cacheKey := string(base) + "|" + convert
	if cached, ok := p.cache.Get(cacheKey); ok {
		p.logger.Debug("Returning cached exchange rates", zap.String("key", cacheKey))
		return cached.(entity.ExchangeRates), nil
	}

	query := url.Values{}
	query.Set("amount", "1")
	query.Set("symbol", string(base))
	query.Set("convert", convert)
	requestURL := p.baseURL + conversionPath + "?" + query.Encode()

	p.logger.Debug("Requesting price conversion", zap.String("base", string(base)), zap.String("convert", convert))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	err := p.doRequest(ctx, req, resp)
	metrics.ObserveRequest("coinmarketcap", start, err)
	if err != nil {
		return entity.ExchangeRates{}, fmt.Errorf("request to %s failed: %v: %w",
			p.baseURL+conversionPath, err, entity.ErrProviderUnavailable)
	}

	var payload cmcConversion
	if unmarshalErr := json.Unmarshal(resp.Body(), &payload); unmarshalErr != nil {
		return entity.ExchangeRates{}, fmt.Errorf("malformed price-conversion response: %v: %w",
			unmarshalErr, entity.ErrProviderError)
	}

	if resp.StatusCode() != fasthttp.StatusOK || payload.Status.ErrorCode != 0 {
		return entity.ExchangeRates{}, fmt.Errorf("price-conversion request failed with status %d: %s: %w",
			resp.StatusCode(), payload.Status.ErrorMessage, entity.ErrProviderError)
	}

	rateValues := make(map[entity.Asset]float64, len(targets))
	for symbol, quote := range payload.Data.Quote {
		asset, err := entity.ParseAsset(symbol)
		if err != nil {
			p.logger.Warn("Skipping quote for unknown asset", zap.String("symbol", symbol))
			continue
		}
		if quote.Price == nil {
			p.logger.Warn("Omitting unresolvable target", zap.String("symbol", symbol))
			continue
		}
		rateValues[asset] = *quote.Price
	}

	result := entity.NewExchangeRates(base, rateValues)
	p.cache.SetDefault(cacheKey, result)
	return result, nil
}

func (p *CMCRateProvider) doRequest(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return p.client.DoDeadline(req, resp, deadline)
	}
	return p.client.DoTimeout(req, resp, p.timeout)
}
