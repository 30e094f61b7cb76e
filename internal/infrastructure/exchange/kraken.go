package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	balancePath    = "/0/private/Balance"
	openOrdersPath = "/0/private/OpenOrders"
	tradesPath     = "/0/private/TradesHistory"
)

// krakenAssetAliases maps Kraken's asset codes onto domain assets. Legacy
// codes prefix crypto assets with X and fiat with Z and call bitcoin XBT;
// newer payloads use the plain symbols.
var krakenAssetAliases = map[string]entity.Asset{
	"BTC":  entity.AssetBTC,
	"XBT":  entity.AssetBTC,
	"XXBT": entity.AssetBTC,
	"ETH":  entity.AssetETH,
	"XETH": entity.AssetETH,
	"USD":  entity.AssetUSD,
	"ZUSD": entity.AssetUSD,
	"EUR":  entity.AssetEUR,
	"ZEUR": entity.AssetEUR,
}

// nonceCounter issues strictly increasing nonces derived from wall-clock
// milliseconds. Access is serialized so that concurrent private requests from
// one source can never reuse or decrease a nonce.
type nonceCounter struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (c *nonceCounter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.now().UnixMilli()
	if n <= c.last {
		n = c.last + 1
	}
	c.last = n
	return n
}

// KrakenSource implements port.ExchangeSource for one authenticated Kraken
// account.
type KrakenSource struct {
	client  *fasthttp.Client
	baseURL string
	apiKey  string
	secret  []byte
	timeout time.Duration
	logger  *zap.Logger
	nonce   nonceCounter
}

var _ port.ExchangeSource = (*KrakenSource)(nil)

// NewKrakenSource parses an opaque credential of the form "API_KEY API_SECRET"
// (secret base64-encoded, whitespace-separated) into auth material.
func NewKrakenSource(cfg config.KrakenConfig, credential string, logger *zap.Logger) (*KrakenSource, error) {
	fields := strings.Fields(credential)
	if len(fields) != 2 {
		return nil, fmt.Errorf("expected \"key secret\" credential, got %d fields: %w",
			len(fields), entity.ErrMalformedCredential)
	}

	secret, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, fmt.Errorf("secret is not valid base64: %w", entity.ErrMalformedCredential)
	}

	return &KrakenSource{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  fields[0],
		secret:  secret,
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:  logger.Named("KrakenSource"),
		nonce:   nonceCounter{now: time.Now},
	}, nil
}

// Exchanger returns the identifier of the backing exchange.
func (s *KrakenSource) Exchanger() entity.Exchanger {
	return entity.ExchangerKraken
}

// GetBalances returns every asset balance held at the exchange, sorted by
// asset symbol. Assets outside the supported set are skipped with a warning.
func (s *KrakenSource) GetBalances(ctx context.Context) ([]entity.Balance, error) {
	result, err := s.privatePost(ctx, balancePath, nil)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("malformed balance payload: %v: %w", err, entity.ErrProviderError)
	}

	balances := make([]entity.Balance, 0, len(raw))
	for code, amountStr := range raw {
		asset, ok := krakenAssetAliases[code]
		if !ok {
			s.logger.Warn("Skipping balance for unsupported Kraken asset", zap.String("code", code))
			continue
		}
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric balance %q for %s: %w", amountStr, code, entity.ErrProviderError)
		}
		balances = append(balances, entity.Balance{Asset: asset, Amount: amount})
	}

	sort.Slice(balances, func(i, j int) bool {
		return balances[i].Asset < balances[j].Asset
	})
	return balances, nil
}

type krakenOrderDescr struct {
	Pair  string `json:"pair"`
	Type  string `json:"type"`
	Price string `json:"price"`
}

type krakenOrder struct {
	Descr  krakenOrderDescr `json:"descr"`
	Volume string           `json:"vol"`
	Status string           `json:"status"`
}

// GetOpenOrders returns all orders Kraken reports as open.
func (s *KrakenSource) GetOpenOrders(ctx context.Context) ([]entity.Order, error) {
	values := url.Values{}
	values.Set("trades", "true")
	result, err := s.privatePost(ctx, openOrdersPath, values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Open map[string]krakenOrder `json:"open"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("malformed open orders payload: %v: %w", err, entity.ErrProviderError)
	}

	orders := make([]entity.Order, 0, len(payload.Open))
	for id, raw := range payload.Open {
		base, quote, ok := s.parsePair(raw.Descr.Pair)
		if !ok {
			s.logger.Warn("Skipping order with unsupported pair",
				zap.String("order", id), zap.String("pair", raw.Descr.Pair))
			continue
		}

		volume, err := strconv.ParseFloat(raw.Volume, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric volume %q for order %s: %w", raw.Volume, id, entity.ErrProviderError)
		}
		price, err := strconv.ParseFloat(raw.Descr.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric price %q for order %s: %w", raw.Descr.Price, id, entity.ErrProviderError)
		}

		origin, dest, amountOrig, amountDest := s.orientFlow(raw.Descr.Type, base, quote, volume, volume*price)
		orders = append(orders, entity.Order{
			Origin:      origin,
			Destination: dest,
			AmountOrig:  amountOrig,
			AmountDest:  amountDest,
			Status:      entity.OrderStatusOpen,
		})
	}
	return orders, nil
}

type krakenTrade struct {
	Pair   string `json:"pair"`
	Type   string `json:"type"`
	Volume string `json:"vol"`
	Cost   string `json:"cost"`
}

// GetTrades returns historical completed trades in the order Kraken reports
// them, reverse-chronological.
func (s *KrakenSource) GetTrades(ctx context.Context) ([]entity.Trade, error) {
	values := url.Values{}
	values.Set("trades", "true")
	result, err := s.privatePost(ctx, tradesPath, values)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Trades map[string]krakenTrade `json:"trades"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("malformed trades payload: %v: %w", err, entity.ErrProviderError)
	}

	trades := make([]entity.Trade, 0, len(payload.Trades))
	for id, raw := range payload.Trades {
		base, quote, ok := s.parsePair(raw.Pair)
		if !ok {
			s.logger.Warn("Skipping trade with unsupported pair",
				zap.String("trade", id), zap.String("pair", raw.Pair))
			continue
		}

		volume, err := strconv.ParseFloat(raw.Volume, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric volume %q for trade %s: %w", raw.Volume, id, entity.ErrProviderError)
		}
		cost, err := strconv.ParseFloat(raw.Cost, 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric cost %q for trade %s: %w", raw.Cost, id, entity.ErrProviderError)
		}

		origin, dest, amountOrig, amountDest := s.orientFlow(raw.Type, base, quote, volume, cost)
		trades = append(trades, entity.Trade{
			Origin:      origin,
			Destination: dest,
			AmountOrig:  amountOrig,
			AmountDest:  amountDest,
		})
	}
	return trades, nil
}

// orientFlow maps a pair plus side onto a directional flow: a sell spends the
// base asset for the quote asset, a buy the other way around.
func (s *KrakenSource) orientFlow(side string, base, quote entity.Asset, baseAmount, quoteAmount float64) (origin, dest entity.Address, amountOrig, amountDest float64) {
	baseAddr := entity.Address{Addr: string(entity.ExchangerKraken), Asset: base}
	quoteAddr := entity.Address{Addr: string(entity.ExchangerKraken), Asset: quote}

	if side == "sell" {
		return baseAddr, quoteAddr, baseAmount, quoteAmount
	}
	return quoteAddr, baseAddr, quoteAmount, baseAmount
}

// parsePair splits a Kraken pair code such as "XXBTZUSD" or "XBTUSD" into its
// base and quote assets using the alias table.
func (s *KrakenSource) parsePair(pair string) (base, quote entity.Asset, ok bool) {
	codes := make([]string, 0, len(krakenAssetAliases))
	for code := range krakenAssetAliases {
		codes = append(codes, code)
	}
	// Longest codes first so XXBT wins over XBT.
	sort.Slice(codes, func(i, j int) bool {
		return len(codes[i]) > len(codes[j])
	})

	for _, baseCode := range codes {
		if !strings.HasPrefix(pair, baseCode) {
			continue
		}
		if quoteAsset, found := krakenAssetAliases[pair[len(baseCode):]]; found {
			return krakenAssetAliases[baseCode], quoteAsset, true
		}
	}
	return "", "", false
}

// sign computes the API-Sign header for a private request: the urlencoded body
// is hashed together with the nonce, then the path plus that digest is HMAC'd
// with the decoded secret and base64-encoded for transport. Pure given fixed
// inputs.
func (s *KrakenSource) sign(path string, values url.Values) string {
	postdata := values.Encode()
	digest := sha256.Sum256([]byte(values.Get("nonce") + postdata))

	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type krakenResponse struct {
	Error  []string            `json:"error"`
	Result jsoniter.RawMessage `json:"result"`
}

func (s *KrakenSource) privatePost(ctx context.Context, path string, extra url.Values) (jsoniter.RawMessage, error) {
	values := url.Values{}
	for key, vals := range extra {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	values.Set("nonce", strconv.FormatInt(s.nonce.Next(), 10))

	requestURL := s.baseURL + path
	s.logger.Debug("Issuing private Kraken request", zap.String("path", path))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.Header.Set("API-Key", s.apiKey)
	req.Header.Set("API-Sign", s.sign(path, values))
	req.SetBodyString(values.Encode())

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	err := s.doRequest(ctx, req, resp)
	metrics.ObserveRequest("kraken", start, err)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %v: %w", requestURL, err, entity.ErrProviderUnavailable)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("kraken request to %s failed with status %d: %w",
			path, resp.StatusCode(), entity.ErrProviderError)
	}

	var payload krakenResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("malformed kraken response from %s: %v: %w", path, err, entity.ErrProviderError)
	}

	if len(payload.Error) > 0 {
		apiErr := strings.Join(payload.Error, "; ")
		if isAuthError(payload.Error) {
			return nil, fmt.Errorf("kraken rejected credentials: %s: %w", apiErr, entity.ErrAuthenticationFailed)
		}
		return nil, fmt.Errorf("kraken reported errors: %s: %w", apiErr, entity.ErrProviderError)
	}

	return payload.Result, nil
}

// isAuthError recognizes Kraken's credential-rejection error codes.
func isAuthError(apiErrors []string) bool {
	for _, e := range apiErrors {
		if strings.HasPrefix(e, "EAPI:") || strings.HasPrefix(e, "EGeneral:Permission denied") {
			return true
		}
	}
	return false
}

func (s *KrakenSource) doRequest(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return s.client.DoDeadline(req, resp, deadline)
	}
	return s.client.DoTimeout(req, resp, s.timeout)
}
