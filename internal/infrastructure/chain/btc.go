package chain

import (
	"context"
	"fmt"
	"strings"
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

const satoshiPerBTC = 1e8

// BTCSource implements port.AssetSource for one Bitcoin address against the
// BlockCypher REST API.
type BTCSource struct {
	client  *fasthttp.Client
	baseURL string
	address entity.Address
	timeout time.Duration
	logger  *zap.Logger
}

var _ port.AssetSource = (*BTCSource)(nil)

type blockCypherBalance struct {
	Address      string `json:"address"`
	FinalBalance int64  `json:"final_balance"`
	NTx          int    `json:"n_tx"`
	Error        string `json:"error"`
}

// NewBTCSource binds a source to a single Bitcoin address. Address well-
// formedness is deferred to the backing provider, which rejects invalid
// addresses with a distinguishable error payload.
func NewBTCSource(cfg config.BlockCypherConfig, addr string, logger *zap.Logger) (*BTCSource, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("empty bitcoin address: %w", entity.ErrInvalidAddress)
	}

	return &BTCSource{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		address: entity.Address{Addr: addr, Asset: entity.AssetBTC},
		timeout: time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		logger:  logger.Named("BTCSource"),
	}, nil
}

// Asset returns the fixed asset class of this source.
func (s *BTCSource) Asset() entity.Asset {
	return entity.AssetBTC
}

// Address returns the bound wallet address.
func (s *BTCSource) Address() entity.Address {
	return s.address
}

// GetBalance fetches the address's total balance, in bitcoin.
func (s *BTCSource) GetBalance(ctx context.Context) (entity.Balance, error) {
	payload, err := s.fetchAddress(ctx)
	if err != nil {
		return entity.Balance{}, err
	}
	return entity.Balance{
		Asset:  entity.AssetBTC,
		Amount: float64(payload.FinalBalance) / satoshiPerBTC,
	}, nil
}

// GetTransactionCount returns the number of transactions recorded for the
// bound address.
func (s *BTCSource) GetTransactionCount(ctx context.Context) (int, error) {
	payload, err := s.fetchAddress(ctx)
	if err != nil {
		return 0, err
	}
	return payload.NTx, nil
}

// ScanTransfersAndSwaps is not implemented for the Bitcoin chain.
func (s *BTCSource) ScanTransfersAndSwaps(_ context.Context) ([]entity.Transaction, error) {
	return nil, fmt.Errorf("transfer scan for BTC: %w", entity.ErrUnsupported)
}

func (s *BTCSource) fetchAddress(ctx context.Context) (*blockCypherBalance, error) {
	requestURL := fmt.Sprintf("%s/v1/btc/main/addrs/%s/balance", s.baseURL, s.address.Addr)
	s.logger.Debug("Requesting address balance from BlockCypher", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	start := time.Now()
	err := s.doRequest(ctx, req, resp)
	metrics.ObserveRequest("blockcypher", start, err)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %v: %w", requestURL, err, entity.ErrProviderUnavailable)
	}

	rawBody := resp.Body()

	var payload blockCypherBalance
	if unmarshalErr := json.Unmarshal(rawBody, &payload); unmarshalErr != nil {
		return nil, fmt.Errorf("malformed BlockCypher response from %s: %v: %w",
			requestURL, unmarshalErr, entity.ErrProviderError)
	}

	if resp.StatusCode() != fasthttp.StatusOK || payload.Error != "" {
		s.logger.Warn("BlockCypher API request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.String("apiError", payload.Error))
		if strings.Contains(strings.ToLower(payload.Error), "invalid address") {
			return nil, fmt.Errorf("blockcypher rejected %s: %w", s.address.Addr, entity.ErrInvalidAddress)
		}
		return nil, fmt.Errorf("blockcypher request failed with status %d: %s: %w",
			resp.StatusCode(), payload.Error, entity.ErrProviderError)
	}

	return &payload, nil
}

func (s *BTCSource) doRequest(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return s.client.DoDeadline(req, resp, deadline)
	}
	return s.client.DoTimeout(req, resp, s.timeout)
}
