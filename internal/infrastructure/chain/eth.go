package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/metrics"
)

const weiPerEther = 1e18

// transferTopic is the topic hash of the ERC-20 Transfer(address,address,uint256) event.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// ETHSource implements port.AssetSource for one Ethereum address against a
// configured JSON-RPC node.
type ETHSource struct {
	client     *ethclient.Client
	address    entity.Address
	account    common.Address
	timeout    time.Duration
	scanWindow int64
	logger     *zap.Logger
}

var _ port.AssetSource = (*ETHSource)(nil)

// NewETHSource binds a source to a single Ethereum address. The address is
// validated locally; no node traffic happens until the first query.
func NewETHSource(cfg config.EthereumConfig, addr string, logger *zap.Logger) (*ETHSource, error) {
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("%q is not a hex address: %w", addr, entity.ErrInvalidAddress)
	}
	if cfg.NodeURL == "" {
		return nil, fmt.Errorf("ethereum node URL is not configured: %w", entity.ErrProviderUnavailable)
	}

	// Dialing an http URL only parses it; no network traffic happens until
	// the first query.
	client, err := ethclient.Dial(cfg.NodeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node %s: %v: %w", cfg.NodeURL, err, entity.ErrProviderUnavailable)
	}

	return &ETHSource{
		client:     client,
		address:    entity.Address{Addr: addr, Asset: entity.AssetETH},
		account:    common.HexToAddress(addr),
		timeout:    time.Duration(cfg.RequestTimeoutMillis) * time.Millisecond,
		scanWindow: cfg.ScanBlockWindow,
		logger:     logger.Named("ETHSource"),
	}, nil
}

// Asset returns the fixed asset class of this source.
func (s *ETHSource) Asset() entity.Asset {
	return entity.AssetETH
}

// Address returns the bound wallet address.
func (s *ETHSource) Address() entity.Address {
	return s.address
}

// GetBalance fetches the current balance of the bound address, in ether.
func (s *ETHSource) GetBalance(ctx context.Context) (entity.Balance, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	wei, err := s.client.BalanceAt(callCtx, s.account, nil)
	metrics.ObserveRequest("ethereum", start, err)
	if err != nil {
		return entity.Balance{}, classifyNodeError("eth_getBalance", err)
	}

	s.logger.Debug("Fetched ETH balance",
		zap.String("address", s.address.Addr),
		zap.String("wei", wei.String()))

	return entity.Balance{Asset: entity.AssetETH, Amount: weiToEther(wei)}, nil
}

// GetTransactionCount returns the number of transactions sent from the bound
// address (its account nonce).
func (s *ETHSource) GetTransactionCount(ctx context.Context) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	nonce, err := s.client.NonceAt(callCtx, s.account, nil)
	metrics.ObserveRequest("ethereum", start, err)
	if err != nil {
		return 0, classifyNodeError("eth_getTransactionCount", err)
	}
	return int(nonce), nil
}

// ScanTransfersAndSwaps derives ERC-20 transfer activity involving the bound
// address over the configured trailing block window. Amounts are reported in
// the raw token units carried by the log payload.
func (s *ETHSource) ScanTransfersAndSwaps(ctx context.Context) ([]entity.Transaction, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	head, err := s.client.HeaderByNumber(callCtx, nil)
	if err != nil {
		return nil, classifyNodeError("eth_getBlockByNumber", err)
	}

	from := new(big.Int).Sub(head.Number, big.NewInt(s.scanWindow))
	if from.Sign() < 0 {
		from.SetInt64(0)
	}
	accountTopic := common.BytesToHash(common.LeftPadBytes(s.account.Bytes(), 32))

	// Two filter passes: once with the address as sender, once as recipient.
	queries := []ethereum.FilterQuery{
		{FromBlock: from, ToBlock: head.Number, Topics: [][]common.Hash{{transferTopic}, {accountTopic}}},
		{FromBlock: from, ToBlock: head.Number, Topics: [][]common.Hash{{transferTopic}, nil, {accountTopic}}},
	}

	var transactions []entity.Transaction
	for _, query := range queries {
		start := time.Now()
		logs, err := s.client.FilterLogs(callCtx, query)
		metrics.ObserveRequest("ethereum", start, err)
		if err != nil {
			return nil, classifyNodeError("eth_getLogs", err)
		}

		for _, record := range logs {
			if len(record.Topics) < 3 {
				continue
			}
			transactions = append(transactions, entity.Transaction{
				Origin: entity.Address{
					Addr:  common.BytesToAddress(record.Topics[1].Bytes()).Hex(),
					Asset: entity.AssetETH,
				},
				Destination: entity.Address{
					Addr:  common.BytesToAddress(record.Topics[2].Bytes()).Hex(),
					Asset: entity.AssetETH,
				},
				AmountOrig: rawTokenAmount(record.Data),
			})
		}
	}

	s.logger.Debug("Scanned transfer logs",
		zap.String("address", s.address.Addr),
		zap.Int("count", len(transactions)))
	return transactions, nil
}

func weiToEther(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(weiPerEther)).Float64()
	return ether
}

func rawTokenAmount(data []byte) float64 {
	amount, _ := new(big.Float).SetInt(new(big.Int).SetBytes(data)).Float64()
	return amount
}

// classifyNodeError maps node call failures onto the domain error taxonomy:
// timeouts and transport failures are retryable, everything else is a
// malformed or error response from the provider.
func classifyNodeError(call string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.As(err, &netErr):
		return fmt.Errorf("%s: %v: %w", call, err, entity.ErrProviderUnavailable)
	default:
		return fmt.Errorf("%s: %v: %w", call, err, entity.ErrProviderError)
	}
}
