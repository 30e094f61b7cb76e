package port

import (
	"context"

	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// ExchangeSource normalizes one authenticated exchange account's holdings and
// trading activity into domain types. Implementations own their request
// signing and must keep nonces strictly increasing across concurrent calls.
type ExchangeSource interface {
	// Exchanger returns the identifier of the backing exchange.
	Exchanger() entity.Exchanger

	// GetBalances returns every asset balance held at the exchange,
	// normalized into domain assets, in the order the exchange reports them.
	GetBalances(ctx context.Context) ([]entity.Balance, error)

	// GetOpenOrders returns all orders with status OPEN.
	GetOpenOrders(ctx context.Context) ([]entity.Order, error)

	// GetTrades returns historical completed trades in exchange-defined
	// ordering, reverse-chronological expected.
	GetTrades(ctx context.Context) ([]entity.Trade, error)
}
