package port

import (
	"context"

	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// AssetSource normalizes one wallet address's on-chain data into domain
// types. Implementations are bound to exactly one address at construction and
// hold no mutable state beyond it.
type AssetSource interface {
	// Asset returns the fixed asset class this source serves.
	Asset() entity.Asset

	// Address returns the bound wallet address.
	Address() entity.Address

	// GetBalance queries the backing provider for the current balance,
	// denominated in the source's fixed asset.
	GetBalance(ctx context.Context) (entity.Balance, error)

	// GetTransactionCount returns the number of transactions originated by
	// the bound address. Returns entity.ErrUnsupported when the chain's
	// provider cannot answer it.
	GetTransactionCount(ctx context.Context) (int, error)

	// ScanTransfersAndSwaps derives ledger activity for the bound address.
	// Returns entity.ErrUnsupported for asset classes without an
	// implementation, never a silent empty result.
	ScanTransfersAndSwaps(ctx context.Context) ([]entity.Transaction, error)
}
