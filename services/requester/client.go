package requester

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	errs "github.com/doublespending/mev-boost-aa-account-sdk/models/errors"
)

// Backend is the subset of the execution node RPC surface the SDK depends on.
// It is satisfied by *ethclient.Client and narrow enough to fake in tests.
type Backend interface {
	// CallContract executes a read-only call at the given block, nil meaning
	// the latest.
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	// BlockNumber returns the current head height.
	BlockNumber(ctx context.Context) (uint64, error)
	// FilterLogs returns the logs matching the query.
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	// HeaderByNumber returns the header at the given height, nil meaning the
	// latest.
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	// SuggestGasTipCap returns the node's priority fee suggestion.
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to the execution node JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial %s: %w", errs.ErrDisconnected, endpoint, err)
	}
	return client, nil
}
