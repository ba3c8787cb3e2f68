package testutils

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// MockBackend fakes the execution node RPC surface with per-call functions.
// Unset functions fail the call, so each test only wires what it uses.
type MockBackend struct {
	CallContractFunc     func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error)
	BlockNumberFunc      func(context.Context) (uint64, error)
	FilterLogsFunc       func(context.Context, ethereum.FilterQuery) ([]types.Log, error)
	HeaderByNumberFunc   func(context.Context, *big.Int) (*types.Header, error)
	SuggestGasTipCapFunc func(context.Context) (*big.Int, error)
}

func (b *MockBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if b.CallContractFunc == nil {
		return nil, fmt.Errorf("CallContract not mocked")
	}
	return b.CallContractFunc(ctx, msg, blockNumber)
}

func (b *MockBackend) BlockNumber(ctx context.Context) (uint64, error) {
	if b.BlockNumberFunc == nil {
		return 0, fmt.Errorf("BlockNumber not mocked")
	}
	return b.BlockNumberFunc(ctx)
}

func (b *MockBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if b.FilterLogsFunc == nil {
		return nil, fmt.Errorf("FilterLogs not mocked")
	}
	return b.FilterLogsFunc(ctx, q)
}

func (b *MockBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if b.HeaderByNumberFunc == nil {
		return nil, fmt.Errorf("HeaderByNumber not mocked")
	}
	return b.HeaderByNumberFunc(ctx, number)
}

func (b *MockBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if b.SuggestGasTipCapFunc == nil {
		return nil, fmt.Errorf("SuggestGasTipCap not mocked")
	}
	return b.SuggestGasTipCapFunc(ctx)
}

// RevertError mimics the RPC error an eth_call revert surfaces, carrying the
// raw return data as a hex string.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string {
	return "execution reverted"
}

func (e *RevertError) ErrorData() interface{} {
	return hexutil.Encode(e.Data)
}
