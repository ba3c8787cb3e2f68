package requester

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/doublespending/mev-boost-aa-account-sdk/models/errors"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/testutils"
)

var (
	entryPointAddr = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")
	senderAddr     = common.HexToAddress("0x7777777777777777777777777777777777777777")
)

func TestEntryPoint_GetNonce(t *testing.T) {
	backend := &testutils.MockBackend{
		CallContractFunc: func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			require.NotNil(t, msg.To)
			assert.Equal(t, entryPointAddr, *msg.To)
			assert.Equal(t, entryPointABIParsed.Methods["getNonce"].ID, msg.Data[:4])

			out := make([]byte, 32)
			out[31] = 5
			return out, nil
		},
	}

	ep := NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
	nonce, err := ep.GetNonce(context.Background(), senderAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(5), nonce.Int64())
}

func TestEntryPoint_SimulateSenderAddress(t *testing.T) {
	initCode := []byte{0xaa, 0xbb, 0xcc}

	t.Run("decodes the tagged revert", func(t *testing.T) {
		payload, err := PackSenderAddressResult(senderAddr)
		require.NoError(t, err)

		backend := &testutils.MockBackend{
			CallContractFunc: func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
				assert.Equal(t, entryPointABIParsed.Methods["getSenderAddress"].ID, msg.Data[:4])
				return nil, &testutils.RevertError{Data: payload}
			},
		}

		ep := NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
		addr, err := ep.SimulateSenderAddress(context.Background(), initCode)
		require.NoError(t, err)
		assert.Equal(t, senderAddr, addr)
	})

	t.Run("fails when the call does not revert", func(t *testing.T) {
		backend := &testutils.MockBackend{
			CallContractFunc: func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
				return []byte{}, nil
			},
		}

		ep := NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
		_, err := ep.SimulateSenderAddress(context.Background(), initCode)
		require.ErrorIs(t, err, errs.ErrUnexpectedSuccess)
	})

	t.Run("fails when the revert carries no address", func(t *testing.T) {
		callErr := &testutils.RevertError{Data: []byte{0x01, 0x02, 0x03, 0x04}}
		backend := &testutils.MockBackend{
			CallContractFunc: func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
				return nil, callErr
			},
		}

		ep := NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
		_, err := ep.SimulateSenderAddress(context.Background(), initCode)
		require.ErrorIs(t, err, errs.ErrMissingSenderAddress)
		// the original call failure stays reachable through the wrap
		require.ErrorIs(t, err, callErr)

		var revertErr *errs.RevertError
		require.ErrorAs(t, err, &revertErr)
		assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, revertErr.Data)
	})

	t.Run("propagates transport errors", func(t *testing.T) {
		boom := fmt.Errorf("connection refused")
		backend := &testutils.MockBackend{
			CallContractFunc: func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
				return nil, boom
			},
		}

		ep := NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
		_, err := ep.SimulateSenderAddress(context.Background(), initCode)
		require.ErrorIs(t, err, boom)
	})
}

func settlementLog(t *testing.T, opHash common.Hash, block uint64) types.Log {
	t.Helper()

	data, err := PackSettlementEventData(big.NewInt(3), true, big.NewInt(1000), big.NewInt(500))
	require.NoError(t, err)

	return types.Log{
		Address: entryPointAddr,
		Topics: []common.Hash{
			SettlementEventTopic(),
			opHash,
			common.BytesToHash(senderAddr.Bytes()),
			common.BytesToHash(common.HexToAddress("0x8888888888888888888888888888888888888888").Bytes()),
		},
		Data:        data,
		TxHash:      common.HexToHash("0x9999999999999999999999999999999999999999999999999999999999999999"),
		BlockNumber: block,
	}
}

func TestParseSettlementEvent(t *testing.T) {
	opHash := common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101")

	t.Run("decodes a settlement log", func(t *testing.T) {
		event, err := ParseSettlementEvent(settlementLog(t, opHash, 42))
		require.NoError(t, err)

		assert.Equal(t, opHash, event.OperationHash)
		assert.Equal(t, senderAddr, event.Sender)
		assert.Equal(t, int64(3), event.Nonce.Int64())
		assert.True(t, event.Success)
		assert.Equal(t, int64(1000), event.ActualGasCost.Int64())
		assert.Equal(t, int64(500), event.ActualGasUsed.Int64())
		assert.Equal(t, uint64(42), event.BlockNumber)
	})

	t.Run("rejects foreign logs", func(t *testing.T) {
		l := settlementLog(t, opHash, 42)
		l.Topics = l.Topics[:2]
		_, err := ParseSettlementEvent(l)
		require.ErrorIs(t, err, errs.ErrInvalid)
	})
}

func TestEntryPoint_SettlementEvents(t *testing.T) {
	opHash := common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202")

	backend := &testutils.MockBackend{
		FilterLogsFunc: func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			assert.Equal(t, []common.Address{entryPointAddr}, q.Addresses)
			require.Len(t, q.Topics, 2)
			assert.Equal(t, []common.Hash{SettlementEventTopic()}, q.Topics[0])
			assert.Equal(t, []common.Hash{opHash}, q.Topics[1])
			assert.Equal(t, uint64(100), q.FromBlock.Uint64())
			assert.Equal(t, uint64(200), q.ToBlock.Uint64())

			return []types.Log{settlementLog(t, opHash, 150)}, nil
		},
	}

	ep := NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
	events, err := ep.SettlementEvents(context.Background(), opHash, 100, 200)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, opHash, events[0].OperationHash)
	assert.Equal(t, uint64(150), events[0].BlockNumber)
}
