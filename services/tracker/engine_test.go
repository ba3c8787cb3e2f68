package tracker

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublespending/mev-boost-aa-account-sdk/metrics"
	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/testutils"
	"github.com/doublespending/mev-boost-aa-account-sdk/storage/memory"
)

var entryPointAddr = common.HexToAddress("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789")

func pendingRecord(hash common.Hash) *models.OperationRecord {
	return &models.OperationRecord{
		Hash: hash,
		Operation: &models.UserOperation{
			Sender: common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Nonce:  big.NewInt(0),
		},
		Status: models.OperationPending,
	}
}

func settlementLog(t *testing.T, opHash common.Hash, block uint64) types.Log {
	t.Helper()

	data, err := requester.PackSettlementEventData(big.NewInt(0), true, big.NewInt(1000), big.NewInt(100))
	require.NoError(t, err)

	return types.Log{
		Address: entryPointAddr,
		Topics: []common.Hash{
			requester.SettlementEventTopic(),
			opHash,
			common.BytesToHash(common.HexToAddress("0x1111111111111111111111111111111111111111").Bytes()),
			common.Hash{},
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.HexToHash("0xbeef"),
	}
}

// countingCollector records how many settlements the tracker reports.
type countingCollector struct {
	metrics.Collector
	settled int
}

func (c *countingCollector) OperationsSettledByTracker(count int) {
	c.settled += count
}

func testEngine(t *testing.T, backend *testutils.MockBackend, index *memory.Operations, collector metrics.Collector) *Engine {
	t.Helper()

	entryPoint := requester.NewEntryPoint(entryPointAddr, backend, zerolog.Nop())
	return NewEngine(
		entryPoint,
		backend,
		index,
		10*time.Millisecond,
		100,
		collector,
		zerolog.Nop(),
	)
}

func TestEngine_SweepMarksSettled(t *testing.T) {
	settledHash := common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101")
	waitingHash := common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202")

	index := memory.NewOperations()
	require.NoError(t, index.Store(pendingRecord(settledHash)))
	require.NoError(t, index.Store(pendingRecord(waitingHash)))

	backend := &testutils.MockBackend{
		BlockNumberFunc: func(ctx context.Context) (uint64, error) {
			return 1000, nil
		},
		FilterLogsFunc: func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			require.Len(t, q.Topics, 2)
			if q.Topics[1][0] == settledHash {
				return []types.Log{settlementLog(t, settledHash, 990)}, nil
			}
			return nil, nil
		},
	}

	collector := &countingCollector{Collector: metrics.NopCollector}
	engine := testEngine(t, backend, index, collector)
	require.NoError(t, engine.sweep(context.Background()))
	assert.Equal(t, 1, collector.settled)

	settled, err := index.GetByHash(settledHash)
	require.NoError(t, err)
	assert.Equal(t, models.OperationSettled, settled.Status)
	assert.Equal(t, uint64(990), settled.SettledBlock)
	assert.True(t, settled.SettledSuccess)

	pending, err := index.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, waitingHash, pending[0].Hash)
}

func TestEngine_SweepEmptyIndex(t *testing.T) {
	// no backend funcs set, an empty index must not touch the chain
	engine := testEngine(t, &testutils.MockBackend{}, memory.NewOperations(), metrics.NopCollector)
	require.NoError(t, engine.sweep(context.Background()))
}

func TestEngine_SweepBoundsWindow(t *testing.T) {
	hash := common.HexToHash("0x0303030303030303030303030303030303030303030303030303030303030303")
	index := memory.NewOperations()
	require.NoError(t, index.Store(pendingRecord(hash)))

	var from, to uint64
	backend := &testutils.MockBackend{
		BlockNumberFunc: func(ctx context.Context) (uint64, error) {
			return 40, nil
		},
		FilterLogsFunc: func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			from = q.FromBlock.Uint64()
			to = q.ToBlock.Uint64()
			return nil, nil
		},
	}

	engine := testEngine(t, backend, index, metrics.NopCollector)
	require.NoError(t, engine.sweep(context.Background()))

	// head below the lookback clamps the window start at genesis
	assert.Equal(t, uint64(0), from)
	assert.Equal(t, uint64(40), to)
}

func TestEngine_RunAndStop(t *testing.T) {
	backend := &testutils.MockBackend{
		BlockNumberFunc: func(ctx context.Context) (uint64, error) {
			return 1000, nil
		},
		FilterLogsFunc: func(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			return nil, nil
		},
	}

	engine := testEngine(t, backend, memory.NewOperations(), metrics.NopCollector)

	go func() {
		require.NoError(t, engine.Run(context.Background()))
	}()

	<-engine.Ready()
	engine.Stop()

	select {
	case <-engine.Stopped():
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}
