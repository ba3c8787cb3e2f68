package pebble

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	errs "github.com/doublespending/mev-boost-aa-account-sdk/storage/errors"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func testRecord(hash common.Hash) *models.OperationRecord {
	return &models.OperationRecord{
		Hash: hash,
		Operation: &models.UserOperation{
			Sender:               common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Nonce:                big.NewInt(1),
			CallData:             []byte{0x01, 0x02},
			CallGasLimit:         big.NewInt(200_000),
			VerificationGasLimit: big.NewInt(1_000_000),
			PreVerificationGas:   big.NewInt(50_000),
			MaxFeePerGas:         big.NewInt(100),
			MaxPriorityFeePerGas: big.NewInt(2),
			Signature:            []byte{0xde, 0xad},
		},
		Status: models.OperationPending,
	}
}

func TestOperations_StoreAndGet(t *testing.T) {
	ops := NewOperations(testStorage(t))
	hash := common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101")

	require.NoError(t, ops.Store(testRecord(hash)))

	stored, err := ops.GetByHash(hash)
	require.NoError(t, err)
	assert.Equal(t, hash, stored.Hash)
	assert.Equal(t, models.OperationPending, stored.Status)
	assert.Equal(t, int64(1), stored.Operation.Nonce.Int64())
	assert.Equal(t, []byte{0x01, 0x02}, stored.Operation.CallData)
}

func TestOperations_StoreDuplicate(t *testing.T) {
	ops := NewOperations(testStorage(t))
	hash := common.HexToHash("0x0202020202020202020202020202020202020202020202020202020202020202")

	require.NoError(t, ops.Store(testRecord(hash)))
	err := ops.Store(testRecord(hash))
	require.ErrorIs(t, err, errs.ErrDuplicate)
}

func TestOperations_GetMissing(t *testing.T) {
	ops := NewOperations(testStorage(t))
	_, err := ops.GetByHash(common.HexToHash("0xffff"))
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestOperations_PendingLifecycle(t *testing.T) {
	ops := NewOperations(testStorage(t))
	first := common.HexToHash("0x0303030303030303030303030303030303030303030303030303030303030303")
	second := common.HexToHash("0x0404040404040404040404040404040404040404040404040404040404040404")

	require.NoError(t, ops.Store(testRecord(first)))
	require.NoError(t, ops.Store(testRecord(second)))

	pending, err := ops.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	event := &models.SettlementEvent{
		OperationHash: first,
		TxHash:        common.HexToHash("0x0505050505050505050505050505050505050505050505050505050505050505"),
		BlockNumber:   42,
		Success:       true,
	}
	require.NoError(t, ops.MarkSettled(first, event))

	pending, err = ops.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].Hash)

	settled, err := ops.GetByHash(first)
	require.NoError(t, err)
	assert.Equal(t, models.OperationSettled, settled.Status)
	assert.Equal(t, event.TxHash, settled.SettledTx)
	assert.Equal(t, uint64(42), settled.SettledBlock)
	assert.True(t, settled.SettledSuccess)
}

func TestOperations_MarkSettledMissing(t *testing.T) {
	ops := NewOperations(testStorage(t))
	err := ops.MarkSettled(common.HexToHash("0xffff"), &models.SettlementEvent{})
	require.ErrorIs(t, err, errs.ErrNotFound)
}
