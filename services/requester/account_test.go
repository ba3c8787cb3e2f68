package requester

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/doublespending/mev-boost-aa-account-sdk/models/errors"
)

func TestPackExecute(t *testing.T) {
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")

	data, err := PackExecute(to, big.NewInt(10), []byte{0x01})
	require.NoError(t, err)

	method := boostAccountABIParsed.Methods["execute"]
	assert.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, to, args[0].(common.Address))
	assert.Equal(t, int64(10), args[1].(*big.Int).Int64())
	assert.Equal(t, []byte{0x01}, args[2].([]byte))
}

func TestPackExecute_NilValue(t *testing.T) {
	data, err := PackExecute(common.Address{}, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestPackExecuteBatch(t *testing.T) {
	dests := []common.Address{
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		common.HexToAddress("0x5555555555555555555555555555555555555555"),
	}
	values := []*big.Int{big.NewInt(1), nil}
	payloads := [][]byte{{0x01}, {0x02}}

	t.Run("packs parallel calls", func(t *testing.T) {
		data, err := PackExecuteBatch(dests, values, payloads)
		require.NoError(t, err)
		assert.Equal(t, boostAccountABIParsed.Methods["executeBatch"].ID, data[:4])
	})

	t.Run("rejects uneven slices", func(t *testing.T) {
		_, err := PackExecuteBatch(dests, values[:1], payloads)
		require.ErrorIs(t, err, errs.ErrInvalid)

		_, err = PackExecuteBatch(dests, values, payloads[:1])
		require.ErrorIs(t, err, errs.ErrInvalid)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		_, err := PackExecuteBatch(nil, nil, nil)
		require.ErrorIs(t, err, errs.ErrInvalid)
	})
}

func TestPackBoostExecute(t *testing.T) {
	boost := BoostConfig{
		RefundRecipient: common.HexToAddress("0x6666666666666666666666666666666666666666"),
		RefundPercent:   big.NewInt(50),
	}
	to := common.HexToAddress("0x4444444444444444444444444444444444444444")

	data, err := PackBoostExecute(boost, to, big.NewInt(5), []byte{0x0a})
	require.NoError(t, err)

	method := boostAccountABIParsed.Methods["boostExecute"]
	assert.Equal(t, method.ID, data[:4])

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, boost.RefundRecipient, args[0].(common.Address))
	assert.Equal(t, int64(50), args[1].(*big.Int).Int64())
	assert.Equal(t, to, args[2].(common.Address))
}

func TestPackBoostExecuteBatch(t *testing.T) {
	boost := BoostConfig{
		RefundRecipient: common.HexToAddress("0x6666666666666666666666666666666666666666"),
		RefundPercent:   big.NewInt(90),
	}
	dests := []common.Address{common.HexToAddress("0x4444444444444444444444444444444444444444")}

	t.Run("packs refund instructions", func(t *testing.T) {
		data, err := PackBoostExecuteBatch(boost, dests, []*big.Int{nil}, [][]byte{{0x01}})
		require.NoError(t, err)
		assert.Equal(t, boostAccountABIParsed.Methods["boostExecuteBatch"].ID, data[:4])
	})

	t.Run("rejects uneven slices", func(t *testing.T) {
		_, err := PackBoostExecuteBatch(boost, dests, nil, [][]byte{{0x01}})
		require.ErrorIs(t, err, errs.ErrInvalid)
	})
}
