package requester

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	errs "github.com/doublespending/mev-boost-aa-account-sdk/models/errors"
)

// EntryPoint is a read-side binding to the deployed entry point contract. It
// covers the calls the SDK needs while assembling and tracking operations.
type EntryPoint struct {
	address common.Address
	client  Backend
	logger  zerolog.Logger
}

func NewEntryPoint(
	address common.Address,
	client Backend,
	logger zerolog.Logger,
) *EntryPoint {
	return &EntryPoint{
		address: address,
		client:  client,
		logger:  logger.With().Str("component", "entrypoint").Logger(),
	}
}

func (e *EntryPoint) Address() common.Address {
	return e.address
}

// GetNonce returns the account's next sequential nonce under the default key.
// Undeployed accounts read as zero.
func (e *EntryPoint) GetNonce(ctx context.Context, sender common.Address) (*big.Int, error) {
	data, err := entryPointABIParsed.Pack("getNonce", sender, big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("failed to encode getNonce: %w", err)
	}

	res, err := e.client.CallContract(ctx, ethereum.CallMsg{
		To:   &e.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call getNonce: %w", err)
	}

	out, err := entryPointABIParsed.Unpack("getNonce", res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode getNonce result: %w", err)
	}
	nonce, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getNonce result type %T", out[0])
	}

	return nonce, nil
}

// SimulateSenderAddress simulates getSenderAddress(initCode) against the entry
// point. The contract always reverts, tagging the revert with the address the
// init code deploys to; a call that completes means the remote contract does
// not follow the protocol at all.
func (e *EntryPoint) SimulateSenderAddress(ctx context.Context, initCode []byte) (common.Address, error) {
	data, err := entryPointABIParsed.Pack("getSenderAddress", initCode)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getSenderAddress: %w", err)
	}

	_, err = e.client.CallContract(ctx, ethereum.CallMsg{
		To:   &e.address,
		Data: data,
	}, nil)
	if err == nil {
		return common.Address{}, errs.ErrUnexpectedSuccess
	}

	revertData, ok := parseCallError(err)
	if !ok {
		// Not a revert, the call itself failed.
		return common.Address{}, err
	}

	addr, ok := decodeSenderAddressResult(revertData)
	if !ok {
		e.logger.Debug().
			Str("revert", hexutil.Encode(revertData)).
			Msg("sender simulation reverted without address payload")
		return common.Address{}, fmt.Errorf(
			"%w: %w: %w",
			errs.ErrMissingSenderAddress,
			errs.NewRevertError(revertData),
			err,
		)
	}

	return addr, nil
}

// SettlementEvents returns the decoded settlement events for the operation
// hash within the block range, both bounds inclusive.
func (e *EntryPoint) SettlementEvents(
	ctx context.Context,
	opHash common.Hash,
	from, to uint64,
) ([]*models.SettlementEvent, error) {
	logs, err := e.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{e.address},
		Topics: [][]common.Hash{
			{SettlementEventTopic()},
			{opHash},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter settlement logs: %w", err)
	}

	events := make([]*models.SettlementEvent, 0, len(logs))
	for _, l := range logs {
		event, err := ParseSettlementEvent(l)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

// ParseSettlementEvent decodes a settlement log into its model form.
func ParseSettlementEvent(l types.Log) (*models.SettlementEvent, error) {
	event := entryPointABIParsed.Events["UserOperationEvent"]
	if len(l.Topics) != 4 || l.Topics[0] != event.ID {
		return nil, fmt.Errorf("%w: log is not a settlement event", errs.ErrInvalid)
	}

	out, err := event.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settlement event data: %w", err)
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("%w: settlement event carries %d data fields", errs.ErrInvalid, len(out))
	}

	nonce, _ := out[0].(*big.Int)
	success, _ := out[1].(bool)
	gasCost, _ := out[2].(*big.Int)
	gasUsed, _ := out[3].(*big.Int)

	return &models.SettlementEvent{
		OperationHash: l.Topics[1],
		Sender:        common.BytesToAddress(l.Topics[2].Bytes()),
		Paymaster:     common.BytesToAddress(l.Topics[3].Bytes()),
		Nonce:         nonce,
		Success:       success,
		ActualGasCost: gasCost,
		ActualGasUsed: gasUsed,
		TxHash:        l.TxHash,
		BlockNumber:   l.BlockNumber,
	}, nil
}

// decodeSenderAddressResult extracts the address from SenderAddressResult
// revert data.
func decodeSenderAddressResult(data []byte) (common.Address, bool) {
	tag := entryPointABIParsed.Errors["SenderAddressResult"]
	if len(data) < 4 || !bytes.Equal(data[:4], tag.ID[:4]) {
		return common.Address{}, false
	}

	out, err := tag.Inputs.Unpack(data[4:])
	if err != nil || len(out) != 1 {
		return common.Address{}, false
	}
	addr, ok := out[0].(common.Address)
	return addr, ok
}

// parseCallError extracts raw revert data from an eth_call failure. RPC
// clients surface it through the DataError interface as a hex string or raw
// bytes, depending on transport.
func parseCallError(err error) ([]byte, bool) {
	dataErr, ok := err.(interface{ ErrorData() interface{} })
	if !ok {
		return nil, false
	}

	switch data := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return nil, false
		}
		return decoded, true
	case []byte:
		return data, true
	case hexutil.Bytes:
		return data, true
	default:
		return nil, false
	}
}
