package requester

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	errs "github.com/doublespending/mev-boost-aa-account-sdk/models/errors"
)

// BoostConfig instructs the block builder how to share the operation's
// payment. The SDK treats it as opaque, it is forwarded into the boosted call
// data unchanged.
type BoostConfig struct {
	RefundRecipient common.Address
	RefundPercent   *big.Int
}

// PackExecute encodes a single call through the account's execute entry.
func PackExecute(to common.Address, value *big.Int, data []byte) ([]byte, error) {
	packed, err := boostAccountABIParsed.Pack("execute", to, nonNilValue(value), data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execute: %w", err)
	}
	return packed, nil
}

// PackExecuteBatch encodes a multi-call through the account's batch entry.
// The three slices are parallel, one element per call.
func PackExecuteBatch(dests []common.Address, values []*big.Int, payloads [][]byte) ([]byte, error) {
	if err := validateBatch(dests, values, payloads); err != nil {
		return nil, err
	}

	packed, err := boostAccountABIParsed.Pack("executeBatch", dests, nonNilValues(values), payloads)
	if err != nil {
		return nil, fmt.Errorf("failed to encode executeBatch: %w", err)
	}
	return packed, nil
}

// PackBoostExecute encodes a single call carrying builder refund
// instructions.
func PackBoostExecute(boost BoostConfig, to common.Address, value *big.Int, data []byte) ([]byte, error) {
	packed, err := boostAccountABIParsed.Pack(
		"boostExecute",
		boost.RefundRecipient,
		nonNilValue(boost.RefundPercent),
		to,
		nonNilValue(value),
		data,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boostExecute: %w", err)
	}
	return packed, nil
}

// PackBoostExecuteBatch encodes a multi-call carrying builder refund
// instructions.
func PackBoostExecuteBatch(
	boost BoostConfig,
	dests []common.Address,
	values []*big.Int,
	payloads [][]byte,
) ([]byte, error) {
	if err := validateBatch(dests, values, payloads); err != nil {
		return nil, err
	}

	packed, err := boostAccountABIParsed.Pack(
		"boostExecuteBatch",
		boost.RefundRecipient,
		nonNilValue(boost.RefundPercent),
		dests,
		nonNilValues(values),
		payloads,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boostExecuteBatch: %w", err)
	}
	return packed, nil
}

// validateBatch rejects parallel slices of uneven length before they reach
// the ABI encoder, which would otherwise pack them without complaint.
func validateBatch(dests []common.Address, values []*big.Int, payloads [][]byte) error {
	if len(dests) == 0 {
		return fmt.Errorf("%w: batch must carry at least one call", errs.ErrInvalid)
	}
	if len(values) != len(dests) || len(payloads) != len(dests) {
		return fmt.Errorf(
			"%w: batch slices are not parallel: %d dests, %d values, %d payloads",
			errs.ErrInvalid, len(dests), len(values), len(payloads),
		)
	}
	return nil
}

func nonNilValue(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNilValues(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = nonNilValue(v)
	}
	return out
}
