package requester

import (
	"context"
	"fmt"
	"math/big"
)

// SuggestFees returns an EIP-1559 fee pair for an operation: the node's tip
// suggestion as the priority fee, and twice the head base fee plus the tip as
// the ceiling. Doubling the base fee keeps the ceiling valid through several
// consecutive full blocks.
func SuggestFees(ctx context.Context, client Backend) (maxFee, maxPriorityFee *big.Int, err error) {
	tip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get tip suggestion: %w", err)
	}

	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get head header: %w", err)
	}
	if head.BaseFee == nil {
		// Pre-1559 network, the tip is the whole price.
		return new(big.Int).Set(tip), new(big.Int).Set(tip), nil
	}

	maxFee = new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)

	return maxFee, new(big.Int).Set(tip), nil
}
