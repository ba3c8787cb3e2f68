package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SettlementEvent is the decoded on-chain record emitted when the entry point
// settles a user operation. It carries the indexed identifiers and the
// execution outcome fields from the log data.
type SettlementEvent struct {
	OperationHash common.Hash
	Sender        common.Address
	Paymaster     common.Address
	Nonce         *big.Int
	Success       bool
	ActualGasCost *big.Int
	ActualGasUsed *big.Int

	// Transaction context of the log the event was decoded from.
	TxHash      common.Hash
	BlockNumber uint64
}
