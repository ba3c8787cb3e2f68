package requester

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// entryPointABI covers the entry point surface the SDK touches: nonce reads,
// the deliberately reverting sender simulation with its result error, and the
// settlement event emitted once an operation executes on chain.
const entryPointABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "sender", "type": "address"},
			{"internalType": "uint192", "name": "key", "type": "uint192"}
		],
		"name": "getNonce",
		"outputs": [
			{"internalType": "uint256", "name": "nonce", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes", "name": "initCode", "type": "bytes"}
		],
		"name": "getSenderAddress",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "sender", "type": "address"}
		],
		"name": "SenderAddressResult",
		"type": "error"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "bytes32", "name": "userOpHash", "type": "bytes32"},
			{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "paymaster", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "nonce", "type": "uint256"},
			{"indexed": false, "internalType": "bool", "name": "success", "type": "bool"},
			{"indexed": false, "internalType": "uint256", "name": "actualGasCost", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "actualGasUsed", "type": "uint256"}
		],
		"name": "UserOperationEvent",
		"type": "event"
	}
]`

// accountFactoryABI is the deployment surface of the account factory. The
// create call doubles as the tail of an operation initCode.
const accountFactoryABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{"internalType": "address", "name": "paymaster", "type": "address"},
			{"internalType": "uint256", "name": "salt", "type": "uint256"}
		],
		"name": "createAccount",
		"outputs": [
			{"internalType": "contract BoostAccount", "name": "ret", "type": "address"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// boostAccountABI is the execution surface of the smart account, both the
// plain calls and the boosted variants that carry refund instructions for the
// block builder.
const boostAccountABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "dest", "type": "address"},
			{"internalType": "uint256", "name": "value", "type": "uint256"},
			{"internalType": "bytes", "name": "func", "type": "bytes"}
		],
		"name": "execute",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address[]", "name": "dest", "type": "address[]"},
			{"internalType": "uint256[]", "name": "value", "type": "uint256[]"},
			{"internalType": "bytes[]", "name": "func", "type": "bytes[]"}
		],
		"name": "executeBatch",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "refundRecipient", "type": "address"},
			{"internalType": "uint256", "name": "refundPercent", "type": "uint256"},
			{"internalType": "address", "name": "dest", "type": "address"},
			{"internalType": "uint256", "name": "value", "type": "uint256"},
			{"internalType": "bytes", "name": "func", "type": "bytes"}
		],
		"name": "boostExecute",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "refundRecipient", "type": "address"},
			{"internalType": "uint256", "name": "refundPercent", "type": "uint256"},
			{"internalType": "address[]", "name": "dest", "type": "address[]"},
			{"internalType": "uint256[]", "name": "value", "type": "uint256[]"},
			{"internalType": "bytes[]", "name": "func", "type": "bytes[]"}
		],
		"name": "boostExecuteBatch",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var (
	entryPointABIParsed     abi.ABI
	accountFactoryABIParsed abi.ABI
	boostAccountABIParsed   abi.ABI
)

func init() {
	var err error
	entryPointABIParsed, err = abi.JSON(bytes.NewReader([]byte(entryPointABI)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse EntryPoint ABI: %v", err))
	}
	accountFactoryABIParsed, err = abi.JSON(bytes.NewReader([]byte(accountFactoryABI)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse AccountFactory ABI: %v", err))
	}
	boostAccountABIParsed, err = abi.JSON(bytes.NewReader([]byte(boostAccountABI)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse BoostAccount ABI: %v", err))
	}
}

// SettlementEventTopic returns the indexed topic identifying the settlement
// event in filtered logs.
func SettlementEventTopic() common.Hash {
	return entryPointABIParsed.Events["UserOperationEvent"].ID
}

// PackSenderAddressResult builds the revert payload the entry point tags a
// sender simulation with.
func PackSenderAddressResult(sender common.Address) ([]byte, error) {
	tag := entryPointABIParsed.Errors["SenderAddressResult"]
	args, err := tag.Inputs.Pack(sender)
	if err != nil {
		return nil, fmt.Errorf("failed to encode SenderAddressResult: %w", err)
	}
	return append(tag.ID[:4], args...), nil
}

// PackSettlementEventData builds the non-indexed data payload of a settlement
// event log.
func PackSettlementEventData(nonce *big.Int, success bool, gasCost, gasUsed *big.Int) ([]byte, error) {
	event := entryPointABIParsed.Events["UserOperationEvent"]
	data, err := event.Inputs.NonIndexed().Pack(nonce, success, gasCost, gasUsed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settlement event data: %w", err)
	}
	return data, nil
}
