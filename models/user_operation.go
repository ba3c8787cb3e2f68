package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// UserOperation is the meta-transaction record submitted on behalf of a
// smart-contract account, in the packed v0.6 entry-point shape.
// See: https://eips.ethereum.org/EIPS/eip-4337
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *big.Int       `json:"nonce"`
	InitCode             []byte         `json:"initCode"`
	CallData             []byte         `json:"callData"`
	CallGasLimit         *big.Int       `json:"callGasLimit"`
	VerificationGasLimit *big.Int       `json:"verificationGasLimit"`
	PreVerificationGas   *big.Int       `json:"preVerificationGas"`
	MaxFeePerGas         *big.Int       `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *big.Int       `json:"maxPriorityFeePerGas"`
	PaymasterAndData     []byte         `json:"paymasterAndData"`
	Signature            []byte         `json:"signature"`
}

// Hash computes the operation hash the entry point validates signatures against:
// keccak256(keccak256(packed fields) || entryPoint || chainID).
func (op *UserOperation) Hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	if chainID == nil {
		return common.Hash{}, fmt.Errorf("chain ID is required to hash a user operation")
	}

	packedHash := crypto.Keccak256Hash(op.pack())

	buf := make([]byte, 0, 32+20+32)
	buf = append(buf, packedHash.Bytes()...)
	buf = append(buf, entryPoint.Bytes()...)
	buf = append(buf, padBig(chainID)...)

	return crypto.Keccak256Hash(buf), nil
}

// Copy returns a deep copy of the operation.
func (op *UserOperation) Copy() *UserOperation {
	return &UserOperation{
		Sender:               op.Sender,
		Nonce:                copyBig(op.Nonce),
		InitCode:             append([]byte(nil), op.InitCode...),
		CallData:             append([]byte(nil), op.CallData...),
		CallGasLimit:         copyBig(op.CallGasLimit),
		VerificationGasLimit: copyBig(op.VerificationGasLimit),
		PreVerificationGas:   copyBig(op.PreVerificationGas),
		MaxFeePerGas:         copyBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: copyBig(op.MaxPriorityFeePerGas),
		PaymasterAndData:     append([]byte(nil), op.PaymasterAndData...),
		Signature:            append([]byte(nil), op.Signature...),
	}
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// pack encodes the operation fields for hashing. Byte fields are hashed so the
// packing stays fixed-width, signature is deliberately excluded.
func (op *UserOperation) pack() []byte {
	var packed []byte

	packed = append(packed, op.Sender.Bytes()...)
	packed = append(packed, padBig(op.Nonce)...)
	packed = append(packed, crypto.Keccak256(op.InitCode)...)
	packed = append(packed, crypto.Keccak256(op.CallData)...)
	packed = append(packed, padBig(op.CallGasLimit)...)
	packed = append(packed, padBig(op.VerificationGasLimit)...)
	packed = append(packed, padBig(op.PreVerificationGas)...)
	packed = append(packed, padBig(op.MaxFeePerGas)...)
	packed = append(packed, padBig(op.MaxPriorityFeePerGas)...)
	packed = append(packed, crypto.Keccak256(op.PaymasterAndData)...)

	return packed
}

func padBig(v *big.Int) []byte {
	b := make([]byte, 32)
	if v != nil {
		v.FillBytes(b)
	}
	return b
}

type rlpUserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         *big.Int
	VerificationGasLimit *big.Int
	PreVerificationGas   *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte
	Signature            []byte
}

// EncodeRLP serializes the operation for storage.
func (op *UserOperation) EncodeRLP() ([]byte, error) {
	enc := rlpUserOperation{
		Sender:               op.Sender,
		Nonce:                nonNilBig(op.Nonce),
		InitCode:             op.InitCode,
		CallData:             op.CallData,
		CallGasLimit:         nonNilBig(op.CallGasLimit),
		VerificationGasLimit: nonNilBig(op.VerificationGasLimit),
		PreVerificationGas:   nonNilBig(op.PreVerificationGas),
		MaxFeePerGas:         nonNilBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: nonNilBig(op.MaxPriorityFeePerGas),
		PaymasterAndData:     op.PaymasterAndData,
		Signature:            op.Signature,
	}
	return rlp.EncodeToBytes(&enc)
}

// DecodeUserOperation deserializes an operation previously encoded with EncodeRLP.
func DecodeUserOperation(data []byte) (*UserOperation, error) {
	var dec rlpUserOperation
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("failed to decode user operation: %w", err)
	}
	return &UserOperation{
		Sender:               dec.Sender,
		Nonce:                dec.Nonce,
		InitCode:             dec.InitCode,
		CallData:             dec.CallData,
		CallGasLimit:         dec.CallGasLimit,
		VerificationGasLimit: dec.VerificationGasLimit,
		PreVerificationGas:   dec.PreVerificationGas,
		MaxFeePerGas:         dec.MaxFeePerGas,
		MaxPriorityFeePerGas: dec.MaxPriorityFeePerGas,
		PaymasterAndData:     dec.PaymasterAndData,
		Signature:            dec.Signature,
	}, nil
}

func nonNilBig(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// UserOperationArgs is the hex-encoded JSON form of a user operation, used for
// CLI output and any JSON interchange with bundler-side tooling.
type UserOperationArgs struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

// ToArgs converts the operation into its hex-encoded JSON form.
func (op *UserOperation) ToArgs() *UserOperationArgs {
	return &UserOperationArgs{
		Sender:               op.Sender,
		Nonce:                (*hexutil.Big)(op.Nonce),
		InitCode:             op.InitCode,
		CallData:             op.CallData,
		CallGasLimit:         (*hexutil.Big)(op.CallGasLimit),
		VerificationGasLimit: (*hexutil.Big)(op.VerificationGasLimit),
		PreVerificationGas:   (*hexutil.Big)(op.PreVerificationGas),
		MaxFeePerGas:         (*hexutil.Big)(op.MaxFeePerGas),
		MaxPriorityFeePerGas: (*hexutil.Big)(op.MaxPriorityFeePerGas),
		PaymasterAndData:     op.PaymasterAndData,
		Signature:            op.Signature,
	}
}
