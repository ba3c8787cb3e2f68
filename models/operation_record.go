package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

type OperationStatus uint8

const (
	// OperationPending means the operation was built and handed off but its
	// settlement event has not been observed yet.
	OperationPending OperationStatus = iota
	// OperationSettled means the settlement event was observed on chain.
	OperationSettled
)

// OperationRecord is the indexed lifecycle of a built operation: the signed
// payload keyed by its hash, plus the settlement outcome once known.
type OperationRecord struct {
	Hash      common.Hash
	Operation *UserOperation
	Status    OperationStatus

	// Settlement outcome, zero until the record is settled.
	SettledTx      common.Hash
	SettledBlock   uint64
	SettledSuccess bool
}

type rlpOperationRecord struct {
	Hash           common.Hash
	Operation      []byte
	Status         uint8
	SettledTx      common.Hash
	SettledBlock   uint64
	SettledSuccess bool
}

// EncodeRLP serializes the record for storage.
func (r *OperationRecord) EncodeRLP() ([]byte, error) {
	opBytes, err := r.Operation.EncodeRLP()
	if err != nil {
		return nil, err
	}

	return rlp.EncodeToBytes(&rlpOperationRecord{
		Hash:           r.Hash,
		Operation:      opBytes,
		Status:         uint8(r.Status),
		SettledTx:      r.SettledTx,
		SettledBlock:   r.SettledBlock,
		SettledSuccess: r.SettledSuccess,
	})
}

// DecodeOperationRecord deserializes a record previously encoded with
// EncodeRLP.
func DecodeOperationRecord(data []byte) (*OperationRecord, error) {
	var dec rlpOperationRecord
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("failed to decode operation record: %w", err)
	}

	op, err := DecodeUserOperation(dec.Operation)
	if err != nil {
		return nil, err
	}

	return &OperationRecord{
		Hash:           dec.Hash,
		Operation:      op,
		Status:         OperationStatus(dec.Status),
		SettledTx:      dec.SettledTx,
		SettledBlock:   dec.SettledBlock,
		SettledSuccess: dec.SettledSuccess,
	}, nil
}
