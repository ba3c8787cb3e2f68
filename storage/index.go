package storage

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/doublespending/mev-boost-aa-account-sdk/models"
)

type OperationIndexer interface {
	// Store persists a freshly built operation record.
	// Expected errors:
	// - errors.ErrDuplicate if a record with the same hash already exists
	Store(record *models.OperationRecord) error

	// GetByHash returns the record for the operation hash.
	// Expected errors:
	// - errors.ErrNotFound if the record does not exist
	GetByHash(hash common.Hash) (*models.OperationRecord, error)

	// Pending returns every record whose settlement has not been observed.
	Pending() ([]*models.OperationRecord, error)

	// MarkSettled attaches the settlement outcome to the record and removes
	// it from the pending set.
	// Expected errors:
	// - errors.ErrNotFound if the record does not exist
	MarkSettled(hash common.Hash, event *models.SettlementEvent) error

	// Close releases the underlying store.
	Close() error
}
