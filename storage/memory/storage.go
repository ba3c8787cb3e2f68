package memory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/storage"
	errs "github.com/doublespending/mev-boost-aa-account-sdk/storage/errors"
)

var _ storage.OperationIndexer = &Operations{}

// Operations is an in-memory operation index, used in tests and in the
// short-lived CLI commands that have no database directory.
type Operations struct {
	mu      sync.RWMutex
	records map[common.Hash]*models.OperationRecord
	pending map[common.Hash]struct{}
}

func NewOperations() *Operations {
	return &Operations{
		records: make(map[common.Hash]*models.OperationRecord),
		pending: make(map[common.Hash]struct{}),
	}
}

func (o *Operations) Store(record *models.OperationRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.records[record.Hash]; ok {
		return fmt.Errorf("%w: operation %s", errs.ErrDuplicate, record.Hash)
	}

	o.records[record.Hash] = record
	if record.Status == models.OperationPending {
		o.pending[record.Hash] = struct{}{}
	}

	return nil
}

func (o *Operations) GetByHash(hash common.Hash) (*models.OperationRecord, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	record, ok := o.records[hash]
	if !ok {
		return nil, fmt.Errorf("%w: operation %s", errs.ErrNotFound, hash)
	}

	return record, nil
}

func (o *Operations) Pending() ([]*models.OperationRecord, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	records := make([]*models.OperationRecord, 0, len(o.pending))
	for hash := range o.pending {
		records = append(records, o.records[hash])
	}

	return records, nil
}

func (o *Operations) MarkSettled(hash common.Hash, event *models.SettlementEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	record, ok := o.records[hash]
	if !ok {
		return fmt.Errorf("%w: operation %s", errs.ErrNotFound, hash)
	}

	record.Status = models.OperationSettled
	record.SettledTx = event.TxHash
	record.SettledBlock = event.BlockNumber
	record.SettledSuccess = event.Success
	delete(o.pending, hash)

	return nil
}

func (o *Operations) Close() error {
	return nil
}
