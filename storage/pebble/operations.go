package pebble

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"

	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/storage"
	errs "github.com/doublespending/mev-boost-aa-account-sdk/storage/errors"
)

var _ storage.OperationIndexer = &Operations{}

type Operations struct {
	store *Storage
}

func NewOperations(store *Storage) *Operations {
	return &Operations{
		store: store,
	}
}

func (o *Operations) Store(record *models.OperationRecord) error {
	_, err := o.store.get(operationKey, record.Hash)
	if err == nil {
		return fmt.Errorf("%w: operation %s", errs.ErrDuplicate, record.Hash)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return err
	}

	value, err := record.EncodeRLP()
	if err != nil {
		return fmt.Errorf("failed to encode operation record: %w", err)
	}

	if err := o.store.set(operationKey, record.Hash, value); err != nil {
		return err
	}

	if record.Status == models.OperationPending {
		return o.store.set(pendingKey, record.Hash, []byte{})
	}

	return nil
}

func (o *Operations) GetByHash(hash common.Hash) (*models.OperationRecord, error) {
	value, err := o.store.get(operationKey, hash)
	if err != nil {
		return nil, err
	}

	return models.DecodeOperationRecord(value)
}

func (o *Operations) Pending() ([]*models.OperationRecord, error) {
	iter, err := o.store.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{pendingKey},
		UpperBound: []byte{pendingKey + 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate pending operations: %w", err)
	}
	defer func() {
		if err := iter.Close(); err != nil {
			o.store.log.Error().Err(err).Msg("failed to close pending iterator")
		}
	}()

	var records []*models.OperationRecord
	for iter.First(); iter.Valid(); iter.Next() {
		hash := common.BytesToHash(iter.Key()[1:])
		record, err := o.GetByHash(hash)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (o *Operations) MarkSettled(hash common.Hash, event *models.SettlementEvent) error {
	record, err := o.GetByHash(hash)
	if err != nil {
		return err
	}

	record.Status = models.OperationSettled
	record.SettledTx = event.TxHash
	record.SettledBlock = event.BlockNumber
	record.SettledSuccess = event.Success

	value, err := record.EncodeRLP()
	if err != nil {
		return fmt.Errorf("failed to encode operation record: %w", err)
	}

	if err := o.store.set(operationKey, hash, value); err != nil {
		return err
	}

	return o.store.delete(pendingKey, hash)
}

func (o *Operations) Close() error {
	return o.store.Close()
}
