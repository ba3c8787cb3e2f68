package errors

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var (
	// ErrDisconnected indicates the remote node connection dropped and the
	// operation should be retried against a healthy endpoint.
	ErrDisconnected = errors.New("disconnected")

	// ErrInvalid indicates the caller provided unusable input.
	ErrInvalid = errors.New("invalid")

	// ErrMissingSenderAddress indicates the entry point reverted during a
	// sender simulation without carrying the expected address payload.
	ErrMissingSenderAddress = errors.New("simulation revert carries no sender address")

	// ErrUnexpectedSuccess indicates a call that the protocol requires to
	// revert completed without error, which means the remote entry point
	// does not behave like an entry point at all.
	ErrUnexpectedSuccess = errors.New("simulation expected to revert but succeeded")
)

// RevertError carries the raw return data of a reverted call together with
// the decoded reason when one is present.
type RevertError struct {
	Reason string
	Data   []byte
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("execution reverted: %s", e.Reason)
	}
	return "execution reverted"
}

// NewRevertError builds a RevertError from raw revert data, decoding the
// standard Error(string) payload when the data matches it.
func NewRevertError(data []byte) *RevertError {
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		reason = ""
	}
	return &RevertError{Reason: reason, Data: data}
}
