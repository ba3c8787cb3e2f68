package builder

import (
	"context"
	"fmt"
	"math/big"

	"github.com/doublespending/mev-boost-aa-account-sdk/models"
	"github.com/doublespending/mev-boost-aa-account-sdk/services/requester"
)

// Static gas defaults, generous enough to pass entry point validation without
// a simulation round-trip. Deployment inflates the verification budget since
// the factory create runs inside it.
const (
	defaultCallGasLimit         = 200_000
	defaultPreVerificationGas   = 50_000
	defaultVerificationGasLimit = 1_000_000
	deployVerificationGasLimit  = 3_000_000
)

// resolveAccountState reads the account nonce from the entry point. A zero
// nonce means the account is not deployed yet, so the operation carries the
// init code; any later operation leaves it empty.
func (b *Builder) resolveAccountState(ctx context.Context, op *models.UserOperation) error {
	nonce, err := b.entryPoint.GetNonce(ctx, op.Sender)
	if err != nil {
		return fmt.Errorf("failed to read account nonce: %w", err)
	}

	op.Nonce = nonce
	if nonce.Sign() == 0 {
		op.InitCode = b.initCode
	} else {
		op.InitCode = nil
	}

	return nil
}

func (b *Builder) priceGas(ctx context.Context, op *models.UserOperation) error {
	maxFee, maxPriorityFee, err := requester.SuggestFees(ctx, b.client)
	if err != nil {
		return err
	}

	op.MaxFeePerGas = maxFee
	op.MaxPriorityFeePerGas = maxPriorityFee

	return nil
}

func (b *Builder) estimateGas(_ context.Context, op *models.UserOperation) error {
	op.CallGasLimit = big.NewInt(defaultCallGasLimit)
	op.PreVerificationGas = big.NewInt(defaultPreVerificationGas)
	if len(op.InitCode) > 0 {
		op.VerificationGasLimit = big.NewInt(deployVerificationGasLimit)
	} else {
		op.VerificationGasLimit = big.NewInt(defaultVerificationGasLimit)
	}

	return nil
}

// signOperation hashes the fully assembled operation and replaces the
// placeholder signature with the real one.
func (b *Builder) signOperation(_ context.Context, op *models.UserOperation) error {
	hash, err := op.Hash(b.entryPoint.Address(), b.chainID)
	if err != nil {
		return err
	}

	sig, err := b.signer.Sign(hash)
	if err != nil {
		return err
	}
	op.Signature = sig

	return nil
}
