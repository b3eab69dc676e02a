// Package storage prices contract storage and refunds deposits that paid for
// it. Amounts are yocto units; costs come from the call environment.
package storage

import (
	"context"
	"fmt"
	"iter"
	"maps"

	"github.com/aretw0/covenant/pkg/errs"
	"github.com/aretw0/covenant/pkg/host"
	"github.com/holiman/uint256"
)

// approvalOverhead is the binary length prefix of an account id plus its u64 approval id.
const approvalOverhead = 4 + 8

// BytesForApprovedAccountID is the storage an approval entry takes.
func BytesForApprovedAccountID(accountID string) uint64 {
	return uint64(len(accountID)) + approvalOverhead
}

// RefundApprovedAccountIDsIter queues a refund to accountID for the storage
// released by the given approvals.
func RefundApprovedAccountIDsIter(ctx context.Context, accountID string, approved iter.Seq[string]) *uint256.Int {
	var released uint64
	for id := range approved {
		released += BytesForApprovedAccountID(id)
	}
	amount := saturatingMul(host.FromContext(ctx).ByteCost(), released)
	host.Pay(ctx, accountID, amount)
	return amount
}

// RefundApprovedAccountIDs is RefundApprovedAccountIDsIter over an approval map.
func RefundApprovedAccountIDs(ctx context.Context, accountID string, approved map[string]uint64) *uint256.Int {
	return RefundApprovedAccountIDsIter(ctx, accountID, maps.Keys(approved))
}

// RefundDepositToAccount charges storageUsed bytes against the attached
// deposit and refunds the rest to accountID. A refund of one yocto or less is
// kept. An insufficient deposit fails with a BaseError carrying
// InsufficientBalance.
func RefundDepositToAccount(ctx context.Context, storageUsed uint64, accountID string) error {
	env := host.FromContext(ctx)
	required := saturatingMul(env.ByteCost(), storageUsed)
	attached := env.Deposit()

	if err := errs.Require(!required.Gt(attached), &errs.InsufficientBalance{
		Message: fmt.Sprintf("Must attach %s yoctoNEAR to cover storage", required.Dec()),
	}); err != nil {
		return errs.ToBase(err)
	}

	refund := new(uint256.Int).Sub(attached, required)
	if refund.GtUint64(1) {
		host.Pay(ctx, accountID, refund)
	}
	return nil
}

// RefundDeposit refunds the predecessor.
func RefundDeposit(ctx context.Context, storageUsed uint64) error {
	return RefundDepositToAccount(ctx, storageUsed, host.FromContext(ctx).Predecessor)
}

// AssertAtLeastOneYocto fails unless some deposit is attached.
func AssertAtLeastOneYocto(ctx context.Context) error {
	if host.FromContext(ctx).Deposit().IsZero() {
		return errs.ToBase(&errs.InsufficientBalance{Message: "Requires attached deposit of at least 1 yoctoNEAR"})
	}
	return nil
}

// ApprovalNotSupported is returned by token contracts without approvals.
type ApprovalNotSupported struct {
	Message string `json:"message"`
}

func (e *ApprovalNotSupported) Error() string { return e.Message }

// NewApprovalNotSupported builds the error.
func NewApprovalNotSupported(msg string) *ApprovalNotSupported {
	return &ApprovalNotSupported{Message: msg}
}

func saturatingMul(price *uint256.Int, n uint64) *uint256.Int {
	out, overflow := new(uint256.Int).MulOverflow(price, uint256.NewInt(n))
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return out
}
