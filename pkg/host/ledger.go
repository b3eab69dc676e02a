package host

import (
	"context"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

// Transfer is a promise to move tokens, executed only if the call commits.
type Transfer struct {
	To     string       `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

func (t Transfer) String() string {
	return fmt.Sprintf("transfer %s yocto to %s", t.Amount.Dec(), t.To)
}

// Ledger collects the promises queued during one call.
type Ledger struct {
	mu       sync.Mutex
	promises []Transfer
}

// Queue records a transfer and returns its promise index.
func (l *Ledger) Queue(to string, amount *uint256.Int) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.promises = append(l.promises, Transfer{To: to, Amount: amount.Clone()})
	return uint64(len(l.promises) - 1)
}

// Promises returns a copy of the queued transfers.
func (l *Ledger) Promises() []Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transfer(nil), l.promises...)
}

// Discard drops every queued transfer.
func (l *Ledger) Discard() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.promises = nil
}

type ledgerKey struct{}

// WithLedger attaches a ledger to ctx.
func WithLedger(ctx context.Context, l *Ledger) context.Context {
	return context.WithValue(ctx, ledgerKey{}, l)
}

// LedgerFrom returns the ledger of the running call, or nil.
func LedgerFrom(ctx context.Context) *Ledger {
	l, _ := ctx.Value(ledgerKey{}).(*Ledger)
	return l
}

// Pay queues a transfer on the running call's ledger. Outside a call it aborts.
func Pay(ctx context.Context, to string, amount *uint256.Int) uint64 {
	l := LedgerFrom(ctx)
	if l == nil {
		Abort("transfer outside of a contract call")
	}
	return l.Queue(to, amount)
}
