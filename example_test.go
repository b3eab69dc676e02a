package covenant_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/pkg/envelope"
)

type Wallet struct {
	Balance uint64 `json:"balance"`
}

type InsufficientFunds struct {
	Missing uint64 `json:"missing"`
}

func (e *InsufficientFunds) Error() string { return "insufficient funds" }

func (Wallet) Markers() map[string][]covenant.Marker {
	return map[string][]covenant.Marker{"Withdraw": {covenant.HandleResult}}
}

func (w *Wallet) Deposit(amount uint64) uint64 {
	w.Balance += amount
	return w.Balance
}

func (w *Wallet) Withdraw(amount uint64) (uint64, *InsufficientFunds) {
	if amount > w.Balance {
		return 0, &InsufficientFunds{Missing: amount - w.Balance}
	}
	w.Balance -= amount
	return w.Balance, nil
}

func (w Wallet) Total() uint64 { return w.Balance }

func ExampleRuntime() {
	def, err := covenant.Define[Wallet](covenant.Constructor("open", func() Wallet { return Wallet{} }))
	if err != nil {
		log.Fatal(err)
	}
	rt, err := covenant.New(def)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	fmt.Println(rt.Init(ctx, "alice.near", "open", nil).Display())
	fmt.Println(rt.Call(ctx, "alice.near", "deposit", []any{10}).Display())

	// A handled failure carries the error value in its envelope.
	resp := rt.Call(ctx, "alice.near", "withdraw", []any{25})
	env, err := envelope.ParseDiagnostic(resp.Diagnostic)
	if err != nil {
		log.Fatal(err)
	}
	var funds InsufficientFunds
	if err := env.Decode(&funds); err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Terminal, "missing", funds.Missing)

	fmt.Println(rt.View(ctx, "alice.near", "total").Display())
	// Output:
	// committed
	// committed 10
	// rolled_back missing 15
	// committed 10
}
