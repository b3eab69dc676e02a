package main

import (
	"fmt"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/pkg/dispatch"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

// newCallCmd builds "call" or, with view set, the read-only "view".
func newCallCmd(a *app, view bool) *cobra.Command {
	var (
		account     string
		predecessor string
		deposit     string
		height      uint64
	)
	use, short := "call", "Call a contract method"
	if view {
		use, short = "view", "Run a view method"
	}

	cmd := &cobra.Command{
		Use:   use + " <contract> <method> [json-args]",
		Short: short,
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			var payload []byte
			if len(args) == 3 {
				payload = []byte(args[2])
			}

			rt, closeStore, err := a.runtime(args[0])
			if err != nil {
				return err
			}
			defer closeStore()

			var resp dispatch.Response
			if view {
				resp = rt.ViewJSON(cmd.Context(), acct, args[1], payload)
			} else {
				opts := []covenant.CallOption{covenant.WithBlockHeight(height)}
				if predecessor != "" {
					opts = append(opts, covenant.WithPredecessor(predecessor))
				}
				if deposit != "" {
					amount, err := uint256.FromDecimal(deposit)
					if err != nil {
						return fmt.Errorf("invalid deposit: %w", err)
					}
					opts = append(opts, covenant.WithDeposit(amount))
				}
				resp = rt.CallJSON(cmd.Context(), acct, args[1], payload, opts...)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Display())
			return resp.Err()
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account whose state the call runs against")
	if !view {
		cmd.Flags().StringVar(&predecessor, "predecessor", "", "Calling account (defaults to --account)")
		cmd.Flags().StringVar(&deposit, "deposit", "", "Attached deposit, decimal")
		cmd.Flags().Uint64Var(&height, "block-height", 0, "Block height seen by the method")
	}
	return cmd
}
