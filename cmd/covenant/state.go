package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type stateView struct {
	Account   string    `json:"account"`
	Contract  string    `json:"contract"`
	Codec     string    `json:"codec"`
	Version   uint64    `json:"version"`
	Encrypted bool      `json:"encrypted,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	Value     any       `json:"value"`
}

func newStateCmd(a *app) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "state [contract]",
		Short: "Show the stored state of an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, err := a.account(account)
			if err != nil {
				return err
			}
			rt, closeStore, err := a.runtime(firstArg(args))
			if err != nil {
				return err
			}
			defer closeStore()

			rec, err := rt.State(cmd.Context(), acct)
			if err != nil {
				return fmt.Errorf("state of %s: %w", acct, err)
			}
			value, err := rt.StateValue(cmd.Context(), acct)
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(stateView{
				Account:   rec.Account,
				Contract:  rec.Contract,
				Codec:     rec.Codec.String(),
				Version:   rec.Version,
				Encrypted: rec.Encrypted,
				UpdatedAt: rec.UpdatedAt,
				Value:     value,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "Account to inspect")
	return cmd
}
