package main

import (
	"os"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newReplCmd(a *app) *cobra.Command {
	var (
		account  string
		headless bool
	)
	cmd := &cobra.Command{
		Use:   "repl [contract]",
		Short: "Call methods interactively",
		Long: `Reads one call per line: "method [json-args]". Commands start with ':'
(:account, :as, :deposit, :state, :abi). Type exit to leave.`,
		Args: cobra.MaximumNArgs(1),
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

			in, out := cmd.InOrStdin(), cmd.OutOrStdout()
			if !cmd.Flags().Changed("headless") {
				headless = !isTerminal(in)
			}

			r := covenant.NewRunner(acct)
			r.Input, r.Output, r.Headless = in, out, headless
			if !headless {
				tui.PrintBanner(out)
				if render, err := tui.NewRenderer(terminalWidth(os.Stdout)); err == nil {
					r.Renderer = render
				}
			}
			return r.Run(cmd.Context(), rt)
		},
	}
	cmd.Flags().StringVarP(&account, "account", "a", "", "Account whose state the calls run against")
	cmd.Flags().BoolVar(&headless, "headless", false, "No banner or prompts (default when stdin is not a terminal)")
	return cmd
}
