package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/covenant"
	"github.com/aretw0/covenant/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newABICmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "abi [contract]",
		Short: "Print the ABI of a contract",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := a.definition(firstArg(args))
			if err != nil {
				return err
			}
			rt, err := covenant.New(def, covenant.WithLogger(a.logger))
			if err != nil {
				return err
			}
			doc := rt.ABI()

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				raw, err := doc.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(raw))
			case "openapi":
				raw, err := json.MarshalIndent(doc.OpenAPI(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(raw))
			case "markdown", "md":
				md := doc.Markdown()
				if isTerminal(out) {
					render, err := tui.NewRenderer(terminalWidth(out))
					if err != nil {
						return err
					}
					if md, err = render(md); err != nil {
						return err
					}
				}
				fmt.Fprint(out, md)
			default:
				return fmt.Errorf("unknown format %q (json, openapi, markdown)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, openapi, markdown")
	return cmd
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
