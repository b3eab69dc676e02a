package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/covenant/internal/presentation/tui"
	"github.com/aretw0/covenant/pkg/adapters/loam"
	"github.com/aretw0/covenant/pkg/adapters/memory"
	"github.com/aretw0/covenant/pkg/classify"
	"github.com/aretw0/covenant/pkg/domain"
	"github.com/aretw0/covenant/pkg/ports"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	var contract string

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Classify method descriptor documents",
		Long: `Reads method descriptor documents (Markdown frontmatter, JSON or YAML) from
a directory and runs each through the classifier. Exits non-zero when any
method would fail to bind.

With --contract, the descriptors of a registered contract are exported and
classified again, detached from their Go types.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				loader ports.DescriptorLoader
				source string
			)
			switch {
			case contract != "":
				def, err := a.definition(contract)
				if err != nil {
					return err
				}
				entries := def.Contract().Entries()
				descs := make([]domain.MethodDescription, 0, len(entries))
				for _, e := range entries {
					descs = append(descs, e.Description)
				}
				if loader, err = memory.NewFromDescriptions(descs...); err != nil {
					return err
				}
				source = contract
			case len(args) == 1:
				l, err := loam.Open(args[0])
				if err != nil {
					return err
				}
				loader, source = l, args[0]
			default:
				return errors.New("a descriptor directory or --contract is required")
			}

			descs, err := loader.Descriptors(cmd.Context())
			if err != nil {
				return err
			}

			results := make([]tui.CheckResult, 0, len(descs))
			for id, desc := range descs {
				rec, err := classify.Classify(desc)
				results = append(results, tui.CheckResult{ID: id, Record: rec, Err: err})
			}
			a.logger.Debug("Descriptors checked", "source", source, "count", len(results))

			if failed := tui.PrintCheckReport(cmd.OutOrStdout(), results); failed > 0 {
				return fmt.Errorf("%d of %d methods failed classification", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contract, "contract", "", "Check a registered contract instead of a directory")
	return cmd
}
