package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newIndustriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "industries",
		Short: "List the known industry tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output, false); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.output != formatText {
				return writeStructured(w, opts.output, opts.catalog.Industries)
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, ind := range opts.catalog.Industries {
				fmt.Fprintf(tw, "%s\t%s\t%d examples\n", ind.ID, ind.Label, len(ind.Examples))
			}
			return tw.Flush()
		},
	}
}

func newExamplesCmd(opts *options) *cobra.Command {
	var tag string
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Show reference mission statements for an industry with their scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output, false); err != nil {
				return err
			}
			if _, ok := opts.catalog.Lookup(tag); !ok {
				return errors.Errorf("unknown industry %q", tag)
			}
			examples := opts.catalog.ScoreExamples(tag)
			w := cmd.OutOrStdout()
			if opts.output != formatText {
				return writeStructured(w, opts.output, examples)
			}
			if len(examples) == 0 {
				fmt.Fprintf(w, "no examples for %s\n", opts.catalog.Canonical(tag))
				return nil
			}
			for _, ex := range examples {
				fmt.Fprintf(w, "%s  %d/100 (%s)\n  %s\n", ex.Name, ex.Overall, ex.Label, ex.Mission)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&tag, "industry", "i", "technology", "Industry tag")
	return cmd
}
