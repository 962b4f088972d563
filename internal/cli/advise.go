package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mission-backend/internal/advisory"
	"mission-backend/internal/analyses"
	"mission-backend/internal/bootstrap"
	"mission-backend/internal/shared/config"
)

const cliPrincipal = "cli"

func generatorFromConfig() (advisory.Generator, string, string, error) {
	cfg := config.Load()
	return bootstrap.BuildAdvisory(cfg, nil)
}

func newAdviseCmd(opts *options) *cobra.Command {
	flags := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "advise [text|-]",
		Short: "Score a statement and ask the configured LLM provider for rewrites",
		Long: `Runs the advisory path against LLM_PROVIDER and LLM_MODEL from the
environment. When the provider is unavailable the rule-based result is printed
with a fallback note.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output, true); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			text, err := readMission(ctx, opts, flags.file, args)
			if err != nil {
				return err
			}
			gen, provider, model, err := opts.generator()
			if err != nil {
				return errors.Wrap(err, "configure advisory provider")
			}
			svc := &analyses.Service{
				Advisory: gen,
				Catalog:  opts.catalog,
				Provider: provider,
				Model:    model,
			}
			out, err := svc.Analyze(ctx, cliPrincipal, analyses.Input{
				Text:     text,
				Industry: flags.industry,
				Advisory: true,
			})
			if err != nil {
				return errors.Wrap(err, "analyze")
			}
			return writeResult(cmd.OutOrStdout(), opts.output, out.Analysis.Result)
		},
	}
	cmd.Flags().StringVarP(&flags.industry, "industry", "i", "", "Industry tag, e.g. technology or healthcare")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the statement from a txt, pdf or docx file")
	return cmd
}
