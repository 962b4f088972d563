package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mission-backend/internal/analyses"
	"mission-backend/internal/extract"
)

type scoreFlags struct {
	industry string
	file     string
}

func newScoreCmd(opts *options) *cobra.Command {
	flags := &scoreFlags{}
	cmd := &cobra.Command{
		Use:   "score [text|-]",
		Short: "Score a mission statement with the rule-based engine",
		Long: `Score a mission statement. The text comes from the arguments, from stdin
when the only argument is "-" or no argument is given, or from --file (txt, pdf or docx).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output, true); err != nil {
				return err
			}
			text, err := readMission(cmd.Context(), opts, flags.file, args)
			if err != nil {
				return err
			}
			svc := &analyses.Service{Catalog: opts.catalog}
			result, err := svc.Score(text, flags.industry)
			if err != nil {
				return errors.Wrap(err, "score")
			}
			return writeResult(cmd.OutOrStdout(), opts.output, result)
		},
	}
	cmd.Flags().StringVarP(&flags.industry, "industry", "i", "", "Industry tag, e.g. technology or healthcare")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Read the statement from a txt, pdf or docx file")
	return cmd
}

func readMission(ctx context.Context, opts *options, file string, args []string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", errors.Wrapf(err, "read %s", file)
		}
		text, err := extract.Text(ctx, data, "", file)
		if err != nil {
			return "", errors.Wrapf(err, "extract %s", file)
		}
		return text, nil
	}
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(opts.stdin)
		if err != nil {
			return "", errors.Wrap(err, "read stdin")
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}
