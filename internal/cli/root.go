// Package cli implements missionctl, a command line front end for the scoring
// engine and the industry catalog.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"mission-backend/internal/advisory"
	"mission-backend/internal/industry"
)

// Version is stamped at build time with -ldflags "-X mission-backend/internal/cli.Version=...".
var Version = "dev"

type options struct {
	output    string
	catalog   *industry.Catalog
	stdin     io.Reader
	generator func() (advisory.Generator, string, string, error)
}

// NewRootCmd builds the missionctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{
		catalog:   industry.Default(),
		stdin:     os.Stdin,
		generator: generatorFromConfig,
	})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missionctl",
		Short: "Score mission statements from the command line",
		Long: `missionctl scores a mission statement on clarity, specificity, impact,
authenticity and memorability, and lists the industry reference examples.

Examples:
  missionctl score "To accelerate the world's transition to sustainable energy." --industry technology
  echo "We make banking simple" | missionctl score - -o json
  missionctl examples --industry healthcare -o yaml`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", formatText, "Output format: text, json, yaml or markdown")

	cmd.AddCommand(
		newScoreCmd(opts),
		newAdviseCmd(opts),
		newIndustriesCmd(opts),
		newExamplesCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the missionctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), "missionctl "+Version+"\n")
			return err
		},
	}
}
