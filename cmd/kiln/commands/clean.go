package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [classes...]",
		Short: "Remove generated output",
		Long:  "Remove generated output of the given asset classes, or of every class when none is given.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Clean(cmd.Context(), options(cmd, args))
		},
	}
}

func (c *CLI) newCleanClassCmd(class domain.AssetClass) *cobra.Command {
	return &cobra.Command{
		Use:   "clean:" + class.String(),
		Short: "Remove generated " + class.String() + " output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Clean(cmd.Context(), options(cmd, []string{class.String()}))
		},
	}
}
