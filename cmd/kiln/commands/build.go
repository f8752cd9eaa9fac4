package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build [classes...]",
		Short: "Clean and build assets once",
		Long: "Clean and build the given asset classes, or every class when none is given.\n" +
			"Classes are built in parallel; the command fails if any of them fails.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Build(cmd.Context(), options(cmd, args))
		},
	}
}

func (c *CLI) newBuildClassCmd(class domain.AssetClass) *cobra.Command {
	return &cobra.Command{
		Use:   "build:" + class.String(),
		Short: "Clean and build " + class.String() + " once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Build(cmd.Context(), options(cmd, []string{class.String()}))
		},
	}
}
