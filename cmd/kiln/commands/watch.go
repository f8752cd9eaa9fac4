package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [classes...]",
		Short: "Build, serve and rebuild on change",
		Long: "Clean and build every class, then watch the sources and rebuild on change.\n" +
			"The output is served with live reload unless --no-serve is given.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			noServe, _ := cmd.Flags().GetBool("no-serve")
			debounce, _ := cmd.Flags().GetDuration("debounce")

			return c.app.Watch(cmd.Context(), app.WatchOptions{
				Options:  options(cmd, args),
				Addr:     addr,
				NoServe:  noServe,
				Debounce: debounce,
			})
		},
	}
	cmd.Flags().String("addr", "", "Development server listen address (default localhost:3000)")
	cmd.Flags().Bool("no-serve", false, "Do not start the development server")
	cmd.Flags().Duration("debounce", 0, "Quiet period before a rebuild (default 50ms)")
	return cmd
}
