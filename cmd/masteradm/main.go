// Command masteradm manages the admins file and inspects the catalog of a
// Master Account deployment.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "masteradm",
		Short:         "Admin tooling for the Master Account guide server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(
		newHashPasswordCommand(),
		newAddAdminCommand(),
		newTOTPCommand(),
		newCatalogCommand(),
	)
	return cmd
}
