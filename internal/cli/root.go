// Package cli implements the pcdctl command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/pcd/driver"
)

// rootFlags holds the global flags shared by every subcommand.
type rootFlags struct {
	configFile string
	logLevel   string
	locking    bool
}

// NewRootCmd builds the pcdctl command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "pcdctl",
		Short: "pcdctl - pseudo character device control",
		Long: `pcdctl loads the pcd pseudo character device driver into an in-memory
device host, publishes its /dev node and runs scripted sessions against it.`,
		Version:       GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (JSON or YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.locking, "locking", false, "serialize reads and writes on the device region")

	cmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	cmd.AddCommand(newInfoCmd(flags))
	cmd.AddCommand(newRunCmd(flags))

	return cmd
}

// Execute runs the command tree against os.Args.
// This is called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}

// GetVersion returns the driver version pcdctl loads.
func GetVersion() string {
	return driver.DefaultMetadata().Version
}
