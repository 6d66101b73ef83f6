package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show driver registration details",
		Long: `Load the driver, print its metadata and registration details, and
unload it again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd, flags)
		},
	}
}

func runInfo(cmd *cobra.Command, flags *rootFlags) (err error) {
	env, err := flags.load(cmd)
	if err != nil {
		return err
	}
	defer func() { err = env.unload(err) }()

	meta := env.reg.Metadata()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Driver: %s\n", meta.Name)
	fmt.Fprintf(out, "Description: %s\n", meta.Description)
	fmt.Fprintf(out, "Version: %s\n", meta.Version)
	fmt.Fprintf(out, "License: %s\n", meta.License)
	fmt.Fprintf(out, "Number: %s\n", env.reg.Number())
	fmt.Fprintf(out, "Node: %s\n", env.reg.NodePath())
	fmt.Fprintf(out, "Class: %s\n", env.reg.Class())
	fmt.Fprintf(out, "Capacity: %d\n", env.reg.Device().Capacity())
	fmt.Fprintf(out, "Locking: %t\n", env.config.Device.Locking)

	return nil
}
