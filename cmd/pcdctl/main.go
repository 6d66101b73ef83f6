// Command pcdctl loads the pseudo character device driver and runs sessions
// against its node.
package main

import (
	"fmt"
	"os"

	"github.com/input-output-hk/catalyst-forge-libs/pcd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
