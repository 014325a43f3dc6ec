// Command zephyrctl exercises the zephyr engine end to end from the
// shell: a single Get against one file, or a bench run against a whole
// directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "zephyrctl",
	Short:   "Drive the zephyr completion-queue engine from the command line",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "hujson config file overriding engine tuning defaults")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	execute()
}
