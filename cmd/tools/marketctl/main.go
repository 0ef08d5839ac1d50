// Command marketctl inspects the market data chain and the lead routing
// rules from a terminal.
package main

import (
	"fmt"
	"os"

	"marketing-api/internal/common/config"
	"marketing-api/internal/common/logger"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "marketctl",
		Short:         "Operate the marketing API's market data and lead routing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newSourcesCmd(opts),
		newFetchCmd(opts),
		newScoreCmd(),
		newDispatchesCmd(opts),
		newTriggerRefreshCmd(opts),
	)
	return root
}

func (o *options) load() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

func (o *options) logger() logger.Logger {
	if o.verbose {
		return logger.NewStructured("debug", "console")
	}
	return logger.NewStructured("warn", "console")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
