package main

import (
	"fmt"
	"os"
	"path/filepath"

	"marketing-api/internal/common/camunda"

	"github.com/spf13/cobra"
)

func newTriggerRefreshCmd(opts *options) *cobra.Command {
	var (
		processID  string
		deployPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "trigger-refresh",
		Short: "Start the market refresh process so the worker fleet refreshes the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			zeebe, err := camunda.NewClient(cfg.Camunda)
			if err != nil {
				return err
			}
			defer zeebe.Close()

			if deployPath != "" {
				definition, err := os.ReadFile(deployPath)
				if err != nil {
					return err
				}
				key, err := zeebe.Deploy(cmd.Context(), filepath.Base(deployPath), definition)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deployed %s (deployment %d)\n", filepath.Base(deployPath), key)
			}

			key, err := zeebe.StartProcess(cmd.Context(), processID, map[string]interface{}{"force": force})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started %s (instance %d)\n", processID, key)
			return nil
		},
	}

	cmd.Flags().StringVar(&processID, "process-id", "market-refresh", "BPMN process id")
	cmd.Flags().StringVar(&deployPath, "deploy", "", "deploy this BPMN file first")
	cmd.Flags().BoolVar(&force, "force", true, "bypass a fresh cache entry")
	return cmd
}
