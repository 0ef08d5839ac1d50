package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"marketing-api/internal/app"
	"marketing-api/internal/marketdata"

	"github.com/spf13/cobra"
)

func newSourcesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the market data sources in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			svc, err := app.Build(cmd.Context(), cfg, opts.logger(), nil, app.Options{})
			if err != nil {
				return err
			}
			defer svc.Close()

			return printSources(cmd, svc.Market.Sources())
		},
	}
}

func printSources(cmd *cobra.Command, sources []marketdata.Source) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSOURCE\tAVAILABLE\tREAL-TIME")
	for i, s := range sources {
		fmt.Fprintf(w, "%d\t%s\t%t\t%t\n", i+1, s.Name(), s.Available(), s.RealTime())
	}
	return w.Flush()
}

func newFetchCmd(opts *options) *cobra.Command {
	var (
		refresh    bool
		clearCache bool
		asJSON     bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the market series the API would serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			svc, err := app.Build(ctx, cfg, opts.logger(), nil, app.Options{})
			if err != nil {
				return err
			}
			defer svc.Close()

			if clearCache {
				if err := svc.Market.Invalidate(ctx); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
			}

			res := svc.Market.Get(ctx, refresh)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return printResult(cmd, res)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass a fresh cache entry")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "empty the cache slot before fetching")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the API response body")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall deadline")
	return cmd
}

func printResult(cmd *cobra.Command, res *marketdata.Result) error {
	md := res.Metadata
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Area:      %s\n", md.Area)
	fmt.Fprintf(out, "Source:    %s (real-time: %t)\n", md.Source, md.IsRealTime)
	fmt.Fprintf(out, "Updated:   %s (cache age %s)\n",
		time.UnixMilli(md.LastUpdated).UTC().Format(time.RFC3339),
		(time.Duration(md.CacheAge) * time.Millisecond).String())
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "MONTH\tPRICE\tINVENTORY\tSALES\t")
	for _, p := range res.Data {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\t\n", p.Month, p.Price, p.Inventory, p.Sales)
	}
	return w.Flush()
}
