package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"marketing-api/internal/common/database"
	"marketing-api/internal/leads"

	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var (
		mode string
		in   leads.ScoreInput
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a lead the way the router would",
		Example: `  marketctl score --mode contact --company "Acme Realty" --budget 100k-500k --timeline immediate
  marketctl score --mode demo --name "Jo Smith" --phone 512-555-0100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := leads.Mode(mode)
			if m != leads.ModeDemo && m != leads.ModeContact {
				return fmt.Errorf("--mode must be %q or %q", leads.ModeDemo, leads.ModeContact)
			}

			score := leads.LeadScore(in, m)
			priority := leads.DeterminePriority(score, in.Message, in.Subject)
			dealValue := leads.EstimateDealValue(in.BudgetRange, in.Subject)
			if m == leads.ModeDemo {
				priority = leads.DeterminePriority(score, "", "")
				dealValue = leads.BookingDealValue
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Score:      %d (%s)\n", score, leads.ScoreBucket(score))
			fmt.Fprintf(out, "Priority:   %s\n", priority)
			fmt.Fprintf(out, "Deal value: $%d\n", dealValue)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&mode, "mode", string(leads.ModeContact), "scoring mode: demo or contact")
	f.StringVar(&in.Name, "name", "", "lead name")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&in.Company, "company", "", "company name")
	f.StringVar(&in.Subject, "subject", "", "contact form subject")
	f.StringVar(&in.Message, "message", "", "contact form message")
	f.StringVar(&in.BudgetRange, "budget", "", "budget range")
	f.StringVar(&in.Timeline, "timeline", "", "purchase timeline")
	f.StringSliceVar(&in.InterestedAgents, "agents", nil, "interested agents")
	return cmd
}

func newDispatchesCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dispatches",
		Short: "List failed lead dispatches from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if !cfg.Database.Postgres.Enabled() {
				return fmt.Errorf("database.postgres is not configured")
			}

			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			rows, err := leads.NewPostgresLedger(pg.DB).Failed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printDispatches(cmd, rows)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows")
	return cmd
}

func printDispatches(cmd *cobra.Command, rows []leads.Dispatch) error {
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No failed dispatches.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tKIND\tEMAIL\tSTEP\tCREATED IDS\tERROR")
	for _, d := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.CreatedAt.UTC().Format(time.RFC3339), d.Kind, d.Email, d.FailedStep, createdIDs(d), d.Error)
	}
	return w.Flush()
}

func createdIDs(d leads.Dispatch) string {
	var ids []string
	for _, kv := range [][2]string{
		{"contact", d.ContactID},
		{"opportunity", d.OpportunityID},
		{"workflow", d.WorkflowID},
		{"appointment", d.AppointmentID},
	} {
		if kv[1] != "" {
			ids = append(ids, kv[0]+"="+kv[1])
		}
	}
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}
