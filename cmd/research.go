package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
	"github.com/sells-group/research-hub/internal/monitoring"
)

var researchCmd = &cobra.Command{
	Use:   "research <company-id>",
	Short: "Run the market-research pipeline for a company and wait for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := initRunner(st, monitoring.NewCollector())
		if err != nil {
			return err
		}

		company, err := st.GetCompany(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load company")
		}

		rec, err := runner.Start(ctx, *company)
		if err != nil {
			return eris.Wrap(err, "start research")
		}
		zap.L().Info("research started",
			zap.String("research_id", rec.ID),
			zap.String("company", company.Name),
		)

		// Poll the record until the run leaves IN_PROGRESS.
		seen := 0
		for {
			time.Sleep(2 * time.Second)

			cur, err := st.GetResearch(ctx, rec.ID)
			if err != nil {
				return eris.Wrap(err, "poll research")
			}
			for _, ev := range cur.ProgressLog.Progress[seen:] {
				fmt.Printf("[%s] %s: %s\n", ev.Status, ev.Step, ev.Message)
			}
			seen = len(cur.ProgressLog.Progress)

			if cur.Status != model.ResearchStatusInProgress {
				fmt.Printf("research %s finished with status %s\n", cur.ID, cur.Status)
				if cur.ExecutiveSummary != "" {
					fmt.Println("\nEXECUTIVE SUMMARY")
					fmt.Println(cur.ExecutiveSummary)
				}
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(researchCmd)
}
