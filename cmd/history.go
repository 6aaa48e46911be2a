package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past scan runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openRunStore()
		if err != nil {
			return err
		}
		summaries, err := st.List(limit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No scan runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tTARGETS\tOK\tERRORS")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
				s.ID, formatShortTimestamp(s.StartedAt), s.TargetCount, s.OKCount, s.ErrorCount)
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Display one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openRunStore()
		if err != nil {
			return err
		}
		run, err := st.Load(args[0])
		if err != nil {
			return err
		}

		output := &RunOutput{
			Metadata: RunMetadata{
				Tool:         "vscan-form-field-analyzer",
				Version:      run.ToolVersion,
				Scanner:      run.Scanner,
				StartedAt:    run.StartedAt,
				CompletedAt:  run.CompletedAt,
				TotalTargets: run.TargetCount,
				OKCount:      run.OKCount,
				ErrorCount:   run.ErrorCount,
			},
			Results: run.Results,
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printRunJSON(output)
		}
		printRunText(output)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	historyShowCmd.Flags().Bool("json", false, "Print the run as JSON")
	historyCmd.AddCommand(historyShowCmd)
}
