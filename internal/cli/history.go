package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the session's breeding history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			history := client.History()
			if len(history) == 0 {
				fmt.Println("no breeding records in this session")
				return nil
			}

			for _, rec := range history {
				outcome := color.New(color.FgGreen).Sprint("ok")
				if !rec.Success {
					outcome = color.New(color.FgRed).Sprintf("failed (%s)", rec.FailureReason)
				}
				fmt.Printf("%s  %s x %s  %s  %s\n",
					rec.Timestamp.Format("2006-01-02 15:04:05"),
					rec.ParentAID, rec.ParentBID, rec.Method, outcome)
				for _, id := range rec.OffspringIDs {
					fmt.Printf("    -> %s\n", id)
				}
			}

			stats := client.BreedingStats()
			fmt.Printf("\n%d attempted, %d succeeded, %d failed (avg %s)\n",
				stats.Attempted, stats.Succeeded, stats.Failed, stats.AverageDuration)
			return nil
		},
	}
	return cmd
}
