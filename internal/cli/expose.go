package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ExposeCmd returns the expose command
func ExposeCmd() *cobra.Command {
	var duration time.Duration
	var ticks int

	cmd := &cobra.Command{
		Use:   "expose <genotype-id>",
		Short: "Apply environmental exposure ticks to a genotype",
		Long: `Apply one or more exposure ticks of the given duration to a genotype
and report the resulting adaptation progress and stress profile.`,
		Args: cobra.ExactArgs(1),
	}
	env := addEnvFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		e := env.environment()
		for i := 0; i < ticks; i++ {
			if err := client.ProcessExposure(args[0], e, duration); err != nil {
				return err
			}
		}

		state, ok := client.AdaptationState(args[0], e)
		if !ok {
			fmt.Println("no adaptation recorded for this environment")
		} else {
			applied := color.New(color.FgYellow).Sprint("in progress")
			if state.Applied {
				applied = color.New(color.FgGreen).Sprint("applied")
			}
			fmt.Printf("adaptation %s\n", applied)
			fmt.Printf("  fingerprint: %s\n", state.Fingerprint)
			fmt.Printf("  progress:    %.3f\n", state.Progress)
		}

		if profile, ok := client.StressProfile(args[0]); ok && len(profile.Events) > 0 {
			last := profile.Events[len(profile.Events)-1]
			fmt.Printf("stress events: %d (last %s at %.3f)\n", len(profile.Events), last.Type, last.Level)
		}
		return nil
	}

	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "duration of each exposure tick")
	cmd.Flags().IntVar(&ticks, "ticks", 1, "number of exposure ticks to apply")
	return cmd
}
