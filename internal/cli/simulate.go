package cli

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phytogen/internal/breeding"
	"phytogen/internal/model"
	"phytogen/pkg/phytogen"
)

// SimulateCmd returns the simulate command
func SimulateCmd() *cobra.Command {
	var founders int
	var ticks int
	var method string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a multi-tick breeding, expression, and exposure simulation",
		Long: `Seed a founder population, then on every tick queue a cross between two
random genotypes plus an expression and an exposure request, and drain the
queues. Persisted state accumulates under the session id.`,
	}
	env := addEnvFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if founders < 1 {
			return fmt.Errorf("founders must be at least 1, got %d", founders)
		}
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		rng := rand.New(rand.NewSource(seedFlag + 99))
		for i := 0; i < founders; i++ {
			req := phytogen.FounderRequest{
				StrainID:   fmt.Sprintf("strain-%d", i+1),
				StrainName: fmt.Sprintf("Founder %d", i+1),
				Alleles:    defaultFounderAlleles(),
			}
			if _, err := client.CreateFounderGenotype(cmd.Context(), req); err != nil {
				return err
			}
		}
		fmt.Printf("%s %d founders, %d ticks\n",
			color.New(color.FgCyan).Sprint("simulating"), founders, ticks)

		e := env.environment()
		for tick := 1; tick <= ticks; tick++ {
			ids := client.GenotypeIDs()
			sort.Strings(ids)

			a := ids[rng.Intn(len(ids))]
			b := ids[rng.Intn(len(ids))]
			if err := client.EnqueueBreed(a, b, model.BreedingMethod(method)); err != nil && !errors.Is(err, breeding.ErrQueueFull) {
				return err
			}
			subject := ids[rng.Intn(len(ids))]
			if err := client.EnqueueExpress(subject, e); err != nil && !errors.Is(err, breeding.ErrQueueFull) {
				return err
			}
			if err := client.EnqueueExposure(subject, e, duration); err != nil && !errors.Is(err, breeding.ErrQueueFull) {
				return err
			}

			report, err := client.Tick(cmd.Context())
			if err != nil {
				return err
			}

			born := 0
			for _, res := range report.BreedingResults {
				born += len(res.Offspring)
			}
			fmt.Printf("  tick %3d: %d crosses, %d born, %d expressed, %d exposures\n",
				tick, len(report.BreedingResults), born, report.Expressed, report.Exposures)
		}

		stats := client.BreedingStats()
		hits, misses := client.ExpressionCacheStats()
		fmt.Println()
		fmt.Printf("population:  %d genotypes\n", len(client.GenotypeIDs()))
		fmt.Printf("breeding:    %d attempted, %s, %s\n", stats.Attempted,
			color.New(color.FgGreen).Sprintf("%d succeeded", stats.Succeeded),
			color.New(color.FgRed).Sprintf("%d failed", stats.Failed))
		fmt.Printf("expression:  %d cache hits / %d misses\n", hits, misses)
		fmt.Printf("session:     %s\n", client.SessionID())
		return nil
	}

	cmd.Flags().IntVar(&founders, "founders", 4, "founder population size")
	cmd.Flags().IntVar(&ticks, "ticks", 10, "number of ticks to run")
	cmd.Flags().StringVar(&method, "method", string(model.StandardCross), "breeding method")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "duration of each exposure tick")
	return cmd
}
