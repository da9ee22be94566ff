package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ExpressCmd returns the express command
func ExpressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "express <genotype-id>",
		Short: "Express a genotype's phenotype under an environment",
		Args:  cobra.ExactArgs(1),
	}
	env := addEnvFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		p, err := client.ExpressPhenotype(args[0], env.environment())
		if err != nil {
			return err
		}

		fmt.Printf("phenotype of %s\n", color.New(color.FgCyan).Sprint(p.GenotypeID))
		printCategory("morphological", p.Morphological)
		printCategory("color", p.Color)
		printCategory("growth", p.Growth)
		printCategory("tolerance", p.Tolerance)
		printCategory("biochemical", p.Biochemical)
		printCategory("custom", p.Custom)
		fmt.Printf("  overall vigor:     %.3f\n", p.OverallVigor)
		fmt.Printf("  stress resistance: %.3f\n", p.StressResistance)

		hits, misses := client.ExpressionCacheStats()
		fmt.Printf("  cache: %d hits / %d misses\n", hits, misses)
		return nil
	}
	return cmd
}

func printCategory(name string, traits map[string]float64) {
	if len(traits) == 0 {
		return
	}
	fmt.Printf("  %s:\n", name)
	names := make([]string, 0, len(traits))
	for trait := range traits {
		names = append(names, trait)
	}
	sort.Strings(names)
	for _, trait := range names {
		fmt.Printf("    %-20s %.3f\n", trait, traits[trait])
	}
}
