package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phytogen/internal/model"
)

// BreedCmd returns the breed command
func BreedCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "breed <parent-a-id> <parent-b-id>",
		Short: "Cross two registered genotypes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Breed(cmd.Context(), args[0], args[1], model.BreedingMethod(method))
			if err != nil {
				return err
			}

			if !res.Success {
				fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("failed:"), res.Reason)
				fmt.Printf("  compatibility: %.3f\n", res.CompatibilityScore)
				return nil
			}

			fmt.Printf("%s %d offspring (%s)\n",
				color.New(color.FgGreen).Sprint("bred"), len(res.Offspring), res.Record.Method)
			fmt.Printf("  compatibility: %.3f\n", res.CompatibilityScore)
			for _, child := range res.Offspring {
				fmt.Printf("  %s  gen %d  %s\n", child.ID, child.Generation, child.StrainName)
			}
			if len(res.Record.PredictedTraits) > 0 {
				fmt.Println("  predicted traits:")
				for name, value := range res.Record.PredictedTraits {
					fmt.Printf("    %-20s %.3f\n", name, value)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", string(model.StandardCross),
		"breeding method (self_pollination, standard_cross, hybrid_cross, backcross)")
	return cmd
}
