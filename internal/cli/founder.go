package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phytogen/internal/model"
	"phytogen/pkg/phytogen"
)

// FounderCmd returns the founder command
func FounderCmd() *cobra.Command {
	var geneSpecs []string
	var traitSpecs []string

	cmd := &cobra.Command{
		Use:   "founder <strain-id> <strain-name>",
		Short: "Create a generation-1 founder genotype",
		Long: `Create a founder genotype and persist it.

Genes are given as repeatable --gene flags of the form
  geneID=alleleName:expression[:dominance]
Each gene may be given twice for a heterozygous pair. Traits use
  --trait name=value`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			alleles, err := parseGeneSpecs(geneSpecs)
			if err != nil {
				return err
			}
			traits, err := parseTraitSpecs(traitSpecs)
			if err != nil {
				return err
			}

			founder, err := client.CreateFounderGenotype(cmd.Context(), phytogen.FounderRequest{
				StrainID:   args[0],
				StrainName: args[1],
				Alleles:    alleles,
				Traits:     traits,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s founder %s\n", color.New(color.FgGreen).Sprint("created"), founder.ID)
			fmt.Printf("  strain:     %s (%s)\n", founder.StrainName, founder.StrainID)
			fmt.Printf("  generation: %d\n", founder.Generation)
			fmt.Printf("  genes:      %d\n", len(founder.Alleles))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&geneSpecs, "gene", nil, "allele spec geneID=name:expression[:dominance] (repeatable)")
	cmd.Flags().StringArrayVar(&traitSpecs, "trait", nil, "trait spec name=value (repeatable)")
	return cmd
}

// parseGeneSpecs groups allele specs by gene id, preserving flag order
// within each gene so a pair of flags yields a heterozygous set.
func parseGeneSpecs(specs []string) (map[string][]model.Allele, error) {
	if len(specs) == 0 {
		return defaultFounderAlleles(), nil
	}
	alleles := make(map[string][]model.Allele)
	for _, spec := range specs {
		geneID, rest, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("gene spec %q: want geneID=name:expression[:dominance]", spec)
		}
		parts := strings.Split(rest, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("gene spec %q: want geneID=name:expression[:dominance]", spec)
		}
		expression, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("gene spec %q: expression: %w", spec, err)
		}
		dominance := 0.5
		if len(parts) == 3 {
			dominance, err = strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("gene spec %q: dominance: %w", spec, err)
			}
		}
		alleles[geneID] = append(alleles[geneID], model.Allele{
			Name:       parts[0],
			Expression: expression,
			Dominance:  dominance,
			Stability:  0.9,
		})
	}
	for geneID, set := range alleles {
		if len(set) > 2 {
			return nil, fmt.Errorf("gene %s: at most 2 alleles, got %d", geneID, len(set))
		}
	}
	return alleles, nil
}

func parseTraitSpecs(specs []string) ([]model.GeneticTrait, error) {
	traits := make([]model.GeneticTrait, 0, len(specs))
	for _, spec := range specs {
		name, raw, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("trait spec %q: want name=value", spec)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("trait spec %q: %w", spec, err)
		}
		traits = append(traits, model.GeneticTrait{Name: name, ExpressedValue: value, Dominance: 0.5})
	}
	return traits, nil
}

// defaultFounderAlleles is the starter genome used when no --gene flags
// are given.
func defaultFounderAlleles() map[string][]model.Allele {
	return map[string][]model.Allele{
		"leaf_size": {
			{Name: "broad", Expression: 0.7, Dominance: 0.6, Stability: 0.9},
			{Name: "narrow", Expression: 0.3, Dominance: 0.4, Stability: 0.9},
		},
		"stem_height": {
			{Name: "tall", Expression: 0.8, Dominance: 0.5, Stability: 0.85},
			{Name: "short", Expression: 0.4, Dominance: 0.5, Stability: 0.85},
		},
		"pigment": {
			{Name: "deep_green", Expression: 0.6, Dominance: 0.7, Stability: 0.95,
				Color: &model.ColorPayload{Hue: 120, Saturation: 0.8, Value: 0.5}},
		},
	}
}
