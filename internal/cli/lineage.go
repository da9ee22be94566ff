package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"phytogen/internal/model"
)

// LineageCmd returns the lineage command
func LineageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage [genotype-id]",
		Short: "Show the ancestry ledger, or one genotype's entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if len(args) == 1 {
				entry, ok := client.Lineage(args[0])
				if !ok {
					return fmt.Errorf("genotype %s has no lineage entry", args[0])
				}
				printLineageEntry(entry)
				return nil
			}

			entries := client.LineageEntries()
			if len(entries) == 0 {
				fmt.Println("no lineage entries in this session")
				return nil
			}
			sort.Slice(entries, func(i, j int) bool {
				if entries[i].Depth != entries[j].Depth {
					return entries[i].Depth < entries[j].Depth
				}
				return entries[i].GenotypeID < entries[j].GenotypeID
			})
			for _, entry := range entries {
				printLineageEntry(entry)
			}
			return nil
		},
	}
	return cmd
}

func printLineageEntry(entry model.LineageEntry) {
	kind := color.New(color.FgGreen).Sprint("founder")
	if len(entry.ParentIDs) > 0 {
		kind = color.New(color.FgCyan).Sprintf("child of %s", strings.Join(entry.ParentIDs, ", "))
	}
	fmt.Printf("%s%s  gen %d  depth %d  %s\n",
		strings.Repeat("  ", entry.Depth), entry.GenotypeID, entry.Generation, entry.Depth, kind)
}
