package main

import (
	"fmt"
	"os"

	"phytogen/internal/cli"
)

func main() {
	rootCmd := cli.RootCmd()

	rootCmd.AddCommand(cli.FounderCmd())
	rootCmd.AddCommand(cli.BreedCmd())
	rootCmd.AddCommand(cli.ExpressCmd())
	rootCmd.AddCommand(cli.ExposeCmd())
	rootCmd.AddCommand(cli.SimulateCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.LineageCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
