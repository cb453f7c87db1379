package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stageboard",
	Short: "Stageboard - festival stage schedule board",
	Long: `Stageboard tracks a festival stage's running schedule: the published
running order overlaid with operator-recorded actual times, projecting slip,
breaks, and the estimated end of day to every connected viewer in real time.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
