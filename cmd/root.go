package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "survscan",
	Short: "AI-powered survey scanning and submission",
	Long: `Survscan turns photos and voice recordings of filled-in surveys into
validated submissions. It reads the delivery QR code, fetches the
survey template, extracts the answers with AI vision or transcription,
reconciles them against the template, and submits the result to the
survey service.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".survscan.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
