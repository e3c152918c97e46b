package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/survey-scan/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol server on stdio exposing the
preview_survey and process_survey_image tools, so AI agents can fetch
survey templates and run the processing pipeline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Stdout carries MCP protocol messages, so the pipeline must
		// log to stderr only.
		runner, _, _, err := buildRunner(cfg, cliLogger())
		if err != nil {
			return err
		}

		mcp.Version = Version
		return mcp.NewServer(runner).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
