package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var previewJSON bool

var previewCmd = &cobra.Command{
	Use:   "preview <entrega-id>",
	Short: "Fetch and print the normalized survey template for a delivery id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		runner, _, _, err := buildRunner(cfg, cliLogger())
		if err != nil {
			return err
		}

		tpl, err := runner.Preview(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching template: %w", err)
		}

		if previewJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(tpl)
		}

		fmt.Printf("%s (entrega %s)\n", tpl.Survey.Name, tpl.EntryID)
		if tpl.Survey.Description != "" {
			fmt.Println(tpl.Survey.Description)
		}
		for _, q := range tpl.Questions {
			required := ""
			if q.Required {
				required = " *"
			}
			fmt.Printf("\n%d. %s%s [%s]\n", q.Order, q.Text, required, q.Type)
			for _, opt := range q.Options {
				fmt.Printf("   - %s\n", opt.Text)
			}
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewJSON, "json", false, "print the template as JSON")
	rootCmd.AddCommand(previewCmd)
}
