package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/policyctl/pkg/config"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration attributes and their sources",
	Long: `Show configuration attributes and their sources.

Values come from the config file and PRISMA_CLOUD_* environment variables.
Keys are redacted. Problems that would stop a run are listed after the table.

Config file location: /etc/policyctl/policyctl.yml (or PRISMA_CLOUD_CONFIG_PATH)

Example:
  policyctl configuration show
  policyctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		path, _ := cmd.Flags().GetString("config")

		if err := showConfiguration(cmd.OutOrStdout(), path, output); err != nil {
			exitWithError("Failed to show configuration", err)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(w io.Writer, path, output string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if output == "json" {
		jsonOutput, err := cfg.FormatJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, jsonOutput)
		return err
	}

	if _, err := fmt.Fprint(w, cfg.FormatText()); err != nil {
		return err
	}
	if invalid := cfg.Validate(); invalid != nil {
		_, err := fmt.Fprintf(w, "\nConfiguration is not usable:\n%v\n", invalid)
		return err
	}
	return nil
}
