package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCmd prints the effective configuration (defaults, file,
// environment and flags applied) as YAML with secrets masked.
func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}

			redacted := cfg.Redacted()
			data, err := redacted.ToYAML()
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}

			cmd.Printf("# configuration source: %s\n%s", cfgSource, data)
			return nil
		},
	}
}
