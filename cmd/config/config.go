// Package config provides the config command
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vectorcam/vectorinsight/internal/conf"
)

// Command creates and returns the config command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := settings.Redacted().DumpYAML()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if settings.ConfigFile != "" {
				_, _ = fmt.Fprintf(out, "# loaded from %s\n", settings.ConfigFile)
			}
			for _, w := range settings.Warnings {
				_, _ = fmt.Fprintf(out, "# warning: %s\n", w)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.AddCommand(show)
	return cmd
}
