// Package cli implements the dataclean command-line client. Most commands
// talk to a running server; `clean` runs the pipeline in-process for
// one-shot local use.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]any{"error": err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				errObj["http_status"] = apiErr.HTTPStatus
				errObj["reason"] = apiErr.Reason
			}
			_ = PrintJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		server string
		output string
	)

	rootCmd := &cobra.Command{
		Use:           "dataclean",
		Short:         "Data cleaning CLI",
		Long:          "Command-line client for the data-cleaning API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&server, "server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	client := NewClient(server)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		// Precedence: flag > env > default.
		if !cmd.Flags().Changed("server") {
			if v := os.Getenv("DATACLEAN_SERVER"); v != "" {
				server = v
			}
		}
		if err := validateOutputFormat(output); err != nil {
			return err
		}
		client.BaseURL = server
		return nil
	}

	rootCmd.AddCommand(newUploadCmd(client))
	rootCmd.AddCommand(newPreviewCmd(client))
	rootCmd.AddCommand(newGenerateCmd(client))
	rootCmd.AddCommand(newApproveCmd(client))
	rootCmd.AddCommand(newExecuteCmd(client))
	rootCmd.AddCommand(newTransformsCmd(client))
	rootCmd.AddCommand(newTransformCmd(client))
	rootCmd.AddCommand(newExportCmd(client))
	rootCmd.AddCommand(newAuditCmd(client))
	rootCmd.AddCommand(newDeleteCmd(client))
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
}
