package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(client *Client) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Download the session's current table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported export format %q: use 'csv' or 'json'", format)
			}
			resp, err := client.Do(http.MethodGet,
				"/api/v1/sessions/"+args[0]+"/export?format="+format, nil, "")
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}
			raw, err := ReadBody(resp)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = os.Stdout.Write(raw)
				return err
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s (%d rows)\n", out, headerInt(resp, "X-Total-Rows"))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Export format (csv, json)")
	cmd.Flags().StringVar(&out, "out", "", "Write to file instead of stdout")
	return cmd
}

func headerInt(resp *http.Response, name string) int {
	var n int
	fmt.Sscanf(resp.Header.Get(name), "%d", &n)
	return n
}
