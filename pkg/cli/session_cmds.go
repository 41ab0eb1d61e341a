package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newUploadCmd(client *Client) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a dataset and open a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, err := mw.CreateFormFile("file", filepath.Base(args[0]))
			if err != nil {
				return err
			}
			if _, err := part.Write(raw); err != nil {
				return err
			}
			if format != "" {
				if err := mw.WriteField("format", format); err != nil {
					return err
				}
			}
			if err := mw.Close(); err != nil {
				return err
			}

			resp, err := client.Do(http.MethodPost, "/api/v1/datasets", &body, mw.FormDataContentType())
			if err != nil {
				return err
			}
			return printPreviewResponse(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Declared format (csv, tsv, json, xlsx, txt); detected from the file when omitted")
	return cmd
}

func newPreviewCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "preview <session-id>",
		Short: "Show the session's schema, statistics, and sample rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Do(http.MethodGet, "/api/v1/sessions/"+args[0], nil, "")
			if err != nil {
				return err
			}
			return printPreviewResponse(cmd, resp)
		},
	}
}

func newGenerateCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <session-id> <instruction...>",
		Short: "Generate transformation code from a natural-language instruction",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.DoJSON(http.MethodPost, "/api/v1/sessions/"+args[0]+"/generate",
				map[string]string{"instruction": strings.Join(args[1:], " ")})
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}
			var out struct {
				Code       string `json:"code"`
				Provenance string `json:"provenance"`
			}
			if err := decodeBody(resp, &out); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, out)
			}
			fmt.Println(out.Code)
			return nil
		},
	}
}

func newApproveCmd(client *Client) *cobra.Command {
	var codeFile string
	cmd := &cobra.Command{
		Use:   "approve <session-id>",
		Short: "Approve transformation code for execution",
		Long: `Approve transformation code for execution.

Reads the code from --file, or from stdin when the flag is omitted. Code
that differs from the generated candidate is recorded as user-edited.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(codeFile)
			if err != nil {
				return err
			}
			resp, err := client.DoJSON(http.MethodPost, "/api/v1/sessions/"+args[0]+"/approve",
				map[string]string{"code": code})
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}
			var out struct {
				State string `json:"state"`
			}
			if err := decodeBody(resp, &out); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, out)
			}
			fmt.Printf("State: %s\n", out.State)
			return nil
		},
	}
	cmd.Flags().StringVarP(&codeFile, "file", "f", "", "Read code from file instead of stdin")
	return cmd
}

func newExecuteCmd(client *Client) *cobra.Command {
	var (
		codeFile string
		flatText bool
	)
	cmd := &cobra.Command{
		Use:   "execute <session-id>",
		Short: "Execute the approved transformation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if codeFile != "" {
				code, err := readCode(codeFile)
				if err != nil {
					return err
				}
				req["code"] = code
			}
			if flatText {
				req["output_format"] = "flat-text"
			}
			resp, err := client.DoJSON(http.MethodPost, "/api/v1/sessions/"+args[0]+"/execute", req)
			if err != nil {
				return err
			}
			// A rejected validation comes back 422 with the execution body.
			if resp.StatusCode != http.StatusUnprocessableEntity {
				if err := CheckError(resp); err != nil {
					return err
				}
			}
			if flatText && resp.StatusCode == http.StatusOK {
				raw, err := ReadBody(resp)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(raw)
				return err
			}
			var res executionResponse
			if err := decodeBody(resp, &res); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, res)
			}
			printExecution(os.Stdout, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&codeFile, "file", "f", "", "Execute code from file (must match the approved code)")
	cmd.Flags().BoolVar(&flatText, "flat-text", false, "Print the result table as CSV")
	return cmd
}

func newAuditCmd(client *Client) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit <session-id>",
		Short: "Show the session's audit trail, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/sessions/" + args[0] + "/audit"
			if limit > 0 {
				path = fmt.Sprintf("%s?limit=%d", path, limit)
			}
			resp, err := client.Do(http.MethodGet, path, nil, "")
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}
			var entries []struct {
				Action    string `json:"action"`
				Outcome   string `json:"outcome"`
				Detail    string `json:"detail"`
				CreatedAt string `json:"created_at"`
			}
			if err := decodeBody(resp, &entries); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, entries)
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %s  %s", e.CreatedAt, e.Action, e.Outcome)
				if e.Detail != "" {
					line += "  " + e.Detail
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries to return (0 = all)")
	return cmd
}

func newDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Do(http.MethodDelete, "/api/v1/sessions/"+args[0], nil, "")
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}
			_, _ = ReadBody(resp)
			fmt.Println("deleted")
			return nil
		},
	}
}

func printPreviewResponse(cmd *cobra.Command, resp *http.Response) error {
	if err := CheckError(resp); err != nil {
		return err
	}
	var p previewResponse
	if err := decodeBody(resp, &p); err != nil {
		return err
	}
	if getOutputFormat(cmd) == "json" {
		return PrintJSON(os.Stdout, p)
	}
	printPreview(os.Stdout, p)
	return nil
}

func decodeBody(resp *http.Response, v any) error {
	raw, err := ReadBody(resp)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readCode(path string) (string, error) {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
