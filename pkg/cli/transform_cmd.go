package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newTransformsCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "transforms",
		Short: "List the built-in transformations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := client.Do(http.MethodGet, "/api/v1/transforms", nil, "")
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
				return err
			}
			var recipes []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			if err := decodeBody(resp, &recipes); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, recipes)
			}
			for _, r := range recipes {
				fmt.Printf("%-20s %s\n", r.Name, r.Description)
			}
			return nil
		},
	}
}

func newTransformCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "transform <session-id> <name>",
		Short: "Apply a built-in transformation to the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.DoJSON(http.MethodPost,
				"/api/v1/sessions/"+args[0]+"/transforms/"+args[1], nil)
			if err != nil {
				return err
			}
			if err := CheckError(resp); err != nil {
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
}
