package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bengeek06/waterfall-e2e/internal/session"
)

var requestData string

var requestCmd = &cobra.Command{
	Use:   "request METHOD PATH",
	Short: "Send one authenticated request to the deployment",
	Example: `  e2ectl request GET /api/identity/users
  e2ectl request POST /api/guardian/roles --data '{"name":"ops"}'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireTarget(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		method := strings.ToUpper(args[0])
		path := args[1]

		ctx := cmd.Context()
		sess, err := session.Open(ctx, cfg, log)
		if err != nil {
			return err
		}

		var body any
		if requestData != "" {
			if err := json.Unmarshal([]byte(requestData), &body); err != nil {
				return fmt.Errorf("--data is not valid JSON: %w", err)
			}
		}

		resp, err := sess.Client.DoJSON(ctx, method, path, nil, body)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "HTTP %d\n", resp.Status)
		if len(resp.Body) == 0 {
			return nil
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, resp.Body, "", "  "); err != nil {
			// Not JSON, print as-is.
			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
		return nil
	},
}

func init() {
	requestCmd.Flags().StringVar(&requestData, "data", "", "JSON request body")
}
