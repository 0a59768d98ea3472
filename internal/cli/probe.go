package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bengeek06/waterfall-e2e/internal/client"
)

// platformServices lists every service exposed behind the gateway.
var platformServices = []string{
	"auth", "identity", "guardian", "storage", "basic-io", "project",
}

type probeResult struct {
	Service string
	Code    int
	Status  string
	Latency time.Duration
	Err     error
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the health endpoint of every platform service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireTarget(); err != nil {
			return err
		}
		c, err := client.New(cfg.WebURL, cfg.HTTPTimeout, log)
		if err != nil {
			return err
		}

		spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
			spinner.WithWriter(cmd.ErrOrStderr()))
		spin.Suffix = fmt.Sprintf(" probing %s ...", cfg.WebURL)
		spin.Start()

		results := make([]probeResult, len(platformServices))
		eg, ctx := errgroup.WithContext(cmd.Context())
		for i, svc := range platformServices {
			i, svc := i, svc
			eg.Go(func() error {
				start := time.Now()
				resp, err := c.Get(ctx, "/api/"+svc+"/health", nil)
				r := probeResult{Service: svc, Latency: time.Since(start), Err: err}
				if err == nil {
					r.Code = resp.Status
					var health struct {
						Status string `json:"status"`
					}
					if jsonErr := json.Unmarshal(resp.Body, &health); jsonErr == nil {
						r.Status = health.Status
					}
				}
				results[i] = r
				return nil
			})
		}
		_ = eg.Wait()
		spin.Stop()

		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Service", "HTTP", "Status", "Latency"})

		healthy := 0
		for _, r := range results {
			status := r.Status
			switch {
			case r.Err != nil:
				status = text.FgRed.Sprint("unreachable")
			case r.Status == "healthy":
				status = text.FgGreen.Sprint(r.Status)
				healthy++
			default:
				status = text.FgYellow.Sprint(status)
			}
			httpCol := "-"
			if r.Err == nil {
				httpCol = fmt.Sprintf("%d", r.Code)
			}
			tw.AppendRow(table.Row{r.Service, httpCol, status, r.Latency.Round(time.Millisecond)})
		}
		tw.Render()

		if healthy != len(platformServices) {
			return fmt.Errorf("%d/%d services healthy", healthy, len(platformServices))
		}
		return nil
	},
}
