package cli

import (
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bengeek06/waterfall-e2e/internal/seed"
	"github.com/bengeek06/waterfall-e2e/internal/session"
)

var (
	seedProfilePath string
	seedUserCount   int
	seedCleanup     bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the deployment with a realistic organization",
	Long:  "seed creates an organization-unit tree with positions and users through the identity API. With --cleanup everything is deleted again at the end, which makes the command a write-path smoke test.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireTarget(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		profile := seed.DefaultProfile()
		if seedProfilePath != "" {
			var err error
			if profile, err = seed.LoadProfile(seedProfilePath); err != nil {
				return err
			}
		}
		if seedUserCount > 0 {
			profile.Users = seedUserCount
		}

		ctx := cmd.Context()
		sess, err := session.Open(ctx, cfg, log)
		if err != nil {
			return err
		}

		gen := seed.NewGenerator(sess.Client, sess.User.CompanyID, log)
		if seedCleanup {
			defer gen.Cleanup(ctx)
		}

		spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
			spinner.WithWriter(cmd.ErrOrStderr()))
		spin.Suffix = " generating organization ..."
		spin.Start()

		err = gen.GenerateOrganization(ctx, profile)
		if err == nil && profile.Users > 0 {
			spin.Suffix = " generating users ..."
			err = gen.GenerateUsers(ctx, profile.Users)
		}
		spin.Stop()
		if err != nil {
			return err
		}

		result := gen.Result()
		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Resource", "Created"})
		tw.AppendRows([]table.Row{
			{"organization units", len(result.Units)},
			{"positions", len(result.Positions)},
			{"users", len(result.Users)},
		})
		tw.Render()
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedProfilePath, "profile", "",
		"YAML profile controlling shape and volume (defaults to the built-in organization)")
	seedCmd.Flags().IntVar(&seedUserCount, "users", 0,
		"override the number of users to create")
	seedCmd.Flags().BoolVar(&seedCleanup, "cleanup", false,
		"delete everything that was created before exiting")
}
