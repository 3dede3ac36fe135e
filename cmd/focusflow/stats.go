package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"focusflow/internal/model"
)

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show focus time for today and the last seven days",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := c.app.Remote.Stats(cmd.Context(), sess.UserID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s in %d sessions\n\n",
				titleStyle.Render("today"),
				formatDuration(summary.Today.TotalFocusTime),
				summary.Today.FocusSessions)

			rows := make([][]string, 0, len(summary.Weekly))
			for _, day := range summary.Weekly {
				rows = append(rows, []string{
					day.Day,
					formatDuration(day.TotalFocusTime),
					strconv.Itoa(day.FocusSessions),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"day", "focus", "sessions"}, rows))
			return nil
		}),
	}
}

func (c *cli) ranksCmd() *cobra.Command {
	var (
		weekly bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "ranks",
		Short: "Show the focus leaderboard",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().BoolVarP(&weekly, "weekly", "w", false, "rank the last seven days instead of today")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (server default when 0)")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		period := model.RankPeriodDaily
		if weekly {
			period = model.RankPeriodWeekly
		}
		ranks, err := c.app.Remote.Ranks(cmd.Context(), period, limit)
		if err != nil {
			return err
		}
		if len(ranks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("nobody has focused yet"))
			return nil
		}

		rows := make([][]string, 0, len(ranks))
		for _, r := range ranks {
			rows = append(rows, []string{
				strconv.Itoa(r.Rank),
				r.Username,
				formatDuration(r.TotalFocusTime),
				strconv.Itoa(r.FocusSessions),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "user", "focus", "sessions"}, rows))
		return nil
	})
	return cmd
}
