package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the cycle settings stored for the logged-in user",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			cfg, err := c.app.Archive.Settings(cmd.Context(), sess.UserID, c.cfg.Timer.CycleConfig())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSettings(cfg))
			return nil
		}),
	}
	cmd.AddCommand(c.settingsSetCmd())
	return cmd
}

func (c *cli) settingsSetCmd() *cobra.Command {
	var (
		focus, shortBreak, longBreak time.Duration
		cycle                        int
	)
	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change cycle settings; omitted flags keep their value",
		Example: "  focusflow settings set --focus 25m --short-break 5m --cycle 4",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().DurationVar(&focus, "focus", 0, "focus session length")
	cmd.Flags().DurationVar(&shortBreak, "short-break", 0, "short break length")
	cmd.Flags().DurationVar(&longBreak, "long-break", 0, "long break length")
	cmd.Flags().IntVar(&cycle, "cycle", 0, "focus sessions per cycle")

	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		sess, err := c.session(ctx)
		if err != nil {
			return err
		}
		current, err := c.app.Archive.Settings(ctx, sess.UserID, c.cfg.Timer.CycleConfig())
		if err != nil {
			return err
		}

		next := current
		flags := cmd.Flags()
		if flags.Changed("focus") {
			next.FocusTime = int(focus / time.Second)
		}
		if flags.Changed("short-break") {
			next.ShortBreak = int(shortBreak / time.Second)
		}
		if flags.Changed("long-break") {
			next.LongBreak = int(longBreak / time.Second)
		}
		if flags.Changed("cycle") {
			next.SessionCycle = cycle
		}

		if err := c.app.Archive.SaveSettings(ctx, sess.UserID, next); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSettings(next))
		return nil
	})
	return cmd
}
