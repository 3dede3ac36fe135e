package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusflow/internal/archive"
	"focusflow/internal/log"
	"focusflow/internal/model"
)

const taskFetchTimeout = 10 * time.Second

func (c *cli) tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List today's completed tasks and the active ones",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sess, err := c.session(ctx)
			if err != nil {
				return err
			}
			if _, err := c.app.Archive.ApplyDailyReset(ctx); err != nil {
				return err
			}

			return printTasks(ctx, cmd.OutOrStdout(), c.app.Archive, c.app.Remote, sess.UserID, taskFetchTimeout)
		}),
	}
}

type taskLister interface {
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
}

// printTasks writes the archived tasks before the remote fetch starts, then the
// merged view once it returns within timeout.
func printTasks(ctx context.Context, out io.Writer, arch *archive.Manager, remote taskLister, userID string, timeout time.Duration) error {
	shown, err := arch.Load(ctx, userID)
	if err != nil {
		return err
	}
	if len(shown) > 0 {
		fmt.Fprintln(out, subtleStyle.Render("completed today"))
		fmt.Fprintln(out, renderTasks(shown))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	active, err := remote.ListTasks(fetchCtx, userID)
	if err != nil {
		log.Warn(log.CatRemote, "list tasks failed", "error", err)
		fmt.Fprintln(out, noticeStyle.Render("offline: showing local tasks only"))
		if len(shown) == 0 {
			fmt.Fprintln(out, renderTasks(shown))
		}
		return nil
	}

	if len(shown) > 0 {
		fmt.Fprintln(out, subtleStyle.Render("all tasks"))
	}
	fmt.Fprintln(out, renderTasks(archive.Merge(shown, active)))
	return nil
}

func (c *cli) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title>",
		Short: "Add an active task",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if _, err := c.session(cmd.Context()); err != nil {
				return err
			}
			task, err := c.app.Remote.CreateTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTask(task))
			return nil
		}),
	}
}

func (c *cli) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every active task; completed ones stay archived",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			sess, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.app.Remote.ClearTasks(cmd.Context(), sess.UserID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "active tasks cleared")
			return nil
		}),
	}
}
