package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"focusflow/internal/config"
	"focusflow/internal/engine"
	"focusflow/internal/log"
	"focusflow/internal/pubsub"
)

const focusHelp = "keys: p pause/resume  r reset  f finish  s <id> select  a <title> add  c clear  q quit"

func (c *cli) focusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus [task-id]",
		Short: "Run the focus timer interactively",
		Long: "Run the focus timer interactively. When a task id is given it is selected\n" +
			"and started as soon as the task list arrives from the server.\n\n" + focusHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			sess, err := c.session(cmd.Context())
			if err != nil {
				return err
			}
			eng, err := c.app.NewEngine()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			events := eng.Subscribe(ctx)
			runErr := make(chan error, 1)
			go func() { runErr <- eng.Run(ctx) }()

			if _, err := eng.Login(ctx, sess.UserID); err != nil {
				cancel()
				<-runErr
				return err
			}

			if path := c.viper.ConfigFileUsed(); path != "" {
				go c.watchSettings(ctx, eng, path)
			}

			s := &focusSession{eng: eng, out: cmd.OutOrStdout()}
			if len(args) == 1 {
				s.autostart = args[0]
			}
			fmt.Fprintln(s.out, subtleStyle.Render(focusHelp))

			err = s.run(ctx, events, readLines(ctx, cmd.InOrStdin()))
			cancel()
			if stopErr := <-runErr; stopErr != nil && err == nil {
				err = stopErr
			}
			return err
		}),
	}
}

// watchSettings rebinds the timer whenever the config file changes on disk.
func (c *cli) watchSettings(ctx context.Context, eng *engine.Engine, path string) {
	err := config.Watch(ctx, path, config.DefaultWatchDebounce, func() {
		cfg, err := config.Reload(c.viper)
		if err != nil {
			log.ErrorErr(log.CatConfig, "reload config", err)
			return
		}
		if err := eng.UpdateSettings(ctx, cfg.Timer.CycleConfig()); err != nil {
			log.Warn(log.CatConfig, "config change rejected", "error", err)
		}
	})
	if err != nil {
		log.ErrorErr(log.CatConfig, "watch config", err, "path", path)
	}
}

type focusSession struct {
	eng       *engine.Engine
	out       io.Writer
	autostart string
	last      string
}

func (s *focusSession) run(ctx context.Context, events <-chan pubsub.Event[engine.Snapshot], lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.show(ctx, ev); err != nil {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := s.command(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (s *focusSession) show(ctx context.Context, ev pubsub.Event[engine.Snapshot]) error {
	snap := ev.Payload
	if ev.Type == pubsub.NoticeEvent && snap.Notice != "" {
		fmt.Fprintln(s.out, noticeStyle.Render(snap.Notice))
	}

	if s.autostart != "" {
		for _, task := range snap.Tasks {
			if task.ID != s.autostart {
				continue
			}
			s.autostart = ""
			if _, err := s.eng.Focus(ctx, task.ID); err != nil {
				return err
			}
			if !snap.Timer.Running {
				if _, err := s.eng.Toggle(ctx); err != nil {
					return err
				}
			}
			break
		}
	}

	line := renderTimer(snap)
	if snap.PendingRemote > 0 {
		line += subtleStyle.Render(fmt.Sprintf("  (%d syncing)", snap.PendingRemote))
	}
	if line != s.last {
		fmt.Fprintln(s.out, line)
		s.last = line
	}
	return nil
}

// command applies one line of keyboard input and reports whether to quit.
func (s *focusSession) command(ctx context.Context, line string) (bool, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	var err error
	switch verb {
	case "":
		return false, nil
	case "q", "quit":
		return true, nil
	case "p", "pause", "resume":
		_, err = s.eng.Toggle(ctx)
	case "r", "reset":
		err = s.eng.Reset(ctx)
	case "f", "finish":
		err = s.eng.Finish(ctx)
	case "s", "select":
		var changed bool
		if changed, err = s.eng.Focus(ctx, arg); err == nil && !changed {
			fmt.Fprintln(s.out, subtleStyle.Render("no such task or already selected: "+arg))
		}
	case "a", "add":
		var queued bool
		if queued, err = s.eng.AddTask(ctx, arg); err == nil && !queued {
			fmt.Fprintln(s.out, subtleStyle.Render("task title required"))
		}
	case "c", "clear":
		_, err = s.eng.ClearTasks(ctx)
	case "t", "tasks":
		var snap engine.Snapshot
		if snap, err = s.eng.Snapshot(ctx); err == nil {
			fmt.Fprintln(s.out, renderTasks(snap.Tasks))
		}
	default:
		fmt.Fprintln(s.out, subtleStyle.Render(focusHelp))
	}
	return false, err
}

// readLines forwards lines of r until EOF. The reader goroutine may outlive
// ctx while blocked on a read.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
