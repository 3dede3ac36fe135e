package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"focusflow/internal/app"
	"focusflow/internal/config"
)

var version = "dev"

// cli carries state shared by all subcommands of one invocation.
type cli struct {
	cfgFile string
	viper   *viper.Viper
	cfg     config.ClientConfig
	app     *app.App
}

func main() {
	c := &cli{viper: viper.New()}
	if err := c.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "focusflow",
		Short:         "Focus sessions against your task list, offline first",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.cfgFile, "config", "c", "",
		"config file (default: ./.focusflow/config.yaml or ~/.config/focusflow/config.yaml)")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.tasksCmd(),
		c.addCmd(),
		c.clearCmd(),
		c.focusCmd(),
		c.settingsCmd(),
		c.statsCmd(),
		c.ranksCmd(),
		c.configCmd(),
	)
	return root
}

// withApp loads the configuration and opens the app around run.
func (c *cli) withApp(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient(c.viper, c.cfgFile)
		if err != nil {
			return err
		}
		c.cfg = cfg

		a, err := app.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		c.app = a
		defer a.Close(context.WithoutCancel(cmd.Context()))

		return run(cmd, args)
	}
}

// session returns the stored login, failing when there is none.
func (c *cli) session(ctx context.Context) (app.Session, error) {
	return c.app.Session(ctx)
}
