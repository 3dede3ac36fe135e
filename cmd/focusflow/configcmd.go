package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"focusflow/internal/config"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client configuration file",
	}
	cmd.AddCommand(c.configInitCmd(), c.configShowCmd())
	return cmd
}

func (c *cli) configInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultClientPath()
			}
			if err := config.WriteDefaultClient(path, config.DefaultClient(), force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote "+path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "destination (default: ~/.config/focusflow/config.yaml)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func (c *cli) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient(c.viper, c.cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := c.viper.ConfigFileUsed()
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintln(out, subtleStyle.Render("source: "+source))
			rows := [][]string{
				{"api_url", cfg.APIURL},
				{"data_dir", cfg.DataDir},
				{"log_level", cfg.LogLevel},
				{"log_file", cfg.LogFile},
				{"drain_timeout", cfg.DrainTimeout.String()},
			}
			fmt.Fprintln(out, renderTable([]string{"key", "value"}, rows))
			fmt.Fprintln(out, renderSettings(cfg.Timer.CycleConfig()))
			return nil
		},
	}
}
