package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focusflow/internal/app"
	"focusflow/internal/log"
	"focusflow/internal/model"
)

type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")
}

func (f *credentialFlags) resolve(cmd *cobra.Command) (string, string, error) {
	if f.password != "" {
		return f.username, f.password, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return f.username, strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) registerCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
	}
	creds.bind(cmd)
	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		username, password, err := creds.resolve(cmd)
		if err != nil {
			return err
		}
		result, err := c.app.Remote.Register(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		return c.storeLogin(cmd, result)
	})
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var creds credentialFlags
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session on this device",
		Args:  cobra.NoArgs,
	}
	creds.bind(cmd)
	cmd.RunE = c.withApp(func(cmd *cobra.Command, _ []string) error {
		username, password, err := creds.resolve(cmd)
		if err != nil {
			return err
		}
		result, err := c.app.Remote.Login(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		return c.storeLogin(cmd, result)
	})
	return cmd
}

func (c *cli) storeLogin(cmd *cobra.Command, result *model.AuthResult) error {
	err := c.app.SaveSession(cmd.Context(), app.Session{
		UserID:   result.User.ID,
		Username: result.User.Username,
		Token:    result.Token,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "logged in as "+titleStyle.Render(result.User.Username))
	return nil
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it locally",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			if _, err := c.session(cmd.Context()); errors.Is(err, app.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			if err := c.app.Remote.Logout(cmd.Context()); err != nil {
				log.Warn(log.CatAuth, "remote logout failed", "error", err)
			}
			if err := c.app.ClearSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}),
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check the stored session against the server",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string) error {
			if _, err := c.session(cmd.Context()); err != nil {
				return err
			}
			user, err := c.app.Remote.Session(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render(user.Username), subtleStyle.Render(user.ID))
			return nil
		}),
	}
}
