package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/omochice/toy-peer-chat/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().StringP("host", "H", "", "host the client dials")
	configInitCmd.Flags().IntP("port", "p", 9000, "port to listen on or dial")
	configInitCmd.Flags().StringP("username", "u", "", "your display name")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file from the defaults and the given flags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgPath == "" {
			return errors.New("no config path, pass --config")
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(cfgPath); err == nil && !force {
			return fmt.Errorf("%s already exists, pass --force to overwrite", cfgPath)
		}

		initial := config.Default()
		overlayFlags(initial, cmd.Flags())
		if err := initial.Validate(); err != nil {
			return err
		}

		if err := config.Save(cfgPath, initial); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved to", cfgPath)
		return nil
	},
}

// overlayFlags copies every explicitly set flag onto c. Flags the command
// does not define are skipped.
func overlayFlags(c *config.Config, flags *pflag.FlagSet) {
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	if changed("host") {
		c.Host, _ = flags.GetString("host")
	}
	if changed("port") {
		c.Port, _ = flags.GetInt("port")
	}
	if changed("username") {
		c.Username, _ = flags.GetString("username")
	}
	if changed("transport") {
		c.Transport, _ = flags.GetString("transport")
	}
	if changed("room") {
		c.DefaultRoom, _ = flags.GetString("room")
	}
	if changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
}
