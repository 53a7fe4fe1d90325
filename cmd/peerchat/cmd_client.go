package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omochice/toy-peer-chat/internal/peer"
)

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().StringP("host", "H", "", "server host (IP or hostname)")
	clientCmd.Flags().IntP("port", "p", 9000, "server port")
	clientCmd.Flags().StringP("username", "u", "client", "your display name")
}

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Connect to a listening peer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConnectionFlags(cmd); err != nil {
			return err
		}
		if cfg.Host == "" {
			return fmt.Errorf("client requires --host or PEERCHAT_HOST")
		}
		transport, err := peer.ParseTransport(cfg.Transport)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Connecting to host %s on port %d as '%s'\n", cfg.Host, cfg.Port, cfg.Username)

		session, err := peer.Connect(cmd.Context(), transport, cfg.Addr(), cfg.Username, sessionOptions()...)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		return runChat(cmd, session)
	},
}
