package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omochice/toy-peer-chat/internal/peer"
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", 9000, "port to listen on")
	serverCmd.Flags().StringP("username", "u", "server", "your display name")
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Listen for a single incoming connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyConnectionFlags(cmd); err != nil {
			return err
		}
		transport, err := peer.ParseTransport(cfg.Transport)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Starting server on port %d as '%s', waiting for a peer...\n", cfg.Port, cfg.Username)

		session, err := peer.Listen(cmd.Context(), transport, cfg.ListenAddr(), cfg.Username, sessionOptions()...)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return runChat(cmd, session)
	},
}
