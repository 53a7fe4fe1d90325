package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/omochice/toy-peer-chat/internal/console"
	"github.com/omochice/toy-peer-chat/internal/peer"
)

// applyConnectionFlags fills in the subcommand's username default when
// neither a flag nor the config named one, then validates the result.
// Explicit flags were already applied before the command ran.
func applyConnectionFlags(cmd *cobra.Command) error {
	if cfg.Username == "" {
		cfg.Username, _ = cmd.Flags().GetString("username")
	}
	return cfg.Validate()
}

func sessionOptions() []peer.Option {
	return []peer.Option{
		peer.WithQueueCapacity(cfg.QueueCapacity),
		peer.WithLogger(slog.Default()),
	}
}

// runChat joins the default room and hands the session to the interactive
// loop until the operator quits or the peer goes away.
func runChat(cmd *cobra.Command, session *peer.Session) error {
	defer session.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Connected to %s. Commands: /join <room>, /leave, /quit\n", session.RemoteAddr())

	if err := session.JoinRoom(ctx, cfg.DefaultRoom); err != nil {
		return fmt.Errorf("join %s: %w", cfg.DefaultRoom, err)
	}

	loop := console.New(session,
		console.WithInput(cmd.InOrStdin()),
		console.WithOutput(out),
		console.WithDefaultRoom(cfg.DefaultRoom),
		console.WithPollInterval(cfg.PollInterval()),
		console.WithLogger(slog.Default()),
	)

	err := loop.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, console.ErrDisconnected):
		slog.Info("session ended", "error", err)
		return nil
	default:
		return err
	}
}
