package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rickchristie/refine/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(f *flags) *cobra.Command {
	var lines bool
	cmd := &cobra.Command{
		Use:   "run <subject>",
		Short: "Run one session and stream it to stdout",
		Long: `Run one refinement session on the subject and stream every event to stdout.
With --lines each event is printed as "<source>\t<round>\t<payload>" with the payload
escaped, which is convenient for piping into other tools.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runOnce(ctx, strings.Join(args, " "), lines)
		},
	}
	cmd.Flags().BoolVar(&lines, "lines", false, "print one escaped line per event")
	return cmd
}

// runOnce streams one session and prints the final draft.
func (a *app) runOnce(ctx context.Context, subject string, lines bool) error {
	h, err := a.manager.Start(subject, a.config.Refine)
	if err != nil {
		return err
	}
	stream, err := a.manager.Open(ctx, h.ID)
	if err != nil {
		return err
	}
	defer stream.Close()

	out := a.out
	if err := newPrinter(out, lines).drain(ctx, stream); err != nil {
		return err
	}
	result, err := stream.Result()
	if err != nil {
		return err
	}
	a.logger.Info("session finished",
		zap.String("session", h.ID),
		zap.String("reason", string(result.Reason)),
		zap.Int("rounds", result.Rounds),
	)
	if lines {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Final draft (%s after %d rounds)", result.Reason, result.Rounds)))
	fmt.Fprint(out, render.Markdown(result.Draft))
	return nil
}
