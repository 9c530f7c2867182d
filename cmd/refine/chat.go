package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a subject to start a session. Commands:
  /threshold N   set the rating that ends a session early
  /iters N       set the round budget
  /quit          leave
Ctrl-C stops the running session.`

func newChatCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive prompt, one session per subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := f.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			return a.chat(cmd.Context())
		},
	}
}

func (a *app) chat(ctx context.Context) error {
	rl, err := readline.New(headerStyle.Render("subject> "))
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), controlStyle.Render(chatHelp))
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/"):
			if err := a.command(line); err != nil {
				fmt.Fprintln(rl.Stdout(), errorStyle.Render(err.Error()))
			}
			continue
		}

		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = a.runOnce(runCtx, line, false)
		stop()
		if err != nil {
			fmt.Fprintln(rl.Stdout(), errorStyle.Render(err.Error()))
		}
	}
}

// command applies a /setting line to the session config.
func (a *app) command(line string) error {
	name, arg, _ := strings.Cut(line, " ")
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return fmt.Errorf("%s needs a number", name)
	}

	cfg := a.config.Refine
	switch name {
	case "/threshold":
		cfg = cfg.WithThreshold(n)
	case "/iters":
		cfg = cfg.WithMaxIters(n)
	default:
		return fmt.Errorf("unknown command %s", name)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.config.Refine = cfg
	return nil
}
