package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/crmterm/internal/logging"
	"github.com/nhle/crmterm/internal/notify"
)

func newWatchCommand(g *globals) *cobra.Command {
	var (
		desktop bool
		noSound bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print new bids as they arrive, without the full-screen UI",
		Example: `  # Follow new bids with desktop notifications
  crmterm watch --desktop

  # Quiet mode for a shared terminal
  crmterm watch --no-sound`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			log, closer, err := logging.New(logging.Config{Level: cfg.Logging.Level, Console: true})
			if err != nil {
				return err
			}
			defer closeQuietly(closer)

			sound := cfg.Notifications.Sound && !noSound
			sess, err := newSession(cfg, log, sound, desktop || cfg.Notifications.Desktop)
			if err != nil {
				return err
			}
			defer sess.presenter.Close()

			return watch(cmd.Context(), sess, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&desktop, "desktop", false, "also raise desktop notifications")
	cmd.Flags().BoolVar(&noSound, "no-sound", false, "disable the audible cue")
	return cmd
}

// watch runs the notification channel and prints every toast and state
// change until ctx is cancelled.
func watch(ctx context.Context, sess *session, out io.Writer) error {
	ch := sess.newChannel(sess.cfg.WSURL(), sess.client)
	states := ch.Subscribe()
	toasts := notify.ToastEvents(sess.presenter)

	fmt.Fprintf(out, "Watching %s for new bids. Press Ctrl+C to stop.\n", sess.cfg.WSURL())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ch.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case s := <-states:
				fmt.Fprintf(out, "%s  connection %s\n", time.Now().Format(time.TimeOnly), s)
			case <-toasts:
				if t, ok := sess.presenter.Current(); ok {
					fmt.Fprintf(out, "%s  %s: %s\n", t.ShownAt.Format(time.TimeOnly), notify.Header, t)
				}
			}
		}
	})
	return g.Wait()
}
