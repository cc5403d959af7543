package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/davidgrier/inkwell/internal/server"
	"github.com/davidgrier/inkwell/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog API over HTTP",
		Long: `Starts the HTTP API, building the snapshot on the first request if
needed. Unless --no-watch is given, the content directory is watched and
the snapshot is rebuilt automatically when documents change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Warm the snapshot up front so the first request is fast and
			// configuration problems surface at startup.
			if _, err := a.orch.Ensure(ctx); err != nil {
				return err
			}

			if a.cfg.Watch.Enabled && !noWatch {
				w, err := watcher.New(func(ctx context.Context) error {
					_, err := a.svc.RebuildCache(ctx)
					return err
				}, watcher.Options{
					Debounce:   a.cfg.Watch.Debounce,
					Extensions: a.cfg.Content.Extensions,
				}, a.log)
				if err != nil {
					return err
				}
				defer func() { _ = w.Stop() }()
				go func() {
					if err := w.Start(ctx, a.cfg.Content.Root); err != nil && ctx.Err() == nil {
						a.log.Error("watcher stopped", slog.String("error", err.Error()))
					}
				}()
			}

			srv := server.New(a.svc, a.store.FeedPath(), a.log)
			return srv.ListenAndServe(ctx, a.cfg.Server.Host, a.cfg.Server.Port)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the content directory watcher")
	return cmd
}
