package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/moviedb/internal/cli"
	httpserver "github.com/Clark-Hu/moviedb/internal/http"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "moviedb",
		Short: "Personal movie catalog",
		Long: `moviedb keeps a personal movie catalog. Without a subcommand it opens
the interactive menu; titles are looked up on OMDb when added.

Configuration comes from the environment and from .env / .env.local files
in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runMenu(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	root.AddCommand(newServeCmd(), newExportCmd(), newVersionCmd())
	return root
}

// withApp opens the application for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(context.Context, *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}()
	return fn(ctx, a)
}

// deadlineReader is implemented by inputs whose blocked reads can be
// interrupted, such as pipes and pollable terminals.
type deadlineReader interface {
	SetReadDeadline(t time.Time) error
}

// runMenu returns once ctx is cancelled. When in supports read deadlines the
// pending read is interrupted and the menu has stopped before the caller
// closes the store; otherwise the blocked read is abandoned and dies with
// the process.
func runMenu(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	done := make(chan error, 1)
	go func() {
		done <- cli.New(a.service, in, out, a.logger).Run(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		if d, ok := in.(deadlineReader); ok && d.SetReadDeadline(time.Now()) == nil {
			<-done
		}
		fmt.Fprintln(out)
		return nil
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Generate the static website into OUTPUT_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				path, err := a.service.Export(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Website was generated successfully: %s\n", path)
				return nil
			})
		},
	}
}

func newServeCmd() *cobra.Command {
	var (
		refresh  time.Duration
		noExport bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generated website and a JSON view of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !noExport {
					if _, err := a.service.Export(ctx); err != nil {
						return err
					}
				}
				return serve(ctx, a, refresh)
			})
		},
	}
	cmd.Flags().DurationVar(&refresh, "refresh", 0, "regenerate the website at this interval (0 disables)")
	cmd.Flags().BoolVar(&noExport, "no-export", false, "serve OUTPUT_DIR as is, without generating the website first")
	return cmd
}

func serve(ctx context.Context, a *app, refresh time.Duration) error {
	server := httpserver.New(a.cfg, a.store, a.service, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if refresh > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(refresh)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if _, err := a.service.Export(gctx); err != nil {
						a.logger.Warn().Err(err).Msg("website refresh failed")
					}
				}
			}
		})
	}
	return g.Wait()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "moviedb %s (%s)\n", version, commit)
		},
	}
}
