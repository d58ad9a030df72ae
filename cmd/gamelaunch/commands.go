package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"gamelaunch/internal/app"
	"gamelaunch/internal/httpapi"
	"gamelaunch/internal/launcher"
	"gamelaunch/pkg/types"
)

func newLaunchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "launch <version>",
		Short:   "Verify dependencies and start a version, streaming its output",
		Example: "  gamelaunch launch 1.20.1 --player Steve",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, log, err := opts.service(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			version := args[0]
			events, cancel := svc.Subscribe(version)
			defer cancel()
			if _, err := svc.Launch(ctx, types.LaunchRequest{Version: version}); err != nil {
				return err
			}
			log.Info().Str("version", version).Msg("launch started")
			return followLaunch(ctx, cmd, svc, version, events)
		},
	}
}

// followLaunch prints the task's events until it is idle with no process.
// Interrupting stops the game and keeps waiting for its exit.
func followLaunch(ctx context.Context, cmd *cobra.Command, svc *app.Service, version string, events <-chan launcher.Event) error {
	task := svc.Supervisor().Task(version)
	out := cmd.OutOrStdout()
	var lastErr string
	interrupted := ctx.Done()
	for {
		select {
		case <-interrupted:
			interrupted = nil
			fmt.Fprintln(cmd.ErrOrStderr(), "stopping game...")
			go func() { _ = svc.Stop(version) }()
		case e, ok := <-events:
			if !ok {
				return errors.New("event stream closed")
			}
			switch e.Name {
			case launcher.EventLog:
				fmt.Fprintln(out, e.Fields["line"])
			case launcher.EventStatus:
				state, _ := e.Fields["state"].(string)
				text, _ := e.Fields["text"].(string)
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", state, text)
				if state == string(launcher.StateError) {
					lastErr = text
				}
				if state == string(launcher.StateIdle) && !task.Alive() {
					return launchResult(lastErr)
				}
			case launcher.EventExit:
				if task.Status().State == launcher.StateIdle {
					return launchResult(lastErr)
				}
			}
		}
	}
}

func launchResult(lastErr string) error {
	if lastErr != "" {
		return errors.New(lastErr)
	}
	return nil
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <version>",
		Short: "Download and verify every dependency of a version without launching",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.service(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errOut := cmd.ErrOrStderr()
			progress := func(phase string, done, total int) {
				if done == total || done%100 == 0 {
					fmt.Fprintf(errOut, "%s: %d/%d\n", phase, done, total)
				}
			}
			if err := svc.Verify(ctx, args[0], progress); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: all dependencies verified\n", args[0])
			return nil
		},
	}
}

func newArgsCmd(opts *rootOptions) *cobra.Command {
	var oneLine bool
	c := &cobra.Command{
		Use:   "args <version>",
		Short: "Print the java command line for a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.service(cmd)
			if err != nil {
				return err
			}
			built, err := svc.Command(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			argv := append([]string{svc.Config().JavaPath}, built.Argv()...)
			if oneLine {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(argv, " "))
				return nil
			}
			for _, a := range argv {
				fmt.Fprintln(cmd.OutOrStdout(), a)
			}
			return nil
		},
	}
	c.Flags().BoolVar(&oneLine, "one-line", false, "Print the command on a single line")
	return c
}

func newVersionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List installed versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := opts.service(cmd)
			if err != nil {
				return err
			}
			vs, err := svc.Versions()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tINHERITS")
			for _, v := range vs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", v.ID, v.Type, v.InheritsFrom)
			}
			return tw.Flush()
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr, corsOrigins string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the launcher HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, log, err := opts.service(cmd)
			if err != nil {
				return err
			}
			cfg := svc.Config()
			if addr == "" {
				addr = cfg.Addr
			}
			origins := cfg.CORSOrigins
			if corsOrigins != "" {
				origins = splitCSV(corsOrigins)
			}
			httpapi.SetLogger(log)
			httpapi.SetCORSOptions(cfg.CORSEnabled || len(origins) > 0, origins, nil, nil)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			httpapi.SetBaseContext(ctx)
			srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(svc), ReadHeaderTimeout: 10 * time.Second}

			if rep := svc.Supervisor().SanityCheck(); !rep.JavaFound {
				log.Warn().Str("java", rep.JavaPath).Str("error", rep.Error).Msg("java executable not found; launches will fail")
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Str("root", cfg.RootDir).Msg("gamelaunch listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutCtx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	c.Flags().StringVar(&addr, "addr", envStr("GAMELAUNCH_ADDR", ""), "HTTP listen address, e.g. :8787")
	c.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	return c
}
