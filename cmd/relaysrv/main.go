package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wtask/relay/internal/config"
	"github.com/wtask/relay/internal/logging"
	"github.com/wtask/relay/internal/relay"
	"github.com/wtask/relay/internal/relay/history"
	"github.com/wtask/relay/internal/relay/wsconn"
)

func main() {
	cfg, ok, err := configure(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, err)
		os.Exit(1)
	}
	if !ok {
		return
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, logging.Format(cfg.Log.Format)).
		With().Str("app", BinaryName).Str("version", Version).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("relay server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	logger.Info().Interface("config", cfg).Msg("starting")

	opts := []relay.Option{
		relay.WithLogger(logger),
		relay.WithEcho(cfg.Echo),
		relay.WithWriteTimeout(cfg.WriteTimeout),
	}
	if cfg.History > 0 {
		ring, err := history.NewRing(cfg.History)
		if err != nil {
			return err
		}
		opts = append(opts, relay.WithHistory(ring, cfg.History))
	}
	server, err := relay.NewServer(opts...)
	if err != nil {
		return fmt.Errorf("can't create relay server: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		server.Shutdown(0)
		return fmt.Errorf("unable to listen TCP: %w", err)
	}

	var web *http.Server
	if cfg.WebSocket != "" {
		web = &http.Server{
			Addr: cfg.WebSocket,
			Handler: wsconn.Handler(server,
				wsconn.WithLogger(logger),
				wsconn.WithWriteTimeout(cfg.WriteTimeout),
			),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(listener)
	})
	if web != nil {
		g.Go(func() error {
			logger.Info().Str("address", web.Addr).Msg("websocket endpoint")
			if err := web.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("got stop signal")
		notify(logger, daemon.SdNotifyStopping)
		if web != nil {
			// hijacked websocket connections are left to server.Shutdown
			web.Close()
		}
		took := server.Shutdown(cfg.ShutdownTimeout)
		logger.Info().Dur("took", took).Msg("relay server stopped, bye")
		return nil
	})

	notify(logger, daemon.SdNotifyReady)
	logger.Info().Str("address", listener.Addr().String()).Msg("relay server has started")

	return g.Wait()
}

// notify - reports service state to systemd, no-op outside of systemd unit.
func notify(logger zerolog.Logger, state string) {
	if sent, err := daemon.SdNotify(false, state); err != nil {
		logger.Warn().Err(err).Str("state", state).Msg("systemd notification failed")
	} else if sent {
		logger.Debug().Str("state", state).Msg("systemd notified")
	}
}
