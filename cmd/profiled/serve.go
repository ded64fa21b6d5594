package main

import (
	"context"
	"easyprofile/internal/api"
	"easyprofile/internal/backends"
	"easyprofile/internal/backends/file"
	"easyprofile/internal/metrics"
	"easyprofile/internal/profile"
	"easyprofile/internal/pub"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flushInterval time.Duration

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Load the profile and serve it over HTTP until interrupted",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().DurationVar(&flushInterval, "flush-interval", 30*time.Second,
		"how often dirty categories are written to the store (0 disables periodic flushes)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	p, err := profile.New(categories(), profile.WithHook(profile.Hooks{
		profile.LogHook{Logger: log.StandardLogger()},
		m,
	}))
	if err != nil {
		return err
	}
	if err := p.Subscribe(m.Listener()); err != nil {
		return err
	}
	if cfg.SNSTopicARN != "" {
		snsClient, err := backends.SNSClient(ctx, cfg)
		if err != nil {
			return err
		}
		fw := pub.NewForwarder(pub.NewSNS(snsClient), cfg.SNSTopicARN, cfg.ProfileID)
		if err := p.Subscribe(fw.Listener()); err != nil {
			return err
		}
	}

	svc := api.NewService(p, store, cfg.ProfileID)
	svc.OnFlush = m.ObserveFlush
	if _, err := svc.Reload(ctx); err != nil {
		return err
	}

	if fs, ok := store.(*file.ProfileStore); ok && cfg.WatchFile {
		go func() {
			err := fs.Watch(ctx, func() {
				if _, err := svc.Reload(ctx); err != nil {
					log.WithError(err).Warn("failed to reload profile file")
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("profile file watcher stopped")
			}
		}()
	}

	if flushInterval > 0 {
		go flushLoop(ctx, svc, flushInterval)
	}

	stopSrv, done := api.RunServerInterruptible(cfg.HTTPPort, api.NewHandler(svc, m.Handler()))
	select {
	case err = <-done:
	case <-ctx.Done():
		close(stopSrv)
		err = <-done
	}

	// final flush on a fresh context; ctx is already cancelled
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, ferr := svc.Flush(flushCtx); ferr != nil {
		log.WithError(ferr).Error("final flush failed")
	}
	return err
}

func flushLoop(ctx context.Context, svc *api.Service, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := svc.Flush(ctx); err != nil {
				log.WithError(err).Warn("periodic flush failed")
			}
		}
	}
}
