// Package main is the entry point for the todoctl CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"todoctl/internal/backend/restapi"
	"todoctl/internal/cli"
	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/service"
	"todoctl/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := restapi.NewMetrics()
	var metricsFile string

	factory := func(ctx context.Context, cfg *config.Config, store *session.Store, log *logrus.Logger) (service.Service, error) {
		metricsFile = cfg.MetricsFile
		return restapi.New(restapi.Options{
			BaseURL:   cfg.APIURL,
			Session:   store,
			Logger:    log,
			Metrics:   metrics,
			RateLimit: cfg.RateLimit,
		})
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	dispatcher.In = os.Stdin

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	if metricsFile != "" {
		if err := metrics.WriteFile(metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to write metrics: %v\n", err)
		}
	}
	stop()
	os.Exit(code)
}
