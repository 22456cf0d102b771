// The manager binary is the centralization variant of the control loop: one
// service owns the registry of managed functions and performs every binding
// operation on their behalf, so workers need no control-plane privileges.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hatsunemiku3939/sqsbreaker/binding"
	"github.com/hatsunemiku3939/sqsbreaker/config"
	"github.com/hatsunemiku3939/sqsbreaker/listener"
	"github.com/hatsunemiku3939/sqsbreaker/manager"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	statusEvery := flag.Duration("status-interval", 0, "Optional interval for periodic status reads (0 disables)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(log)

	registry, err := cfg.Registry()
	if err != nil {
		log.Error("invalid function registry", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	controller := binding.NewController(lambda.NewFromConfig(awsCfg), log)
	mgr := manager.New(registry, controller, log)
	controlListener := listener.New(sqs.NewFromConfig(awsCfg), cfg.Control.QueueURL, mgr,
		listener.WithLogger(log))

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
		log.Info("metrics endpoint listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics endpoint failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		controlListener.Start(ctx)
	}()

	if *statusEvery > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(*statusEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					summary := mgr.Status(ctx)
					log.Info("binding status",
						"enabled", summary.Enabled,
						"disabled", summary.Disabled,
						"unknown", summary.Unknown,
					)
				}
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, shutting down", "signal", sig)

	cancel()
	wg.Wait()
	log.Info("manager shut down gracefully")
}
