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
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hatsunemiku3939/sqsbreaker"
	"github.com/hatsunemiku3939/sqsbreaker/binding"
	"github.com/hatsunemiku3939/sqsbreaker/config"
	"github.com/hatsunemiku3939/sqsbreaker/listener"
	"github.com/hatsunemiku3939/sqsbreaker/manager"
	"github.com/hatsunemiku3939/sqsbreaker/notify"
	"github.com/hatsunemiku3939/sqsbreaker/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	functionName := flag.String("function", "", "Name of the managed function this worker runs")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Best effort: local development convenience only.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Logging.Level, *isDebug)
	slog.SetDefault(log)

	registry, err := cfg.Registry()
	if err != nil {
		log.Error("invalid function registry", "error", err)
		os.Exit(1)
	}
	if *functionName == "" {
		log.Error("-function is required")
		os.Exit(1)
	}
	fn, err := registry.Lookup(*functionName)
	if err != nil {
		log.Error("unknown managed function", "function", *functionName, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	sqsClient := sqs.NewFromConfig(awsCfg)
	lambdaClient := lambda.NewFromConfig(awsCfg)
	controller := binding.NewController(lambdaClient, log)

	var opts []worker.ProcessorOption
	opts = append(opts, worker.WithLogger(log))
	if cfg.Ops.TopicARN != "" {
		snsClient := sns.NewFromConfig(awsCfg)
		opts = append(opts, worker.WithNotifier(notify.New(snsClient, cfg.Ops.TopicARN, log)))
	}

	processor, err := worker.NewProcessor(sqsClient, fn, handlerFor(fn), controller, opts...)
	if err != nil {
		log.Error("failed to build processor", "error", err)
		os.Exit(1)
	}

	// Distributed control variant: this worker applies directives for itself
	// only, and resumes its own pull loop on a self-enable.
	selfRegistry, err := sqsbreaker.NewRegistry(fn)
	if err != nil {
		log.Error("failed to build self registry", "error", err)
		os.Exit(1)
	}
	selfManager := manager.New(selfRegistry, controller, log)
	controlListener := listener.New(sqsClient, cfg.Control.QueueURL, selfManager,
		listener.WithLogger(log),
		listener.WithAfterApply(func(d sqsbreaker.Directive) {
			if d.Action == sqsbreaker.ActionEnable && d.Targets(fn.Name) {
				processor.Resume()
			}
		}),
	)

	go serveMetrics(cfg.Metrics.Port, log)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		controlListener.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, shutting down", "signal", sig)

	cancel()
	wg.Wait()
	log.Info("worker shut down gracefully")
}

// handlerFor picks the transaction handler for the function's declared type.
// The simulated dependencies stand in for the external validation/gateway
// services, which are outside this system's boundary.
func handlerFor(fn sqsbreaker.ManagedFunction) worker.TransactionHandler {
	switch fn.TransactionType {
	case sqsbreaker.TxTypePayment:
		return worker.NewPaymentHandler(worker.SimulatedPaymentGateway{})
	default:
		return worker.NewBankAccountHandler(worker.SimulatedBankVerifier{})
	}
}

func newLogger(level string, debug bool) *slog.Logger {
	slogLevel := slog.LevelInfo
	if debug || level == "debug" {
		slogLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	}))
}

func serveMetrics(port int, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics endpoint failed", "error", err)
	}
}
