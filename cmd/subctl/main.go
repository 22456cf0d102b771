// subctl is the operator CLI: broadcast enable/disable directives on the
// control topic, send demo transactions into the ingress topic, and read the
// binding status of every managed function.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/hatsunemiku3939/sqsbreaker"
	"github.com/hatsunemiku3939/sqsbreaker/binding"
	"github.com/hatsunemiku3939/sqsbreaker/config"
	"github.com/hatsunemiku3939/sqsbreaker/manager"
	"github.com/hatsunemiku3939/sqsbreaker/notify"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	action := flag.String("action", "", "enable | disable | status | send")
	scope := flag.String("scope", "", "Comma-separated function names (empty = all)")
	reason := flag.String("reason", "manual control", "Reason recorded on the directive")
	operator := flag.String("operator", os.Getenv("USER"), "Operator recorded on the directive")
	txType := flag.String("type", sqsbreaker.TxTypeBankAccountSetup, "Transaction type for -action send")
	customer := flag.String("customer", "", "Customer id (group key) for -action send")
	payload := flag.String("payload", "{}", "Transaction payload JSON for -action send")
	flag.Parse()

	_ = godotenv.Load()

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.RFC3339}))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	switch *action {
	case "enable", "disable":
		directive := sqsbreaker.Directive{
			Action:   sqsbreaker.DirectiveAction(*action),
			Reason:   *reason,
			Operator: *operator,
			IssuedAt: time.Now().UTC(),
		}
		if *scope != "" {
			directive.Scope = strings.Split(*scope, ",")
		}
		publisher := notify.New(sns.NewFromConfig(awsCfg), cfg.Control.TopicARN, log)
		if err := publisher.PublishDirective(ctx, directive); err != nil {
			log.Error("failed to publish directive", "error", err)
			os.Exit(1)
		}

	case "status":
		registry, err := cfg.Registry()
		if err != nil {
			log.Error("invalid function registry", "error", err)
			os.Exit(1)
		}
		controller := binding.NewController(lambda.NewFromConfig(awsCfg), log)
		summary := manager.New(registry, controller, log).Status(ctx)
		for _, fn := range summary.Functions {
			fmt.Printf("%-50s %-10s %s\n", fn.FunctionName, fn.State, fn.BindingID)
		}
		fmt.Printf("enabled=%d disabled=%d unknown=%d\n", summary.Enabled, summary.Disabled, summary.Unknown)

	case "send":
		if *customer == "" {
			log.Error("-customer is required for -action send")
			os.Exit(1)
		}
		env := sqsbreaker.TransactionEnvelope{
			SchemaVersion:   "1.0",
			TransactionType: *txType,
			Message:         json.RawMessage(*payload),
			Metadata: sqsbreaker.TransactionMetadata{
				CustomerID: *customer,
				Source:     "subctl",
			},
		}
		publisher := notify.New(sns.NewFromConfig(awsCfg), cfg.Ingress.TopicARN, log)
		id, err := publisher.PublishTransaction(ctx, env)
		if err != nil {
			log.Error("failed to publish transaction", "error", err)
			os.Exit(1)
		}
		fmt.Println(id)

	default:
		fmt.Fprintln(os.Stderr, "usage: subctl -action enable|disable|status|send [flags]")
		os.Exit(2)
	}
}
