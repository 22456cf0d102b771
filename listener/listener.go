package listener

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/hatsunemiku3939/sqsbreaker"
)

const (
	maxMessages     = 5
	waitTimeSeconds = 10
	deleteTimeout   = 5 * time.Second
	applyTimeout    = 30 * time.Second
)

// SQSClient defines the interface for SQS operations needed by the Listener.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// DirectiveApplier applies a parsed directive to the managed functions it
// targets. Implementations must be idempotent: the broadcast channel is
// at-least-once and directives may arrive in any order.
type DirectiveApplier interface {
	ApplyDirective(ctx context.Context, d sqsbreaker.Directive) error
}

// Listener is the always-on consumer of the administrative broadcast channel.
// Each listener instance owns one queue subscribed to the control topic.
type Listener struct {
	client   SQSClient
	queueURL string
	applier  DirectiveApplier
	log      *slog.Logger

	afterApply []func(sqsbreaker.Directive)
}

// Option configures a Listener at construction time.
type Option func(*Listener)

// WithAfterApply registers a hook invoked after a directive has been applied,
// e.g. to resume an embedded worker's pull loop on a self-enable.
func WithAfterApply(hook func(sqsbreaker.Directive)) Option {
	return func(l *Listener) { l.afterApply = append(l.afterApply, hook) }
}

// WithLogger sets the listener logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Listener) { l.log = log }
}

// New creates a control-channel listener.
func New(client SQSClient, queueURL string, applier DirectiveApplier, opts ...Option) *Listener {
	l := &Listener{
		client:   client,
		queueURL: queueURL,
		applier:  applier,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins consuming the control queue. It blocks until the context is
// canceled. Suspension of worker queues never affects this loop: recovery
// directives must get through precisely when workers are stopped.
func (l *Listener) Start(ctx context.Context) {
	l.log.Info("control-channel listener started", "queue", l.queueURL)

	for {
		if ctx.Err() != nil {
			break
		}

		output, err := l.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(l.queueURL),
			MaxNumberOfMessages: maxMessages,
			WaitTimeSeconds:     waitTimeSeconds,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			l.log.Error("failed to receive control messages", "error", err)
			time.Sleep(2 * time.Second)
			continue
		}

		for i := range output.Messages {
			msgCtx, cancel := context.WithTimeout(context.Background(), applyTimeout)
			l.handleMessage(msgCtx, &output.Messages[i])
			cancel()
		}
	}

	l.log.Info("control-channel listener stopped")
}

// handleMessage parses and applies one directive. The message is always
// deleted: application is idempotent, a malformed directive is permanent, and
// apply errors are already isolated per function inside the applier.
func (l *Listener) handleMessage(ctx context.Context, msg *types.Message) {
	defer l.deleteMessage(msg)

	if msg.Body == nil {
		l.log.Error("received control message with empty body")
		return
	}

	directive, err := sqsbreaker.ParseDirective([]byte(*msg.Body))
	if err != nil {
		l.log.Error("dropping malformed directive", "error", err)
		return
	}

	l.log.Info("applying directive",
		"action", directive.Action,
		"scope", directive.Scope,
		"reason", directive.Reason,
	)

	if err := l.applier.ApplyDirective(ctx, directive); err != nil {
		l.log.Error("directive application failed", "action", directive.Action, "error", err)
		return
	}

	for _, hook := range l.afterApply {
		hook(directive)
	}
}

func (l *Listener) deleteMessage(msg *types.Message) {
	deleteCtx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	_, err := l.client.DeleteMessage(deleteCtx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(l.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		l.log.Error("failed to delete control message", "error", err)
	}
}
