package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hatsunemiku3939/sqsbreaker"
)

// --- SQS Consumer Configuration ---
const (
	// maxMessages defines the maximum number of messages to retrieve in one SQS API call.
	maxMessages = 5
	// waitTimeSeconds enables SQS Long Polling, reducing cost and empty responses.
	waitTimeSeconds = 10
	// deleteTimeout sets a client-side timeout for the DeleteMessage API call.
	deleteTimeout = 5 * time.Second
	// processingTimeout sets a deadline for processing a single message.
	processingTimeout = 30 * time.Second
)

// SQSClient defines the interface for SQS operations needed by the Processor.
// This allows for easier testing by mocking the SQS client.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// BindingController is the control surface the processor needs to suspend its
// own consumption. Narrowed from binding.Controller for mocking.
type BindingController interface {
	Disable(ctx context.Context, functionName string) error
	CachedBindingID(functionName string) (string, bool)
}

// TransactionHandler runs the validation and external call for one
// transaction. It returns the outcome observed from the dependency; it never
// decides ack or suspension, that is the processor's job.
type TransactionHandler func(ctx context.Context, payload []byte, meta sqsbreaker.TransactionMetadata) sqsbreaker.Outcome

// SuspensionNotifier publishes a suspension notice out of band. Optional.
type SuspensionNotifier interface {
	PublishSuspension(ctx context.Context, n sqsbreaker.SuspensionNotice) error
}

// Processor consumes one managed function's FIFO queue: validate, call the
// dependency, classify the outcome, and on a server fault disable its own
// binding and stop pulling until externally re-enabled.
//
// Messages within a batch are handled sequentially; combined with the
// substrate's one-in-flight-per-group guarantee this preserves per-customer
// ordering without any locking here.
type Processor struct {
	client     SQSClient
	fn         sqsbreaker.ManagedFunction
	handler    TransactionHandler
	controller BindingController

	envelopeSchema gojsonschema.JSONLoader
	payloadSchema  gojsonschema.JSONLoader

	notifier SuspensionNotifier
	events   *recorder
	log      *slog.Logger

	suspended atomic.Bool
	resume    chan struct{}
}

// ProcessorOption configures a Processor at construction time.
type ProcessorOption func(*Processor)

// WithNotifier attaches an out-of-band suspension notifier.
func WithNotifier(n SuspensionNotifier) ProcessorOption {
	return func(p *Processor) { p.notifier = n }
}

// WithLogger sets the processor logger.
func WithLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.log = log
		p.events = newRecorder(log, p.fn.Name)
	}
}

// NewProcessor creates a processor for one managed function. The envelope
// schema and the function's payload schema are compiled up front to fail fast.
func NewProcessor(client SQSClient, fn sqsbreaker.ManagedFunction, handler TransactionHandler, controller BindingController, opts ...ProcessorOption) (*Processor, error) {
	envelopeSchema, err := sqsbreaker.CompileSchema(sqsbreaker.EnvelopeSchema)
	if err != nil {
		return nil, fmt.Errorf("envelope schema: %w", err)
	}

	var payloadSchema gojsonschema.JSONLoader
	if s := sqsbreaker.PayloadSchema(fn.TransactionType); s != "" {
		payloadSchema, err = sqsbreaker.CompileSchema(s)
		if err != nil {
			return nil, fmt.Errorf("payload schema for %s: %w", fn.TransactionType, err)
		}
	}

	p := &Processor{
		client:         client,
		fn:             fn,
		handler:        handler,
		controller:     controller,
		envelopeSchema: envelopeSchema,
		payloadSchema:  payloadSchema,
		log:            slog.Default(),
		resume:         make(chan struct{}, 1),
	}
	p.events = newRecorder(p.log, fn.Name)
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start begins the polling loop. It blocks until the context is canceled.
// While suspended the loop pulls nothing; Resume re-opens it.
func (p *Processor) Start(ctx context.Context) {
	p.log.Info("worker started", "function", p.fn.Name, "queue", p.fn.QueueURL)

	for {
		if ctx.Err() != nil {
			p.log.Info("shutdown initiated, no longer polling")
			break
		}

		if p.suspended.Load() {
			select {
			case <-ctx.Done():
				continue
			case <-p.resume:
				p.log.Info("consumption resumed", "function", p.fn.Name)
				continue
			}
		}

		output, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(p.fn.QueueURL),
			MaxNumberOfMessages: maxMessages,
			WaitTimeSeconds:     waitTimeSeconds,
		})

		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			p.log.Error("failed to receive messages", "error", err)
			time.Sleep(2 * time.Second)
			continue
		}

		// Sequential on purpose: the queue is FIFO and the batch must be
		// handled in delivery order. A disable taking effect mid-batch still
		// lets the batch finish; that race is accepted (each further server
		// fault re-triggers the idempotent disable).
		for i := range output.Messages {
			msgCtx, cancelMsg := context.WithTimeout(context.Background(), processingTimeout)
			p.processMessage(msgCtx, &output.Messages[i])
			cancelMsg()
		}
	}

	p.log.Info("worker stopped", "function", p.fn.Name)
}

// Resume re-opens the pull loop after an external enable. Idempotent.
func (p *Processor) Resume() {
	if p.suspended.CompareAndSwap(true, false) {
		select {
		case p.resume <- struct{}{}:
		default:
		}
	}
}

// Suspended reports whether the processor has stopped pulling batches.
func (p *Processor) Suspended() bool {
	return p.suspended.Load()
}

// processMessage runs the per-message state machine:
// Received -> Validating -> ExternalCall -> Success | Failed(classification).
func (p *Processor) processMessage(ctx context.Context, msg *types.Message) {
	if msg.Body == nil {
		p.log.Error("received message with empty body")
		return
	}
	start := time.Now()
	body := []byte(*msg.Body)

	// Validating: envelope first. A malformed envelope is a permanent,
	// caller-side failure: ack it so it never redelivers.
	if err := sqsbreaker.ValidateJSON(p.envelopeSchema, body); err != nil {
		p.finishClientFault(ctx, msg, sqsbreaker.TransactionMetadata{}, sqsbreaker.Classification{
			Kind: sqsbreaker.FaultClient, Message: fmt.Errorf("%w: %v", sqsbreaker.ErrInvalidEnvelope, err).Error(),
		}, start, false)
		return
	}

	var envelope sqsbreaker.TransactionEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		p.finishClientFault(ctx, msg, sqsbreaker.TransactionMetadata{}, sqsbreaker.Classification{
			Kind: sqsbreaker.FaultClient, Message: fmt.Errorf("%w: %v", sqsbreaker.ErrFailedToParseEnvelope, err).Error(),
		}, start, false)
		return
	}
	meta := envelope.Metadata

	// A message of a foreign type reaching this queue means the declared
	// routing predicate and the substrate disagree. Permanent failure.
	if envelope.TransactionType != p.fn.TransactionType {
		p.finishClientFault(ctx, msg, meta, sqsbreaker.Classification{
			Kind:    sqsbreaker.FaultClient,
			Message: fmt.Sprintf("misrouted transaction type %q on queue for %q", envelope.TransactionType, p.fn.TransactionType),
		}, start, false)
		return
	}

	if p.payloadSchema != nil {
		if err := sqsbreaker.ValidateJSON(p.payloadSchema, envelope.Message); err != nil {
			p.finishClientFault(ctx, msg, meta, sqsbreaker.Classification{
				Kind:       sqsbreaker.FaultClient,
				StatusHint: 400,
				Message:    fmt.Errorf("%w: %v", sqsbreaker.ErrInvalidPayload, err).Error(),
			}, start, false)
			return
		}
	}

	// ExternalCall.
	outcome := p.handler(ctx, envelope.Message, meta)
	cls := sqsbreaker.Classify(outcome)
	latency := time.Since(start)

	switch cls.Kind {
	case sqsbreaker.FaultNone:
		p.deleteMessage(msg, meta.MessageID)
		p.events.success(meta, latency)

	case sqsbreaker.FaultClient:
		// Caller-fault: ack so it never redelivers, log, keep consuming.
		p.deleteMessage(msg, meta.MessageID)
		p.events.fault(meta, cls, latency, false)

	case sqsbreaker.FaultUnclassified:
		// Default-continue, flagged loudly: availability over safety until a
		// product decision says otherwise.
		p.deleteMessage(msg, meta.MessageID)
		p.events.fault(meta, cls, latency, true)

	case sqsbreaker.FaultServer:
		// Callee-fault: leave the message queued for redelivery and suspend
		// consumption of this queue entirely.
		p.suspend(ctx, meta, cls, latency)
	}
}

// finishClientFault acks and records a pre-handler client fault.
func (p *Processor) finishClientFault(_ context.Context, msg *types.Message, meta sqsbreaker.TransactionMetadata, cls sqsbreaker.Classification, start time.Time, loud bool) {
	p.deleteMessage(msg, meta.MessageID)
	p.events.fault(meta, cls, time.Since(start), loud)
}

// suspend disables the function's own binding and stops the pull loop.
// A disable failure is surfaced in the event but does not crash the worker;
// the next server fault re-triggers it.
func (p *Processor) suspend(ctx context.Context, meta sqsbreaker.TransactionMetadata, cls sqsbreaker.Classification, latency time.Duration) {
	alreadySuspended := p.suspended.Swap(true)

	var disableErr error
	if !alreadySuspended {
		disableErr = p.controller.Disable(ctx, p.fn.Name)
	}
	bindingID, _ := p.controller.CachedBindingID(p.fn.Name)

	p.events.suspension(meta, cls, latency, bindingID, disableErr)

	if p.notifier != nil && !alreadySuspended {
		notice := sqsbreaker.SuspensionNotice{
			FunctionName: p.fn.Name,
			BindingID:    bindingID,
			MessageID:    meta.MessageID,
			CustomerID:   meta.CustomerID,
			Reason:       cls.Message,
			IssuedAt:     time.Now().UTC(),
		}
		if err := p.notifier.PublishSuspension(ctx, notice); err != nil {
			p.log.Error("failed to publish suspension notice", "error", err)
		}
	}
}

// deleteMessage acks a message, with its own timeout so shutdown of the
// message context cannot strand the cleanup.
func (p *Processor) deleteMessage(msg *types.Message, messageID string) {
	deleteCtx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	_, err := p.client.DeleteMessage(deleteCtx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.fn.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		p.log.Error("failed to delete message", "message_id", messageID, "error", err)
	}
}
