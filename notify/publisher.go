// Package notify publishes to the system's broadcast topics: transaction
// ingress, administrative directives, and suspension notices.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	"github.com/hatsunemiku3939/sqsbreaker"
)

// SNSAPI defines the interface for SNS operations needed by the Publisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher publishes JSON payloads to one SNS topic.
type Publisher struct {
	client   SNSAPI
	topicARN string
	log      *slog.Logger
}

// New creates a Publisher for a topic.
func New(client SNSAPI, topicARN string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{client: client, topicARN: topicARN, log: log}
}

// PublishTransaction publishes a transaction to the ingress topic. The
// transaction_type attribute drives the substrate's exact-match filter
// policies; group and dedup ids give the FIFO queues their ordering contract.
// A missing message id is minted here, since it doubles as the dedup key.
func (p *Publisher) PublishTransaction(ctx context.Context, env sqsbreaker.TransactionEnvelope) (string, error) {
	if env.Metadata.MessageID == "" {
		env.Metadata.MessageID = uuid.NewString()
	}
	if env.Metadata.Timestamp == "" {
		env.Metadata.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if env.Metadata.CustomerID == "" {
		return "", fmt.Errorf("%w: customerId is the ordering group key and must be set", sqsbreaker.ErrInvalidInput)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn:               aws.String(p.topicARN),
		Message:                aws.String(string(body)),
		MessageGroupId:         aws.String(env.Metadata.CustomerID),
		MessageDeduplicationId: aws.String(env.Metadata.MessageID),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"transaction_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.TransactionType),
			},
			"message_group_id": {
				DataType:    aws.String("String"),
				StringValue: aws.String(env.Metadata.CustomerID),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish transaction: %w", err)
	}

	p.log.Info("transaction published",
		"transaction_type", env.TransactionType,
		"message_id", env.Metadata.MessageID,
		"group_key", env.Metadata.CustomerID,
	)
	return env.Metadata.MessageID, nil
}

// PublishDirective broadcasts an administrative directive to all listeners.
func (p *Publisher) PublishDirective(ctx context.Context, d sqsbreaker.Directive) error {
	if d.IssuedAt.IsZero() {
		d.IssuedAt = time.Now().UTC()
	}

	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal directive: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish directive: %w", err)
	}

	p.log.Info("directive published", "action", d.Action, "scope", d.Scope, "reason", d.Reason)
	return nil
}

// PublishSuspension publishes a suspension notice to the operations topic.
func (p *Publisher) PublishSuspension(ctx context.Context, n sqsbreaker.SuspensionNotice) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal suspension notice: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish suspension notice: %w", err)
	}
	return nil
}
