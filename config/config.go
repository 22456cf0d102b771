package config

import (
	"github.com/hatsunemiku3939/sqsbreaker"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Control   ControlConfig    `yaml:"control"`
	Ingress   IngressConfig    `yaml:"ingress"`
	Ops       OpsConfig        `yaml:"ops"`
	Functions []FunctionConfig `yaml:"functions"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

// ControlConfig holds the administrative broadcast channel settings.
type ControlConfig struct {
	TopicARN string `yaml:"topic_arn"`
	QueueURL string `yaml:"queue_url"` // this instance's subscribed control queue
}

// IngressConfig holds the transaction fan-out topic.
type IngressConfig struct {
	TopicARN string `yaml:"topic_arn"`
}

// OpsConfig holds the operations topic for suspension notices. Optional.
type OpsConfig struct {
	TopicARN string `yaml:"topic_arn"`
}

// FunctionConfig declares one managed worker function. The binding id is
// deliberately absent: it is discovered at runtime, never configured.
type FunctionConfig struct {
	Name            string `yaml:"name"`
	TransactionType string `yaml:"transaction_type"`
	QueueURL        string `yaml:"queue_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Port int `yaml:"port"`
}

// Registry builds the static managed-function registry from configuration.
func (c *AppConfig) Registry() (*sqsbreaker.Registry, error) {
	functions := make([]sqsbreaker.ManagedFunction, 0, len(c.Functions))
	for _, fc := range c.Functions {
		functions = append(functions, sqsbreaker.ManagedFunction{
			Name:            fc.Name,
			TransactionType: fc.TransactionType,
			QueueURL:        fc.QueueURL,
		})
	}
	return sqsbreaker.NewRegistry(functions...)
}
