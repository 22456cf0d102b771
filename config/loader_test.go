package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatsunemiku3939/sqsbreaker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validConfig = `
control:
  topic_arn: arn:aws:sns:us-east-1:123456789012:subscription-control
  queue_url: https://sqs.test/control
ingress:
  topic_arn: arn:aws:sns:us-east-1:123456789012:transactions.fifo
functions:
  - name: bank-account-setup
    transaction_type: bank_account_setup
    queue_url: https://sqs.test/bank.fifo
  - name: payment-processing
    transaction_type: payment
    queue_url: https://sqs.test/payment.fifo
logging:
  level: debug
metrics:
  port: 9191
`

func TestLoad(t *testing.T) {
	t.Run("parses a full config", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, "https://sqs.test/control", cfg.Control.QueueURL)
		assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:transactions.fifo", cfg.Ingress.TopicARN)
		require.Len(t, cfg.Functions, 2)
		assert.Equal(t, "payment", cfg.Functions[1].TransactionType)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 9191, cfg.Metrics.Port)
	})

	t.Run("expands environment variables", func(t *testing.T) {
		t.Setenv("CONTROL_QUEUE_URL", "https://sqs.test/from-env")
		cfg, err := Load(writeConfig(t, `
control:
  queue_url: ${CONTROL_QUEUE_URL}
functions:
  - name: payment-processing
    transaction_type: payment
    queue_url: https://sqs.test/payment.fifo
`))
		require.NoError(t, err)
		assert.Equal(t, "https://sqs.test/from-env", cfg.Control.QueueURL)
	})

	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
functions:
  - name: payment-processing
    transaction_type: payment
    queue_url: https://sqs.test/payment.fifo
`))
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("rejects empty function list", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
logging:
  level: info
`))
		assert.Error(t, err)
	})

	t.Run("rejects incomplete function entry", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
functions:
  - name: payment-processing
    transaction_type: payment
`))
		assert.ErrorContains(t, err, "queue_url")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestAppConfig_Registry(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	registry, err := cfg.Registry()
	require.NoError(t, err)

	fn, err := registry.Lookup("payment-processing")
	require.NoError(t, err)
	assert.Equal(t, sqsbreaker.TxTypePayment, fn.TransactionType)
	assert.Len(t, registry.All(), 2)
}
