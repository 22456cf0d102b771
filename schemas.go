package sqsbreaker

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// --- Schemas ---
// Schemas are defined as variables for clarity and separation. The envelope
// schema gates routing; per-type payload schemas gate the handler call.

var EnvelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "schemaVersion": { "type": "string" },
    "transactionType": { "type": "string" },
    "message": { "type": "object" },
    "metadata": {
      "type": "object",
      "properties": {
        "messageId": { "type": "string" },
        "customerId": { "type": "string" },
        "timestamp": { "type": "string" },
        "source": { "type": "string" }
      },
      "required": ["messageId", "customerId"]
    }
  },
  "required": ["schemaVersion", "transactionType", "message", "metadata"]
}`

var BankAccountSetupSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "customerId": { "type": "string" },
    "routingNumber": { "type": "string", "pattern": "^[0-9]{9}$" },
    "accountNumber": { "type": "string", "minLength": 4 },
    "accountType": { "type": "string", "enum": ["checking", "savings"] }
  },
  "required": ["customerId", "routingNumber", "accountNumber"]
}`

var PaymentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "customerId": { "type": "string" },
    "amount": { "type": "number", "exclusiveMinimum": 0 },
    "paymentMethod": { "type": "string" },
    "billType": { "type": "string" },
    "dueDate": { "type": "string" }
  },
  "required": ["customerId", "amount"]
}`

// PayloadSchema returns the registered payload schema for a transaction type,
// or empty when the type carries no schema.
func PayloadSchema(transactionType string) string {
	switch transactionType {
	case TxTypeBankAccountSetup:
		return BankAccountSetupSchema
	case TxTypePayment:
		return PaymentSchema
	default:
		return ""
	}
}

// CompileSchema validates a schema document itself, to fail fast at startup.
func CompileSchema(schema string) (gojsonschema.JSONLoader, error) {
	loader := gojsonschema.NewStringLoader(schema)
	if _, err := gojsonschema.NewSchema(loader); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return loader, nil
}

// ValidateJSON checks a document against a compiled schema loader and folds
// the validation result into a single error.
func ValidateJSON(schema gojsonschema.JSONLoader, doc []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(doc))
	return formatSchemaError(result, err)
}

// formatSchemaError creates a user-friendly error from gojsonschema validation results.
func formatSchemaError(result *gojsonschema.Result, err error) error {
	if err != nil {
		return fmt.Errorf("schema validation system error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errMsg string
	for _, desc := range result.Errors() {
		errMsg += fmt.Sprintf("- %s; ", desc)
	}
	return fmt.Errorf("schema validation failed: %s", errMsg)
}
