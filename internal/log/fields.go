package log

import "log/slog"

// Attribute keys shared by every component.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOwnerID       = "owner_id"
	FieldTransactionID = "transaction_id"
	FieldPaymentID     = "payment_id"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentScheduler = "scheduler"
	ComponentExporter  = "exporter"
	ComponentRateLimit = "rate_limit"
	ComponentCLI       = "cli"
)

// Attrs collects attributes in insertion order. Empty optional values are
// skipped so log lines stay short.
type Attrs []any

func (a Attrs) Str(key, value string) Attrs {
	if value == "" {
		return a
	}
	return append(a, slog.String(key, value))
}

func (a Attrs) Int(key string, value int64) Attrs {
	return append(a, slog.Int64(key, value))
}

// Owner adds owner_id when the request is authenticated.
func (a Attrs) Owner(ownerID int64) Attrs {
	if ownerID == 0 {
		return a
	}
	return a.Int(FieldOwnerID, ownerID)
}

func (a Attrs) Err(err error) Attrs {
	if err == nil {
		return a
	}
	return append(a, slog.String(FieldError, err.Error()))
}

// HTTP adds the request line, the outcome and the caller.
func (a Attrs) HTTP(method, path, query, userAgent string, status int, durationMs int64) Attrs {
	return a.
		Str(FieldMethod, method).
		Str(FieldPath, path).
		Str(FieldQuery, query).
		Int(FieldStatusCode, int64(status)).
		Int(FieldDuration, durationMs).
		Str(FieldUserAgent, userAgent)
}
