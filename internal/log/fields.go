package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldErrorKind   = "error_kind"
	FieldOperation   = "operation"
	FieldStorageKey  = "storage_key"
	FieldLocale      = "locale"
	FieldGeneration  = "generation"
	FieldCount       = "count"
	FieldSkipped     = "skipped"
	FieldRecordID    = "record_id"
	FieldRecordIndex = "record_index"
	FieldAmount      = "amount"
	FieldType        = "type"
)

// Component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentRecorder  = "recorder"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentKafka     = "kafka"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentSeed      = "seed"
)

// Operation names
const (
	OpLoad     = "load"
	OpFocus    = "focus"
	OpRecord   = "record"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSeed     = "seed"
	OpRender   = "render"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithRequestID(id string) LogFields {
	if id != "" {
		f[FieldRequestID] = id
	}
	return f
}

// WithLoad adds the outcome counters of a dashboard load.
func (f LogFields) WithLoad(key string, count, skipped int, generation uint64) LogFields {
	f[FieldStorageKey] = key
	f[FieldCount] = count
	f[FieldSkipped] = skipped
	f[FieldGeneration] = generation
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
