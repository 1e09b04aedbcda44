package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSQL        = "sql"
	FieldParams     = "params_count"
	FieldResultMode = "result_mode"
	FieldKind       = "statement_kind"
	FieldTable      = "table"
	FieldID         = "id"
	FieldRows       = "rows"
	FieldConnection = "connection"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentProxy   = "proxy"
	ComponentStorage = "storage"
	ComponentLedger  = "ledger"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExecute  = "execute"
	OpSelect   = "select"
	OpLoad     = "load"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithStatement adds the SQL text and the number of bound parameters. The
// parameter values themselves are never logged.
func (f LogFields) WithStatement(sql string, params int) LogFields {
	f[FieldSQL] = sql
	f[FieldParams] = params
	return f
}

// WithRecord identifies a row by table and primary key.
func (f LogFields) WithRecord(table string, id int64) LogFields {
	f[FieldTable] = table
	f[FieldID] = id
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
