package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Process
	FieldComponent = "component"

	// Chat
	FieldEndpoint = "endpoint"
	FieldAddress  = "address"
	FieldChannel  = "channel"
	FieldClientID = "client_id"
	FieldIdentity = "identity"
	FieldSender   = "sender"
	FieldState    = "state"
	FieldStage    = "stage"
	FieldBytes    = "bytes"
)
