package protocol

// Tool call statuses.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusReplayed = "replayed"
)

// ToolResult is the rendered outcome of one tool call. The text is what the
// MCP client sees; the remaining fields feed logs, audit and the replay
// cache.
type ToolResult struct {
	// Status is one of the Status constants.
	Status string `json:"status"`
	// Kind is the failure class for errors, empty on success.
	Kind string `json:"kind,omitempty"`
	// Text is the rendered message.
	Text string `json:"text"`
	// Attempts is the number of API attempts the call needed.
	Attempts int `json:"attempts,omitempty"`
	// CorrelationID links related log and audit entries.
	CorrelationID string `json:"correlation_id"`
}

// Failed reports whether the result should be flagged as a tool error.
func (r ToolResult) Failed() bool {
	return r.Status == StatusError
}
