package workflow

import "github.com/gleansync/ns-glean-sync/internal/glean"

// Payload is the structured data a stage reports back
type Payload struct {
	CredentialID        string         `json:"credentialId,omitempty"`
	UsersIndexed        *int           `json:"usersIndexed,omitempty"`
	RecordCounts        map[string]int `json:"recordCounts,omitempty"`
	DocumentsIndexed    *int           `json:"documentsIndexed,omitempty"`
	BatchesTotal        int            `json:"batchesTotal,omitempty"`
	PartialSuccessCount *int           `json:"partialSuccessCount,omitempty"`

	// Documents are handed from FetchRecords to the coordinator's buffer
	Documents []glean.Document `json:"-"`
}

// StageResult is the outcome of one stage invocation. Handlers report every
// outcome this way; they never return Go errors.
type StageResult struct {
	OK      bool     `json:"ok"`
	Message string   `json:"message"`
	Payload *Payload `json:"payload,omitempty"`
	Err     *Error   `json:"error,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(message string, payload *Payload) StageResult {
	return StageResult{OK: true, Message: message, Payload: payload}
}

// FailedWith builds a failed result whose message is the error message
func FailedWith(err *Error, payload *Payload) StageResult {
	return StageResult{OK: false, Message: err.Message, Payload: payload, Err: err}
}

// IntPtr returns a pointer to v, for optional payload counts
func IntPtr(v int) *int {
	return &v
}
