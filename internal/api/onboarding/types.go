package onboarding

// AuthResponse is returned when a credential set was stored
type AuthResponse struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
}

// IndexUsersResponse is returned when users were indexed
type IndexUsersResponse struct {
	Message      string `json:"message"`
	UsersIndexed int    `json:"users_indexed"`
}

// FetchRecordsResponse is returned when records were fetched
type FetchRecordsResponse struct {
	Message      string         `json:"message"`
	RecordCounts map[string]int `json:"record_counts"`
}

// BulkIndexResponse is returned when documents were indexed
type BulkIndexResponse struct {
	Message          string `json:"message"`
	DocumentsIndexed int    `json:"documents_indexed"`
}

// ErrorResponse describes a failed stage
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`

	// Details carries the remote service's message verbatim
	Details string   `json:"details,omitempty"`
	Fields  []string `json:"fields,omitempty"`

	PartialSuccessCount *int `json:"partialSuccessCount,omitempty"`
	DocumentsIndexed    *int `json:"documents_indexed,omitempty"`
}
