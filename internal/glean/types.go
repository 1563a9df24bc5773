package glean

// AllowedUser grants a datasource user access to a document
type AllowedUser struct {
	Email            string `json:"email"`
	DatasourceUserID string `json:"datasourceUserId"`
}

// Permissions controls who can see a document in search results
type Permissions struct {
	AllowedUsers                  []AllowedUser `json:"allowedUsers"`
	AllowAnonymousAccess          bool          `json:"allowAnonymousAccess"`
	AllowAllDatasourceUsersAccess bool          `json:"allowAllDatasourceUsersAccess"`
}

// CustomProperty is a named value shown alongside a document
type CustomProperty struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Document is a single record in the bulk document upload format
type Document struct {
	ID               string           `json:"id"`
	Datasource       string           `json:"datasource"`
	ObjectType       string           `json:"objectType"`
	Title            string           `json:"title"`
	ViewURL          string           `json:"viewURL"`
	Permissions      Permissions      `json:"permissions"`
	CustomProperties []CustomProperty `json:"customProperties"`
}

// User is a datasource user entry
type User struct {
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}

// uploadPage carries the paging fields shared by every bulk upload request
type uploadPage struct {
	UploadID           string `json:"uploadId"`
	IsFirstPage        bool   `json:"isFirstPage"`
	IsLastPage         bool   `json:"isLastPage"`
	ForceRestartUpload bool   `json:"forceRestartUpload"`
	Datasource         string `json:"datasource"`
}

type bulkIndexUsersRequest struct {
	uploadPage
	Users                         []User `json:"users"`
	DisableStaleDataDeletionCheck bool   `json:"disableStaleDataDeletionCheck"`
}

type bulkIndexDocumentsRequest struct {
	uploadPage
	Documents []Document `json:"documents"`
}

// UploadResult summarizes a paged upload. On failure it reports how far the
// upload got before the failing page.
type UploadResult struct {
	UploadID string

	// Items is the number of users or documents submitted
	Items int

	// Batches is the number of pages the upload was split into
	Batches int

	// BatchesAccepted is the number of pages the remote accepted
	BatchesAccepted int

	// ItemsAccepted is the number of users or documents in accepted pages
	ItemsAccepted int
}
