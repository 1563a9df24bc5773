package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// UploadPage is one bulk upload request as received by the fake
type UploadPage struct {
	UploadID           string           `json:"uploadId"`
	IsFirstPage        bool             `json:"isFirstPage"`
	IsLastPage         bool             `json:"isLastPage"`
	ForceRestartUpload bool             `json:"forceRestartUpload"`
	Datasource         string           `json:"datasource"`
	Users              []map[string]any `json:"users"`
	Documents          []map[string]any `json:"documents"`
}

// FakeGlean records bulk user and document uploads
type FakeGlean struct {
	Server *httptest.Server

	mu                sync.Mutex
	token             string
	userPages         []UploadPage
	documentPages     []UploadPage
	failDocumentsFrom int
}

// NewFakeGlean starts a fake indexing API accepting the given bearer token
func NewFakeGlean(token string) *FakeGlean {
	f := &FakeGlean{token: token, failDocumentsFrom: -1}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL returns the base URL to configure as the Glean baseUrl
func (f *FakeGlean) URL() string {
	return f.Server.URL
}

// Close stops the server
func (f *FakeGlean) Close() {
	f.Server.Close()
}

// SetToken changes the accepted bearer token
func (f *FakeGlean) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// FailDocumentPagesFrom rejects every document page after n pages were
// accepted in total. A negative n accepts everything.
func (f *FakeGlean) FailDocumentPagesFrom(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDocumentsFrom = n
}

// UserPages returns the accepted user pages
func (f *FakeGlean) UserPages() []UploadPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UploadPage(nil), f.userPages...)
}

// DocumentPages returns the accepted document pages
func (f *FakeGlean) DocumentPages() []UploadPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]UploadPage(nil), f.documentPages...)
}

func (f *FakeGlean) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+f.token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not allowed"})
		return
	}

	var page UploadPage
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
		return
	}

	switch r.URL.Path {
	case "/api/index/v1/bulkindexusers":
		f.userPages = append(f.userPages, page)
	case "/api/index/v1/bulkindexdocuments":
		if f.failDocumentsFrom >= 0 && len(f.documentPages) >= f.failDocumentsFrom {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "indexing temporarily unavailable"})
			return
		}
		f.documentPages = append(f.documentPages, page)
	default:
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
}
