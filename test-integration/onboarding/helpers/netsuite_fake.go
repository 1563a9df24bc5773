package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gleansync/ns-glean-sync/internal/netsuite"
)

// fakePageSize is small so every query with more than two rows is paginated
const fakePageSize = 2

// FakeNetSuite serves canned SuiteQL results. Records are keyed by object type
// name; employees answer both the employee and the role permission queries.
type FakeNetSuite struct {
	Server *httptest.Server

	mu          sync.Mutex
	employees   []netsuite.Row
	permissions []netsuite.Row
	records     map[string][]netsuite.Row
	failObject  string
	requests    int
}

// NewFakeNetSuite starts a fake SuiteQL endpoint
func NewFakeNetSuite() *FakeNetSuite {
	f := &FakeNetSuite{records: map[string][]netsuite.Row{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// URL returns the base URL to configure as the NetSuite baseUrl
func (f *FakeNetSuite) URL() string {
	return f.Server.URL
}

// Close stops the server
func (f *FakeNetSuite) Close() {
	f.Server.Close()
}

// WithEmployees sets the employees with NetSuite access
func (f *FakeNetSuite) WithEmployees(emails ...string) *FakeNetSuite {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.employees = nil
	for i, email := range emails {
		f.employees = append(f.employees, netsuite.Row{
			"id":         i + 1,
			"entityid":   fmt.Sprintf("EMP-%d", i+1),
			"email":      email,
			"giveaccess": true,
		})
	}
	return f
}

// WithPermission grants email the role permission in the given subsidiaries
func (f *FakeNetSuite) WithPermission(email, permission, subsidiaries string) *FakeNetSuite {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permissions = append(f.permissions, netsuite.Row{
		"email":                       email,
		"permission_name":             permission,
		"role_subsidiary_restriction": subsidiaries,
	})
	return f
}

// WithRecords adds count records of objectType in subsidiary "1"
func (f *FakeNetSuite) WithRecords(objectType string, count int) *FakeNetSuite {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < count; i++ {
		id := len(f.records[objectType]) + 1
		row := netsuite.Row{
			"internalid": strconv.Itoa(id),
			"subsidiary": "1",
		}
		if key := titleKey(objectType); key != "" {
			row[key] = fmt.Sprintf("%s-%d", objectType, id)
		}
		f.records[objectType] = append(f.records[objectType], row)
	}
	return f
}

// FailObject makes queries for objectType answer 500. An empty name clears it.
func (f *FakeNetSuite) FailObject(objectType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failObject = objectType
}

// Requests returns the number of SuiteQL requests served
func (f *FakeNetSuite) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakeNetSuite) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/services/rest/query/v1/suiteql" {
		http.NotFound(w, r)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"title": "Unauthorized", "status": 401})
		return
	}

	var req struct {
		Q string `json:"q"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": "Bad Request", "status": 400})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	rows, name := f.rowsFor(req.Q)
	if name != "" && name == f.failObject {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"title":  "Internal Server Error",
			"status": 500,
			"o:errorDetails": []map[string]string{
				{"detail": "An unexpected error occurred while processing " + name},
			},
		})
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	end := min(offset+fakePageSize, len(rows))
	if offset > end {
		offset = end
	}

	page := map[string]any{
		"items": rows[offset:end],
		"links": []map[string]string{},
	}
	if end < len(rows) {
		page["links"] = []map[string]string{{
			"rel":  "next",
			"href": fmt.Sprintf("%s%s?offset=%d", f.Server.URL, r.URL.Path, end),
		}}
	}
	writeJSON(w, http.StatusOK, page)
}

// rowsFor matches a statement to its canned rows and object type name
func (f *FakeNetSuite) rowsFor(q string) ([]netsuite.Row, string) {
	switch {
	case strings.Contains(q, "rolePermissions"):
		return f.permissions, "role permissions"
	case strings.HasPrefix(q, "SELECT BUILTIN_RESULT.TYPE_INTEGER(employee.ID)"):
		return f.employees, "employee"
	}
	for _, o := range netsuite.ObjectTypes {
		if o.Query == q {
			rows := f.records[o.Name]
			if rows == nil {
				rows = []netsuite.Row{}
			}
			return rows, o.Name
		}
	}
	return []netsuite.Row{}, ""
}

func titleKey(objectType string) string {
	for _, o := range netsuite.ObjectTypes {
		if o.Name == objectType && len(o.Keys) > 0 {
			return o.Keys[0]
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
