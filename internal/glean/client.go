// Package glean uploads users and documents to the Glean indexing API.
package glean

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/httpclient"
	"github.com/gleansync/ns-glean-sync/internal/otel"
)

const (
	// DefaultDatasource is the datasource users and documents are filed under
	DefaultDatasource = "netsuite"

	// DefaultBatchSize is the number of items sent per upload page
	DefaultBatchSize = 100

	// ClientTracerName is the name used for the Glean client tracer
	ClientTracerName = "github.com/gleansync/ns-glean-sync/glean"

	bulkIndexUsersPath     = "/api/index/v1/bulkindexusers"
	bulkIndexDocumentsPath = "/api/index/v1/bulkindexdocuments"
)

// Client talks to the Glean indexing API on behalf of a credential set
type Client struct {
	http       httpclient.Client
	baseURL    string
	datasource string
	batchSize  int
	tracer     trace.Tracer
	newID      func() string
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for uploads
func WithHTTPClient(c httpclient.Client) Option {
	return func(gc *Client) {
		if c != nil {
			gc.http = c
		}
	}
}

// WithBaseURL overrides https://<account>-be.glean.com
func WithBaseURL(baseURL string) Option {
	return func(gc *Client) {
		gc.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithDatasource sets the datasource name
func WithDatasource(datasource string) Option {
	return func(gc *Client) {
		if datasource != "" {
			gc.datasource = datasource
		}
	}
}

// WithBatchSize sets the number of items per upload page
func WithBatchSize(size int) Option {
	return func(gc *Client) {
		if size > 0 {
			gc.batchSize = size
		}
	}
}

// WithTracer sets the OpenTelemetry tracer. If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) Option {
	return func(gc *Client) {
		gc.tracer = tracer
	}
}

// NewClient creates a Glean client
func NewClient(opts ...Option) *Client {
	c := &Client{
		datasource: DefaultDatasource,
		batchSize:  DefaultBatchSize,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewDefaultClient(httpclient.DefaultTimeout)
	}
	return c
}

// Datasource returns the configured datasource name
func (c *Client) Datasource() string {
	return c.datasource
}

// IndexUsers uploads the given emails as active datasource users.
// Every call starts a fresh upload so re-running converges on the same user set.
func (c *Client) IndexUsers(ctx context.Context, creds credentials.CredentialSet, emails []string) (*UploadResult, error) {
	users := make([]User, 0, len(emails))
	for _, email := range emails {
		users = append(users, User{Email: email, IsActive: true})
	}

	return upload(ctx, c, creds, bulkIndexUsersPath, users, func(page uploadPage, chunk []User) any {
		return bulkIndexUsersRequest{
			uploadPage:                    page,
			Users:                         chunk,
			DisableStaleDataDeletionCheck: true,
		}
	})
}

// IndexDocuments uploads documents page by page under a single upload id.
// It stops at the first rejected page; the returned result is non-nil in that
// case and reports the pages accepted so far.
func (c *Client) IndexDocuments(ctx context.Context, creds credentials.CredentialSet, docs []Document) (*UploadResult, error) {
	return upload(ctx, c, creds, bulkIndexDocumentsPath, docs, func(page uploadPage, chunk []Document) any {
		return bulkIndexDocumentsRequest{
			uploadPage: page,
			Documents:  chunk,
		}
	})
}

func (c *Client) endpoint(creds credentials.CredentialSet, path string) string {
	base := c.baseURL
	if base == "" {
		base = fmt.Sprintf("https://%s-be.glean.com", strings.ToLower(creds.GleanAccount))
	}
	return base + path
}

func upload[T any](
	ctx context.Context,
	c *Client,
	creds credentials.CredentialSet,
	path string,
	items []T,
	build func(uploadPage, []T) any,
) (*UploadResult, error) {
	batches := chunk(items, c.batchSize)
	result := &UploadResult{
		UploadID: c.newID(),
		Items:    len(items),
		Batches:  len(batches),
	}
	if len(batches) == 0 {
		return result, nil
	}

	ctx, span := otel.StartSpan(ctx, c.tracer, "glean.upload")
	defer span.End()
	span.SetAttributes(otel.AttrBatchCount.Int(len(batches)), otel.AttrResultCount.Int(len(items)))

	url := c.endpoint(creds, path)
	for i, batch := range batches {
		page := uploadPage{
			UploadID:           result.UploadID,
			IsFirstPage:        i == 0,
			IsLastPage:         i == len(batches)-1,
			ForceRestartUpload: i == 0,
			Datasource:         c.datasource,
		}

		_, err := c.http.PostJSON(ctx, url, build(page, batch), httpclient.WithBearerToken(creds.GleanToken))
		if err != nil {
			span.SetAttributes(otel.AttrBatchIndex.Int(i))
			otel.RecordError(span, err)
			slog.WarnContext(ctx, "Glean upload page rejected",
				"path", path,
				"upload_id", result.UploadID,
				"batch", i+1,
				"batches", len(batches),
				"batches_accepted", result.BatchesAccepted)
			return result, fmt.Errorf("upload page %d of %d failed: %w", i+1, len(batches), err)
		}

		result.BatchesAccepted++
		result.ItemsAccepted += len(batch)
	}

	slog.DebugContext(ctx, "Glean upload complete",
		"path", path,
		"upload_id", result.UploadID,
		"items", result.Items,
		"batches", result.Batches)
	return result, nil
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
