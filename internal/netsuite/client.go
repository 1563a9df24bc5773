// Package netsuite reads ERP records through the NetSuite SuiteQL REST API
// and maps them to Glean documents.
package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/glean"
	"github.com/gleansync/ns-glean-sync/internal/httpclient"
	"github.com/gleansync/ns-glean-sync/internal/otel"
)

const (
	// DefaultPageSize is the largest page SuiteQL serves
	DefaultPageSize = 1000

	// DefaultMaxConcurrentQueries bounds the queries FetchDocuments runs at once
	DefaultMaxConcurrentQueries = 4

	// DefaultRequestsPerSecond is the default SuiteQL rate limit
	DefaultRequestsPerSecond = 5.0

	// ClientTracerName is the name used for the NetSuite client tracer
	ClientTracerName = "github.com/gleansync/ns-glean-sync/netsuite"

	suiteQLPath = "/services/rest/query/v1/suiteql"

	// maxPages guards against a next link that never ends
	maxPages = 10000
)

// Row is a single SuiteQL result row keyed by lower-case column name
type Row map[string]any

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type queryPage struct {
	Links []link `json:"links"`
	Items []Row  `json:"items"`
}

type queryRequest struct {
	Q string `json:"q"`
}

// Client runs SuiteQL queries with the NetSuite credentials of a credential set.
// It is safe for concurrent use; every call signs its own requests.
type Client struct {
	baseURL           string
	appURL            string
	datasource        string
	pageSize          int
	maxConcurrent     int
	requestsPerSecond float64
	timeout           time.Duration
	httpClient        *http.Client
	tracer            trace.Tracer
}

// Option configures the Client
type Option func(*Client)

// WithBaseURL overrides https://<account>.suitetalk.api.netsuite.com
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAppURL overrides https://<account>.app.netsuite.com in document view URLs
func WithAppURL(appURL string) Option {
	return func(c *Client) {
		c.appURL = strings.TrimRight(appURL, "/")
	}
}

// WithDatasource sets the datasource written into documents
func WithDatasource(datasource string) Option {
	return func(c *Client) {
		if datasource != "" {
			c.datasource = datasource
		}
	}
}

// WithPageSize sets the maxpagesize preference
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 && size <= DefaultPageSize {
			c.pageSize = size
		}
	}
}

// WithMaxConcurrentQueries bounds how many queries run at once
func WithMaxConcurrentQueries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// WithRequestsPerSecond sets the SuiteQL rate limit for a single call
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.requestsPerSecond = rps
		}
	}
}

// WithTimeout bounds each HTTP request
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the base client whose transport carries the signed requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTracer sets the OpenTelemetry tracer. If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a NetSuite client
func NewClient(opts ...Option) *Client {
	c := &Client{
		datasource:        glean.DefaultDatasource,
		pageSize:          DefaultPageSize,
		maxConcurrent:     DefaultMaxConcurrentQueries,
		requestsPerSecond: DefaultRequestsPerSecond,
		timeout:           httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session is one authenticated, rate-limited conversation with SuiteQL
type session struct {
	client   *Client
	http     httpclient.Client
	limiter  *rate.Limiter
	endpoint string
	prefer   string
}

func (c *Client) newSession(creds credentials.CredentialSet) *session {
	cfg := &oauth1.Config{
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
		Realm:          creds.Realm(),
		Signer:         &oauth1.HMAC256Signer{ConsumerSecret: creds.ConsumerSecret},
	}
	token := oauth1.NewToken(creds.Token, creds.TokenSecret)

	base := context.Background()
	if c.httpClient != nil {
		base = context.WithValue(base, oauth1.HTTPClient, c.httpClient)
	}
	signed := cfg.Client(base, token)

	baseURL := c.baseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.suitetalk.api.netsuite.com", creds.HostAccountID())
	}

	return &session{
		client:   c,
		http:     httpclient.NewDefaultClient(c.timeout, httpclient.WithHTTPClient(signed)),
		limiter:  rate.NewLimiter(rate.Limit(c.requestsPerSecond), 1),
		endpoint: baseURL + suiteQLPath,
		prefer:   fmt.Sprintf("transient, maxpagesize=%d", c.pageSize),
	}
}

// Query runs a SuiteQL statement and returns every row across all pages
func (c *Client) Query(ctx context.Context, creds credentials.CredentialSet, q string) ([]Row, error) {
	return c.newSession(creds).query(ctx, q)
}

// query follows the next links until the last page. A failed page fails the
// whole query; partial results are never returned.
func (s *session) query(ctx context.Context, q string) ([]Row, error) {
	var rows []Row
	url := s.endpoint
	for page := 0; url != ""; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("query exceeded %d pages", maxPages)
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &httpclient.TransportError{URL: url, Err: err}
		}

		resp, err := s.http.PostJSON(ctx, url, queryRequest{Q: q}, httpclient.WithHeader("Prefer", s.prefer))
		if err != nil {
			return nil, err
		}

		var result queryPage
		dec := json.NewDecoder(bytes.NewReader(resp.Body))
		dec.UseNumber()
		if err := dec.Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode SuiteQL page %d: %w", page+1, err)
		}

		rows = append(rows, result.Items...)
		url = nextLink(result.Links)
		slog.DebugContext(ctx, "Fetched SuiteQL page", "page", page+1, "rows", len(result.Items), "has_more", url != "")
	}
	return rows, nil
}

func (s *session) queryObject(ctx context.Context, name, q string) ([]Row, error) {
	ctx, span := otel.StartSpan(ctx, s.client.tracer, "netsuite.query")
	defer span.End()
	span.SetAttributes(otel.AttrObjectType.String(name))

	rows, err := s.query(ctx, q)
	if err != nil {
		otel.RecordError(span, err)
		return nil, fmt.Errorf("%s query failed: %w", name, err)
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(rows)))
	return rows, nil
}

func nextLink(links []link) string {
	for _, l := range links {
		if l.Rel == "next" {
			return l.Href
		}
	}
	return ""
}
