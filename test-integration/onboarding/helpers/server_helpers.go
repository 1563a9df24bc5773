package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	syncapp "github.com/gleansync/ns-glean-sync/internal/app"
	"github.com/gleansync/ns-glean-sync/internal/config"
)

// SessionHeader carries the onboarding session id
const SessionHeader = "X-Session-ID"

// ServerTestHelper manages the onboarding server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	address    string
	baseURL    string
	httpClient *http.Client
	app        *syncapp.SyncApp
}

// NewServerTestHelper creates a helper for a server on a free local port
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	address := listener.Addr().String()
	gomega.Expect(listener.Close()).To(gomega.Succeed())

	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StartServer builds the application from the config file and starts it
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := syncapp.NewSyncApp(s.ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()
	return nil
}

// StopServer gracefully stops the server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits until /readiness answers 200
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Response is a decoded API response
type Response struct {
	StatusCode int
	SessionID  string
	Body       map[string]any
}

// Post sends a JSON POST to path with the session header when sessionID is set
func (s *ServerTestHelper) Post(path, sessionID string, body any) *Response {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		payload = bytes.NewReader(data)
	}
	return s.do(http.MethodPost, path, sessionID, payload)
}

// Get sends a GET to path with the session header when sessionID is set
func (s *ServerTestHelper) Get(path, sessionID string) *Response {
	return s.do(http.MethodGet, path, sessionID, http.NoBody)
}

// Delete sends a DELETE to path with the session header when sessionID is set
func (s *ServerTestHelper) Delete(path, sessionID string) *Response {
	return s.do(http.MethodDelete, path, sessionID, http.NoBody)
}

func (s *ServerTestHelper) do(method, path, sessionID string, body io.Reader) *Response {
	req, err := http.NewRequestWithContext(s.ctx, method, s.baseURL+path, body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := s.httpClient.Do(req)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	out := &Response{StatusCode: resp.StatusCode, SessionID: resp.Header.Get(SessionHeader)}
	if len(bytes.TrimSpace(data)) > 0 {
		gomega.Expect(json.Unmarshal(data, &out.Body)).To(gomega.Succeed(), "body: %s", string(data))
	}
	return out
}

// WriteConfigYAML writes an in-memory storage config pointing at the fakes
func WriteConfigYAML(dir, gleanURL, netsuiteURL string) string {
	content := fmt.Sprintf(`storageType: memory
encryption:
  keyEnv: NSGS_INTEGRATION_UNSET_KEY
glean:
  baseUrl: %s
  datasource: netsuite
  batchSize: 2
netsuite:
  baseUrl: %s
  appUrl: https://1234567.app.netsuite.com
  pageSize: 2
  maxConcurrentQueries: 3
  requestsPerSecond: 1000
workflow:
  requestTimeout: 5s
  stageTimeout: 30s
  sessionTTL: 10m
`, gleanURL, netsuiteURL)

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(content), 0600)).To(gomega.Succeed())
	return path
}

// ValidCredentials returns an onboarding form payload accepted by the fakes
func ValidCredentials(gleanToken string) map[string]string {
	return map[string]string{
		"gleanAccount":   "acme",
		"gleanToken":     gleanToken,
		"accountId":      "1234567",
		"consumerKey":    "consumer-key",
		"consumerSecret": "consumer-secret",
		"token":          "token",
		"tokenSecret":    "token-secret",
	}
}
