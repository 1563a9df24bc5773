// Package config provides configuration loading and management for the sync server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gleansync/ns-glean-sync/internal/telemetry"
)

// EnvPrefix is the prefix used for every environment variable read by the server.
const EnvPrefix = "NSGS"

const (
	// StorageTypeDatabase persists credentials in PostgreSQL
	StorageTypeDatabase = "database"

	// StorageTypeMemory keeps credentials in process memory (development and tests)
	StorageTypeMemory = "memory"
)

const (
	defaultGleanDatasource       = "netsuite"
	defaultGleanBatchSize        = 100
	defaultNetSuitePageSize      = 1000
	defaultMaxConcurrentQueries  = 4
	defaultRequestsPerSecond     = 5.0
	defaultRequestTimeout        = 30 * time.Second
	defaultStageTimeout          = 5 * time.Minute
	defaultSessionTTL            = time.Hour
	defaultEncryptionKeyEnv      = EnvPrefix + "_ENCRYPTION_KEY"
	databasePasswordEnv          = EnvPrefix + "_DATABASE_PASSWORD"
	maxNetSuitePageSize          = 1000
	defaultDatabaseSSLMode       = "require"
	awsRdsIamRegionDetectSetting = "detect"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// EvalSymlinks also cleans the path.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// StorageType selects the credential store backend ("database" or "memory").
	// Defaults to "database" when a database section is present, "memory" otherwise.
	StorageType string `yaml:"storageType,omitempty"`

	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Encryption *EncryptionConfig `yaml:"encryption,omitempty"`
	Glean      *GleanConfig      `yaml:"glean,omitempty"`
	NetSuite   *NetSuiteConfig   `yaml:"netsuite,omitempty"`
	Workflow   *WorkflowConfig   `yaml:"workflow,omitempty"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
}

// EncryptionConfig defines where the key used to seal stored secrets comes from.
// Exactly one source is used, in the order KeyFile, AWSSecret, KeyEnv.
type EncryptionConfig struct {
	// KeyID is recorded next to every sealed row so keys can be rotated later
	KeyID string `yaml:"keyId,omitempty"`

	// KeyFile is a file holding a base64 encoded 32 byte key
	KeyFile string `yaml:"keyFile,omitempty"`

	// KeyEnv names the environment variable holding the base64 key.
	// Defaults to NSGS_ENCRYPTION_KEY.
	KeyEnv string `yaml:"keyEnv,omitempty"`

	// AWSSecret reads the base64 key from AWS Secrets Manager
	AWSSecret *AWSSecretConfig `yaml:"awsSecret,omitempty"`
}

// AWSSecretConfig identifies a secret in AWS Secrets Manager
type AWSSecretConfig struct {
	SecretID string `yaml:"secretId"`
	Region   string `yaml:"region,omitempty"`

	// Endpoint overrides the Secrets Manager endpoint (VPC endpoint or LocalStack)
	Endpoint string `yaml:"endpoint,omitempty"`
}

// GleanConfig defines settings for the Glean indexing API
type GleanConfig struct {
	// BaseURL overrides https://<account>-be.glean.com
	BaseURL string `yaml:"baseUrl,omitempty"`

	// Datasource is the Glean datasource name documents and users are filed under
	Datasource string `yaml:"datasource,omitempty"`

	// BatchSize is the number of documents or users sent per upload page
	BatchSize int `yaml:"batchSize,omitempty"`
}

// NetSuiteConfig defines settings for the NetSuite SuiteQL API
type NetSuiteConfig struct {
	// BaseURL overrides https://<account>.suitetalk.api.netsuite.com
	BaseURL string `yaml:"baseUrl,omitempty"`

	// AppURL overrides https://<account>.app.netsuite.com, used for document view URLs
	AppURL string `yaml:"appUrl,omitempty"`

	// PageSize is sent as the maxpagesize preference (1..1000)
	PageSize int `yaml:"pageSize,omitempty"`

	// MaxConcurrentQueries bounds the number of SuiteQL queries in flight
	MaxConcurrentQueries int `yaml:"maxConcurrentQueries,omitempty"`

	// RequestsPerSecond rate limits calls to the SuiteQL endpoint
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
}

// WorkflowConfig defines timeouts for the onboarding workflow
type WorkflowConfig struct {
	// RequestTimeout bounds every remote call (e.g., "30s")
	RequestTimeout string `yaml:"requestTimeout,omitempty"`

	// StageTimeout bounds a whole stage invocation (e.g., "5m")
	StageTimeout string `yaml:"stageTimeout,omitempty"`

	// SessionTTL is how long an idle session is kept (e.g., "1h")
	SessionTTL string `yaml:"sessionTTL,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username used by the application
	User string `yaml:"user"`

	// MigrationUser is the database user used for running migrations.
	// Defaults to User when empty.
	MigrationUser string `yaml:"migrationUser,omitempty"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// DynamicAuth configures short-lived credentials instead of a static password
	DynamicAuth *DynamicAuthConfig `yaml:"dynamicAuth,omitempty"`
}

// DynamicAuthConfig defines dynamic database authentication methods
type DynamicAuthConfig struct {
	AWSRDSIAM *AWSRDSIAMConfig `yaml:"awsRdsIam,omitempty"`
}

// AWSRDSIAMConfig configures AWS RDS IAM authentication.
// Region may be "detect" to read it from the instance metadata service.
type AWSRDSIAMConfig struct {
	Region string `yaml:"region"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from NSGS_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(databasePasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", databasePasswordEnv,
	)
}

// GetMigrationUser returns the user migrations run as
func (d *DatabaseConfig) GetMigrationUser() string {
	if d.MigrationUser == "" {
		return d.User
	}
	return d.MigrationUser
}

// GetSSLMode returns the SSL mode, defaulting to "require"
func (d *DatabaseConfig) GetSSLMode() string {
	if d.SSLMode == "" {
		return defaultDatabaseSSLMode
	}
	return d.SSLMode
}

// BuildConnectionStringWithAuth builds a connection string for user with the
// given password. An empty password leaves authentication to pgpass or a
// BeforeConnect hook.
func (d *DatabaseConfig) BuildConnectionStringWithAuth(user, password string) string {
	userInfo := url.User(user)
	if password != "" {
		userInfo = url.UserPassword(user, password)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(d.GetSSLMode()),
	}
	return u.String()
}

// GetConnectionString builds a PostgreSQL connection string for the application user.
// With dynamic auth configured no password is embedded.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	if d.DynamicAuth != nil {
		return d.BuildConnectionStringWithAuth(d.User, ""), nil
	}

	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	return d.BuildConnectionStringWithAuth(d.User, password), nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetStorageType returns the configured storage type
func (c *Config) GetStorageType() string {
	if c.StorageType != "" {
		return c.StorageType
	}
	if c.Database != nil {
		return StorageTypeDatabase
	}
	return StorageTypeMemory
}

// GetEncryption returns the encryption settings, never nil
func (c *Config) GetEncryption() *EncryptionConfig {
	if c.Encryption == nil {
		return &EncryptionConfig{}
	}
	return c.Encryption
}

// GetKeyEnv returns the environment variable holding the sealing key
func (e *EncryptionConfig) GetKeyEnv() string {
	if e.KeyEnv == "" {
		return defaultEncryptionKeyEnv
	}
	return e.KeyEnv
}

// GetKeyID returns the key identifier stored with sealed rows
func (e *EncryptionConfig) GetKeyID() string {
	if e.KeyID == "" {
		return "default"
	}
	return e.KeyID
}

// GetGlean returns the Glean settings, never nil
func (c *Config) GetGlean() *GleanConfig {
	if c.Glean == nil {
		return &GleanConfig{}
	}
	return c.Glean
}

// GetDatasource returns the Glean datasource name
func (g *GleanConfig) GetDatasource() string {
	if g.Datasource == "" {
		return defaultGleanDatasource
	}
	return g.Datasource
}

// GetBatchSize returns the number of items per upload page
func (g *GleanConfig) GetBatchSize() int {
	if g.BatchSize <= 0 {
		return defaultGleanBatchSize
	}
	return g.BatchSize
}

// GetNetSuite returns the NetSuite settings, never nil
func (c *Config) GetNetSuite() *NetSuiteConfig {
	if c.NetSuite == nil {
		return &NetSuiteConfig{}
	}
	return c.NetSuite
}

// GetPageSize returns the SuiteQL page size
func (n *NetSuiteConfig) GetPageSize() int {
	if n.PageSize <= 0 {
		return defaultNetSuitePageSize
	}
	return n.PageSize
}

// GetMaxConcurrentQueries returns the SuiteQL concurrency limit
func (n *NetSuiteConfig) GetMaxConcurrentQueries() int {
	if n.MaxConcurrentQueries <= 0 {
		return defaultMaxConcurrentQueries
	}
	return n.MaxConcurrentQueries
}

// GetRequestsPerSecond returns the SuiteQL rate limit
func (n *NetSuiteConfig) GetRequestsPerSecond() float64 {
	if n.RequestsPerSecond <= 0 {
		return defaultRequestsPerSecond
	}
	return n.RequestsPerSecond
}

// GetWorkflow returns the workflow settings, never nil
func (c *Config) GetWorkflow() *WorkflowConfig {
	if c.Workflow == nil {
		return &WorkflowConfig{}
	}
	return c.Workflow
}

// GetRequestTimeout returns the per-request timeout for remote calls.
// Invalid values are rejected by validation, so parse errors fall back to the default.
func (w *WorkflowConfig) GetRequestTimeout() time.Duration {
	return parseDurationOr(w.RequestTimeout, defaultRequestTimeout)
}

// GetStageTimeout returns the timeout for a whole stage invocation
func (w *WorkflowConfig) GetStageTimeout() time.Duration {
	return parseDurationOr(w.StageTimeout, defaultStageTimeout)
}

// GetSessionTTL returns how long idle sessions are retained
func (w *WorkflowConfig) GetSessionTTL() time.Duration {
	return parseDurationOr(w.SessionTTL, defaultSessionTTL)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch c.GetStorageType() {
	case StorageTypeDatabase:
		if c.Database == nil {
			return fmt.Errorf("storageType %q requires a database section", StorageTypeDatabase)
		}
		if err := c.Database.validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("storageType must be one of %q or %q, got %q",
			StorageTypeDatabase, StorageTypeMemory, c.StorageType)
	}

	if err := c.Encryption.validate(); err != nil {
		return fmt.Errorf("encryption: %w", err)
	}
	if err := c.Glean.validate(); err != nil {
		return fmt.Errorf("glean: %w", err)
	}
	if err := c.NetSuite.validate(); err != nil {
		return fmt.Errorf("netsuite: %w", err)
	}
	if err := c.Workflow.validate(); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if d.User == "" {
		return fmt.Errorf("user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("connMaxLifetime must be a valid duration: %w", err)
		}
	}
	if d.DynamicAuth != nil {
		if d.DynamicAuth.AWSRDSIAM == nil {
			return fmt.Errorf("dynamicAuth requires a supported method (e.g., awsRdsIam)")
		}
		if d.DynamicAuth.AWSRDSIAM.Region == "" {
			return fmt.Errorf("dynamicAuth.awsRdsIam.region is required (use %q for IMDS detection)",
				awsRdsIamRegionDetectSetting)
		}
	}
	return nil
}

func (e *EncryptionConfig) validate() error {
	if e == nil {
		return nil
	}
	if e.AWSSecret != nil {
		if e.AWSSecret.SecretID == "" {
			return fmt.Errorf("awsSecret.secretId is required")
		}
		if e.AWSSecret.Endpoint != "" {
			if err := validateBaseURL(e.AWSSecret.Endpoint); err != nil {
				return fmt.Errorf("awsSecret.endpoint: %w", err)
			}
		}
	}
	return nil
}

func (g *GleanConfig) validate() error {
	if g == nil {
		return nil
	}
	if g.BaseURL != "" {
		if err := validateBaseURL(g.BaseURL); err != nil {
			return fmt.Errorf("baseUrl: %w", err)
		}
	}
	if g.BatchSize < 0 {
		return fmt.Errorf("batchSize cannot be negative")
	}
	return nil
}

func (n *NetSuiteConfig) validate() error {
	if n == nil {
		return nil
	}
	for name, value := range map[string]string{"baseUrl": n.BaseURL, "appUrl": n.AppURL} {
		if value == "" {
			continue
		}
		if err := validateBaseURL(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if n.PageSize < 0 || n.PageSize > maxNetSuitePageSize {
		return fmt.Errorf("pageSize must be between 1 and %d", maxNetSuitePageSize)
	}
	if n.MaxConcurrentQueries < 0 {
		return fmt.Errorf("maxConcurrentQueries cannot be negative")
	}
	if n.RequestsPerSecond < 0 {
		return fmt.Errorf("requestsPerSecond cannot be negative")
	}
	return nil
}

func (w *WorkflowConfig) validate() error {
	if w == nil {
		return nil
	}
	for name, value := range map[string]string{
		"requestTimeout": w.RequestTimeout,
		"stageTimeout":   w.StageTimeout,
		"sessionTTL":     w.SessionTTL,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s must be a valid duration (e.g., '30s', '5m'): %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
