package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"github.com/gleansync/ns-glean-sync/internal/config"
)

// ErrNoKey is returned by LoadKey when no key source is configured or populated
var ErrNoKey = errors.New("no sealing key configured")

// AWS error codes handled explicitly when reading the key
const (
	resourceNotFoundException = "ResourceNotFoundException"
	accessDeniedException     = "AccessDeniedException"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used to read the key.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// KeyOption configures key loading
type KeyOption func(*keyLoader)

type keyLoader struct {
	secretsAPI SecretsManagerAPI
}

// WithSecretsManagerAPI injects the Secrets Manager client (for testing)
func WithSecretsManagerAPI(api SecretsManagerAPI) KeyOption {
	return func(l *keyLoader) {
		l.secretsAPI = api
	}
}

// LoadKey resolves the sealing key from, in order, the key file, AWS Secrets
// Manager or the key environment variable. Every source holds the key base64 encoded.
// ErrNoKey is returned when nothing is configured.
func LoadKey(ctx context.Context, cfg *config.EncryptionConfig, opts ...KeyOption) ([]byte, error) {
	if cfg == nil {
		cfg = &config.EncryptionConfig{}
	}

	loader := &keyLoader{}
	for _, opt := range opts {
		opt(loader)
	}

	switch {
	case cfg.KeyFile != "":
		data, err := os.ReadFile(filepath.Clean(cfg.KeyFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", cfg.KeyFile, err)
		}
		return decodeKey(string(data))

	case cfg.AWSSecret != nil:
		encoded, err := loader.fetchAWSSecret(ctx, cfg.AWSSecret)
		if err != nil {
			return nil, err
		}
		return decodeKey(encoded)

	default:
		encoded := os.Getenv(cfg.GetKeyEnv())
		if encoded == "" {
			return nil, ErrNoKey
		}
		return decodeKey(encoded)
	}
}

func (l *keyLoader) fetchAWSSecret(ctx context.Context, cfg *config.AWSSecretConfig) (string, error) {
	api := l.secretsAPI
	if api == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		api = secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	slog.InfoContext(ctx, "Reading sealing key from AWS Secrets Manager", "secret_id", cfg.SecretID)

	output, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(cfg.SecretID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case resourceNotFoundException:
				return "", fmt.Errorf("sealing key secret %s not found", cfg.SecretID)
			case accessDeniedException:
				return "", fmt.Errorf("access denied reading sealing key secret %s", cfg.SecretID)
			}
			return "", fmt.Errorf("GetSecretValue failed: %s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("GetSecretValue failed: %w", err)
	}

	switch {
	case output.SecretString != nil:
		return *output.SecretString, nil
	case output.SecretBinary != nil:
		return string(output.SecretBinary), nil
	default:
		return "", fmt.Errorf("sealing key secret %s has no value", cfg.SecretID)
	}
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("sealing key is not valid base64: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}
