// Package aws mints AWS RDS IAM authentication tokens for PostgreSQL connections.
package aws

import (
	"context"
	"fmt"
	"net/http"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/jackc/pgx/v5"

	"github.com/gleansync/ns-glean-sync/internal/config"
)

const (
	regionDetect = "detect"
	imdsTimeout  = 2 * time.Second
)

// getRegion resolves the configured region, asking IMDS when it is "detect"
func getRegion(ctx context.Context, cfg *config.DatabaseConfig) (string, error) {
	if cfg.DynamicAuth == nil || cfg.DynamicAuth.AWSRDSIAM == nil || cfg.DynamicAuth.AWSRDSIAM.Region == "" {
		return "", fmt.Errorf("AWS RDS IAM region is not configured")
	}

	region := cfg.DynamicAuth.AWSRDSIAM.Region
	if region != regionDetect {
		return region, nil
	}

	client := imds.New(imds.Options{HTTPClient: &http.Client{Timeout: imdsTimeout}})
	out, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get region from IMDS: %w", err)
	}
	return out.Region, nil
}

// tokenBuilder signs tokens for one database endpoint with cached AWS credentials
type tokenBuilder struct {
	endpoint string
	region   string
	user     string
	creds    awssdk.CredentialsProvider
}

func newTokenBuilder(ctx context.Context, cfg *config.DatabaseConfig, user string) (*tokenBuilder, error) {
	region, err := getRegion(ctx, cfg)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &tokenBuilder{
		endpoint: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		region:   region,
		user:     user,
		creds:    awssdk.NewCredentialsCache(awsCfg.Credentials),
	}, nil
}

func (b *tokenBuilder) token(ctx context.Context) (string, error) {
	token, err := auth.BuildAuthToken(ctx, b.endpoint, b.region, b.user, b.creds)
	if err != nil {
		return "", fmt.Errorf("failed to build authentication token: %w", err)
	}
	return token, nil
}

// NewToken returns a single RDS IAM token for user, usable as a connection password
func NewToken(ctx context.Context, cfg *config.DatabaseConfig, user string) (string, error) {
	b, err := newTokenBuilder(ctx, cfg, user)
	if err != nil {
		return "", err
	}
	return b.token(ctx)
}

// PgxAuthFunc returns a pgx BeforeConnect hook that sets a fresh token as the
// password of every new connection. The workload's role must be allowed to
// connect as user.
func PgxAuthFunc(
	ctx context.Context,
	cfg *config.DatabaseConfig,
	user string,
) (func(ctx context.Context, connConfig *pgx.ConnConfig) error, error) {
	b, err := newTokenBuilder(ctx, cfg, user)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, connConfig *pgx.ConnConfig) error {
		token, err := b.token(ctx)
		if err != nil {
			return err
		}
		connConfig.Password = token
		return nil
	}, nil
}
