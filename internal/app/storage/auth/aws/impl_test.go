package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleansync/ns-glean-sync/internal/config"
)

func TestGetRegion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        *config.DatabaseConfig
		wantRegion string
		errMsg     string
	}{
		{
			name: "static region",
			cfg: &config.DatabaseConfig{
				Host: "db.example.com",
				Port: 5432,
				User: "nsgs",
				DynamicAuth: &config.DynamicAuthConfig{
					AWSRDSIAM: &config.AWSRDSIAMConfig{Region: "eu-west-1"},
				},
			},
			wantRegion: "eu-west-1",
		},
		{
			name: "empty region",
			cfg: &config.DatabaseConfig{
				DynamicAuth: &config.DynamicAuthConfig{
					AWSRDSIAM: &config.AWSRDSIAMConfig{},
				},
			},
			errMsg: "AWS RDS IAM region is not configured",
		},
		{
			name:   "no dynamic auth",
			cfg:    &config.DatabaseConfig{},
			errMsg: "AWS RDS IAM region is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			region, err := getRegion(context.Background(), tt.cfg)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRegion, region)
		})
	}
}
