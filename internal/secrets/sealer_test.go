package secrets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleansync/ns-glean-sync/internal/config"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := NewRandomKey()
	require.NoError(t, err)
	return key
}

func TestSealer_RoundTrip(t *testing.T) {
	t.Parallel()

	sealer, err := NewSealer(testKey(t), "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", sealer.KeyID())

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{name: "token", plaintext: []byte("glean-api-token")},
		{name: "empty", plaintext: []byte{}},
		{name: "binary", plaintext: []byte{0x00, 0xff, 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sealed, err := sealer.Seal(tt.plaintext)
			require.NoError(t, err)
			if len(tt.plaintext) > 0 {
				assert.False(t, bytes.Contains(sealed, tt.plaintext), "sealed value must not contain the plaintext")
			}

			opened, err := sealer.Open(sealed)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.plaintext, opened))
		})
	}
}

func TestSealer_NonceIsRandom(t *testing.T) {
	t.Parallel()

	sealer, err := NewSealer(testKey(t), "k1")
	require.NoError(t, err)

	a, err := sealer.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_OpenRejectsTamperingAndWrongKey(t *testing.T) {
	t.Parallel()

	sealer, err := NewSealer(testKey(t), "k1")
	require.NoError(t, err)
	other, err := NewSealer(testKey(t), "k2")
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("secret"))
	require.NoError(t, err)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = sealer.Open(tampered)
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrMalformedCiphertext)

	_, err = sealer.Open([]byte("short"))
	assert.ErrorIs(t, err, ErrMalformedCiphertext)
}

func TestNewSealer_InvalidKey(t *testing.T) {
	t.Parallel()

	_, err := NewSealer([]byte("too-short"), "k")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

type fakeSecretsAPI struct {
	output *secretsmanager.GetSecretValueOutput
	err    error
	gotID  string
}

func (f *fakeSecretsAPI) GetSecretValue(
	_ context.Context,
	params *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	f.gotID = aws.ToString(params.SecretId)
	return f.output, f.err
}

func TestLoadKey_FromFile(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString(key)+"\n"), 0600))

	got, err := LoadKey(context.Background(), &config.EncryptionConfig{KeyFile: path})
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestLoadKey_FromEnv(t *testing.T) {
	key := testKey(t)
	t.Setenv("TEST_NSGS_SEAL_KEY", base64.StdEncoding.EncodeToString(key))

	got, err := LoadKey(context.Background(), &config.EncryptionConfig{KeyEnv: "TEST_NSGS_SEAL_KEY"})
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestLoadKey_NothingConfigured(t *testing.T) {
	t.Setenv("TEST_NSGS_EMPTY_KEY", "")

	_, err := LoadKey(context.Background(), &config.EncryptionConfig{KeyEnv: "TEST_NSGS_EMPTY_KEY"})
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestLoadKey_InvalidEncoding(t *testing.T) {
	t.Setenv("TEST_NSGS_BAD_KEY", "not base64!!")

	_, err := LoadKey(context.Background(), &config.EncryptionConfig{KeyEnv: "TEST_NSGS_BAD_KEY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid base64")
}

func TestLoadKey_FromAWSSecret(t *testing.T) {
	t.Parallel()

	key := testKey(t)
	encoded := base64.StdEncoding.EncodeToString(key)

	tests := []struct {
		name    string
		api     *fakeSecretsAPI
		wantKey []byte
		wantErr string
	}{
		{
			name:    "secret string",
			api:     &fakeSecretsAPI{output: &secretsmanager.GetSecretValueOutput{SecretString: aws.String(encoded)}},
			wantKey: key,
		},
		{
			name:    "secret binary",
			api:     &fakeSecretsAPI{output: &secretsmanager.GetSecretValueOutput{SecretBinary: []byte(encoded)}},
			wantKey: key,
		},
		{
			name: "not found",
			api: &fakeSecretsAPI{err: &smithy.GenericAPIError{
				Code: resourceNotFoundException, Message: "nope",
			}},
			wantErr: "not found",
		},
		{
			name: "access denied",
			api: &fakeSecretsAPI{err: &smithy.GenericAPIError{
				Code: accessDeniedException, Message: "denied",
			}},
			wantErr: "access denied",
		},
		{
			name:    "transport failure",
			api:     &fakeSecretsAPI{err: errors.New("dial tcp: timeout")},
			wantErr: "GetSecretValue failed",
		},
		{
			name:    "empty secret",
			api:     &fakeSecretsAPI{output: &secretsmanager.GetSecretValueOutput{}},
			wantErr: "has no value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.EncryptionConfig{AWSSecret: &config.AWSSecretConfig{SecretID: "nsgs/sealing-key"}}
			got, err := LoadKey(context.Background(), cfg, WithSecretsManagerAPI(tt.api))
			assert.Equal(t, "nsgs/sealing-key", tt.api.gotID)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, got)
		})
	}
}
