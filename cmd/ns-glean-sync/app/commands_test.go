package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gleansync/ns-glean-sync/internal/workflow"
)

func TestVersionCmd_JSON(t *testing.T) {
	t.Parallel()

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--format", "json"})

	require.NoError(t, cmd.Execute())

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
	assert.Contains(t, info, "platform")
}

func TestVersionCmd_Text(t *testing.T) {
	t.Parallel()

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "ns-glean-sync "))
}

func TestLoadCredentialsFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
		check   func(*testing.T, string)
	}{
		{
			name: "complete file",
			content: `gleanAccount: acme
gleanToken: glean-token
accountId: "1234567_SB1"
consumerKey: ck
consumerSecret: cs
token: tk
tokenSecret: ts
`,
			check: func(t *testing.T, path string) {
				t.Helper()
				creds, err := loadCredentialsFile(path)
				require.NoError(t, err)
				assert.Equal(t, "acme", creds.GleanAccount)
				assert.Equal(t, "1234567_SB1", creds.AccountID)
				assert.Equal(t, "ts", creds.TokenSecret)
			},
		},
		{
			name:    "partial file is left to store validation",
			content: "gleanAccount: acme\n",
			check: func(t *testing.T, path string) {
				t.Helper()
				creds, err := loadCredentialsFile(path)
				require.NoError(t, err)
				assert.Equal(t, "acme", creds.GleanAccount)
				assert.Empty(t, creds.GleanToken)
			},
		},
		{
			name:    "malformed yaml",
			content: "gleanAccount: [unterminated\n",
			wantErr: "failed to parse credentials file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "creds.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			if tt.wantErr != "" {
				_, err := loadCredentialsFile(path)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			tt.check(t, path)
		})
	}
}

func TestLoadCredentialsFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := loadCredentialsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read credentials file")

	_, err = loadCredentialsFile("")
	require.Error(t, err)
}

func TestConfirmFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"  y  \n", true},
		{"yes", true},
		{"no\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			got := confirmFrom(strings.NewReader(tt.input), &out, "Continue?")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? (yes/no): ", out.String())
		})
	}
}

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []workflow.StageResult{
		workflow.Succeeded("Credentials saved", &workflow.Payload{CredentialID: "cred-1"}),
		workflow.FailedWith(workflow.NewError(workflow.KindRemote, workflow.IndexingUsers, "401 Unauthorized", nil), nil),
	}

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		cmd := newSyncCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, printResults(cmd, "", results))
		assert.Equal(t, "ok       Credentials saved\nfailed   401 Unauthorized\n", out.String())
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		cmd := newSyncCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, printResults(cmd, "json", results))

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, true, decoded[0]["ok"])
		assert.Equal(t, false, decoded[1]["ok"])
	})
}
