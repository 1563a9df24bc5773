package stages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	credmocks "github.com/gleansync/ns-glean-sync/internal/credentials/mocks"
	"github.com/gleansync/ns-glean-sync/internal/glean"
	"github.com/gleansync/ns-glean-sync/internal/httpclient"
	"github.com/gleansync/ns-glean-sync/internal/netsuite"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
	"github.com/gleansync/ns-glean-sync/internal/workflow/stages/mocks"
)

const testCredentialID = "7b0f3c8e-4f0e-4a47-9a43-0a3f1f0c2d11"

func testCreds() *credentials.CredentialSet {
	return &credentials.CredentialSet{
		GleanAccount:   "acme",
		GleanToken:     "glean-token",
		AccountID:      "1234567_SB1",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		Token:          "tk",
		TokenSecret:    "ts",
	}
}

type fixture struct {
	store   *credmocks.MockStore
	users   *mocks.MockUserDirectory
	records *mocks.MockRecordSource
	indexer *mocks.MockIndexer
	h       *Handlers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:   credmocks.NewMockStore(ctrl),
		users:   mocks.NewMockUserDirectory(ctrl),
		records: mocks.NewMockRecordSource(ctrl),
		indexer: mocks.NewMockIndexer(ctrl),
	}
	f.h = New(f.store, f.users, f.records, f.indexer)
	return f
}

func TestStoreCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		saveErr    error
		wantOK     bool
		wantKind   workflow.Kind
		wantFields []string
	}{
		{
			name:   "saved",
			wantOK: true,
		},
		{
			name:       "missing fields",
			saveErr:    &credentials.ValidationError{MissingFields: []string{"gleanToken", "tokenSecret"}},
			wantKind:   workflow.KindValidation,
			wantFields: []string{"gleanToken", "tokenSecret"},
		},
		{
			name:     "store unavailable",
			saveErr:  errors.New("connection refused"),
			wantKind: workflow.KindStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			id := testCredentialID
			if tt.saveErr != nil {
				id = ""
			}
			f.store.EXPECT().Save(gomock.Any(), *testCreds()).Return(id, tt.saveErr)

			result := f.h.StoreCredentials(context.Background(), *testCreds())

			assert.Equal(t, tt.wantOK, result.OK)
			if tt.wantOK {
				require.NotNil(t, result.Payload)
				assert.Equal(t, testCredentialID, result.Payload.CredentialID)
				assert.Nil(t, result.Err)
				return
			}
			require.NotNil(t, result.Err)
			assert.Equal(t, tt.wantKind, result.Err.Kind)
			assert.Equal(t, workflow.CollectingCredentials, result.Err.Stage)
			assert.Equal(t, tt.wantFields, result.Err.Fields)
			assert.Equal(t, result.Err.Message, result.Message)
		})
	}
}

func TestIndexUsers(t *testing.T) {
	t.Parallel()

	t.Run("indexes every employee", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		emails := []string{"a@acme.com", "b@acme.com"}

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.users.EXPECT().ListUserEmails(gomock.Any(), *testCreds()).Return(emails, nil)
		f.indexer.EXPECT().IndexUsers(gomock.Any(), *testCreds(), emails).
			Return(&glean.UploadResult{UploadID: "u1", Items: 2, Batches: 1, BatchesAccepted: 1, ItemsAccepted: 2}, nil)

		result := f.h.IndexUsers(context.Background(), testCredentialID)

		require.True(t, result.OK)
		assert.Equal(t, "Indexed 2 users", result.Message)
		require.NotNil(t, result.Payload.UsersIndexed)
		assert.Equal(t, 2, *result.Payload.UsersIndexed)
		assert.Equal(t, 1, result.Payload.BatchesTotal)
	})

	t.Run("no employees skips the upload", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.users.EXPECT().ListUserEmails(gomock.Any(), gomock.Any()).Return(nil, nil)

		result := f.h.IndexUsers(context.Background(), testCredentialID)

		require.True(t, result.OK)
		require.NotNil(t, result.Payload.UsersIndexed)
		assert.Zero(t, *result.Payload.UsersIndexed)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(nil, credentials.ErrNotFound)

		result := f.h.IndexUsers(context.Background(), testCredentialID)

		require.False(t, result.OK)
		assert.Equal(t, workflow.KindStorage, result.Err.Kind)
		assert.Equal(t, "stored credentials not found", result.Err.Message)
		assert.ErrorIs(t, result.Err, credentials.ErrNotFound)
	})

	t.Run("search platform rejects the upload", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.users.EXPECT().ListUserEmails(gomock.Any(), gomock.Any()).Return([]string{"a@acme.com"}, nil)
		f.indexer.EXPECT().IndexUsers(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&glean.UploadResult{Items: 1, Batches: 1},
				fmt.Errorf("upload page 1 of 1 failed: %w",
					httpclient.NewHTTPError(http.StatusUnauthorized, "https://acme-be.glean.com", `{"error":"invalid token"}`)))

		result := f.h.IndexUsers(context.Background(), testCredentialID)

		require.False(t, result.OK)
		assert.Equal(t, workflow.KindRemote, result.Err.Kind)
		assert.Equal(t, `{"error":"invalid token"}`, result.Err.Message)
	})
}

func TestFetchRecords(t *testing.T) {
	t.Parallel()

	t.Run("returns documents and counts", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		docs := []glean.Document{{ID: "DOCNS_INV-1_1"}, {ID: "DOCNS_INV-2_2"}}

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.records.EXPECT().FetchDocuments(gomock.Any(), *testCreds()).Return(&netsuite.FetchResult{
			Documents: docs,
			Counts:    map[string]int{"custinvc": 2, "vendor": 0},
		}, nil)

		result := f.h.FetchRecords(context.Background(), testCredentialID)

		require.True(t, result.OK)
		assert.Equal(t, "Fetched 2 records across 2 object types", result.Message)
		assert.Equal(t, docs, result.Payload.Documents)
		assert.Equal(t, map[string]int{"custinvc": 2, "vendor": 0}, result.Payload.RecordCounts)
	})

	t.Run("query failure is a remote error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.records.EXPECT().FetchDocuments(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("vendor query failed: %w",
				httpclient.NewHTTPError(http.StatusBadRequest, "https://x", "Invalid search query")))

		result := f.h.FetchRecords(context.Background(), testCredentialID)

		require.False(t, result.OK)
		assert.Equal(t, workflow.KindRemote, result.Err.Kind)
		assert.Equal(t, "Invalid search query", result.Message)
		assert.Nil(t, result.Payload)
	})
}

func TestBulkIndexDocuments(t *testing.T) {
	t.Parallel()

	docs := []glean.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	t.Run("all batches accepted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.indexer.EXPECT().IndexDocuments(gomock.Any(), *testCreds(), docs).
			Return(&glean.UploadResult{Items: 3, Batches: 2, BatchesAccepted: 2, ItemsAccepted: 3}, nil)

		result := f.h.BulkIndexDocuments(context.Background(), testCredentialID, docs)

		require.True(t, result.OK)
		assert.Equal(t, "Indexed 3 documents in 2 batches", result.Message)
		assert.Equal(t, 3, *result.Payload.DocumentsIndexed)
		assert.Nil(t, result.Payload.PartialSuccessCount)
	})

	t.Run("second batch rejected", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)
		f.indexer.EXPECT().IndexDocuments(gomock.Any(), gomock.Any(), docs).
			Return(&glean.UploadResult{Items: 3, Batches: 2, BatchesAccepted: 1, ItemsAccepted: 2},
				fmt.Errorf("upload page 2 of 2 failed: %w",
					httpclient.NewHTTPError(http.StatusRequestEntityTooLarge, "https://x", "payload too large")))

		result := f.h.BulkIndexDocuments(context.Background(), testCredentialID, docs)

		require.False(t, result.OK)
		assert.Equal(t, workflow.KindRemote, result.Err.Kind)
		assert.Equal(t, "payload too large", result.Err.Message)
		require.NotNil(t, result.Payload)
		assert.Equal(t, 1, *result.Payload.PartialSuccessCount)
		assert.Equal(t, 2, *result.Payload.DocumentsIndexed)
		assert.Equal(t, 2, result.Payload.BatchesTotal)
	})

	t.Run("nothing to index", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		f.store.EXPECT().Get(gomock.Any(), testCredentialID).Return(testCreds(), nil)

		result := f.h.BulkIndexDocuments(context.Background(), testCredentialID, nil)

		require.True(t, result.OK)
		assert.Zero(t, *result.Payload.DocumentsIndexed)
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind workflow.Kind
		wantMsg  string
	}{
		{
			name:     "http error keeps the body",
			err:      httpclient.NewHTTPError(http.StatusForbidden, "https://x", "INVALID_LOGIN"),
			wantKind: workflow.KindRemote,
			wantMsg:  "INVALID_LOGIN",
		},
		{
			name:     "connection failure",
			err:      &httpclient.TransportError{URL: "https://x", Err: errors.New("connection refused")},
			wantKind: workflow.KindTransport,
			wantMsg:  "remote service unreachable: request to https://x failed: connection refused",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("wrapped: %w", context.DeadlineExceeded),
			wantKind: workflow.KindTransport,
		},
		{
			name:     "decode failure",
			err:      errors.New("failed to decode response"),
			wantKind: workflow.KindRemote,
			wantMsg:  "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classify(workflow.FetchingRecords, tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, workflow.FetchingRecords, got.Stage)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
			assert.True(t, got.Retryable())
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
