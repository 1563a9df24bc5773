// Package stages implements the work behind each onboarding stage: storing
// credentials, indexing users, fetching ERP records and bulk indexing them.
package stages

import (
	"context"
	"errors"
	"fmt"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/glean"
	"github.com/gleansync/ns-glean-sync/internal/httpclient"
	"github.com/gleansync/ns-glean-sync/internal/netsuite"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
)

//go:generate mockgen -destination=mocks/mock_stages.go -package=mocks -source=stages.go UserDirectory,RecordSource,Indexer

// UserDirectory lists the ERP users that should be searchable
type UserDirectory interface {
	ListUserEmails(ctx context.Context, creds credentials.CredentialSet) ([]string, error)
}

// RecordSource fetches ERP records as search documents
type RecordSource interface {
	FetchDocuments(ctx context.Context, creds credentials.CredentialSet) (*netsuite.FetchResult, error)
}

// Indexer uploads users and documents to the search platform
type Indexer interface {
	IndexUsers(ctx context.Context, creds credentials.CredentialSet, emails []string) (*glean.UploadResult, error)
	IndexDocuments(ctx context.Context, creds credentials.CredentialSet, docs []glean.Document) (*glean.UploadResult, error)
}

// Handlers implements workflow.Handlers
type Handlers struct {
	store   credentials.Store
	users   UserDirectory
	records RecordSource
	indexer Indexer
}

var _ workflow.Handlers = (*Handlers)(nil)

// New creates the stage handlers
func New(store credentials.Store, users UserDirectory, records RecordSource, indexer Indexer) *Handlers {
	return &Handlers{
		store:   store,
		users:   users,
		records: records,
		indexer: indexer,
	}
}

// StoreCredentials validates and saves the credential set. Nothing is written
// when validation fails.
func (h *Handlers) StoreCredentials(ctx context.Context, creds credentials.CredentialSet) workflow.StageResult {
	id, err := h.store.Save(ctx, creds)
	if err != nil {
		var ve *credentials.ValidationError
		if errors.As(err, &ve) {
			e := workflow.NewError(workflow.KindValidation, workflow.CollectingCredentials, ve.Error(), err)
			e.Fields = ve.MissingFields
			return workflow.FailedWith(e, nil)
		}
		return workflow.FailedWith(storageError(workflow.CollectingCredentials, err), nil)
	}

	return workflow.Succeeded("Credentials saved", &workflow.Payload{CredentialID: id})
}

// IndexUsers pushes every NetSuite employee with access to Glean as an active user
func (h *Handlers) IndexUsers(ctx context.Context, credentialID string) workflow.StageResult {
	const stage = workflow.IndexingUsers

	creds, failed := h.load(ctx, stage, credentialID)
	if failed != nil {
		return *failed
	}

	emails, err := h.users.ListUserEmails(ctx, *creds)
	if err != nil {
		return workflow.FailedWith(classify(stage, err), nil)
	}
	if len(emails) == 0 {
		return workflow.Succeeded("No active employees with email addresses found to index",
			&workflow.Payload{UsersIndexed: workflow.IntPtr(0)})
	}

	result, err := h.indexer.IndexUsers(ctx, *creds, emails)
	if err != nil {
		return workflow.FailedWith(classify(stage, err), nil)
	}

	return workflow.Succeeded(fmt.Sprintf("Indexed %d users", result.ItemsAccepted), &workflow.Payload{
		UsersIndexed: workflow.IntPtr(result.ItemsAccepted),
		BatchesTotal: result.Batches,
	})
}

// FetchRecords fetches every object type. Documents travel in the payload to
// the coordinator, which buffers them for BulkIndexDocuments.
func (h *Handlers) FetchRecords(ctx context.Context, credentialID string) workflow.StageResult {
	const stage = workflow.FetchingRecords

	creds, failed := h.load(ctx, stage, credentialID)
	if failed != nil {
		return *failed
	}

	result, err := h.records.FetchDocuments(ctx, *creds)
	if err != nil {
		return workflow.FailedWith(classify(stage, err), nil)
	}

	return workflow.Succeeded(
		fmt.Sprintf("Fetched %d records across %d object types", len(result.Documents), len(result.Counts)),
		&workflow.Payload{
			RecordCounts: result.Counts,
			Documents:    result.Documents,
		},
	)
}

// BulkIndexDocuments uploads the documents in batches. When a batch fails
// after earlier batches were accepted the result reports the accepted count.
func (h *Handlers) BulkIndexDocuments(
	ctx context.Context,
	credentialID string,
	docs []glean.Document,
) workflow.StageResult {
	const stage = workflow.BulkIndexing

	creds, failed := h.load(ctx, stage, credentialID)
	if failed != nil {
		return *failed
	}

	if len(docs) == 0 {
		return workflow.Succeeded("No documents to index", &workflow.Payload{DocumentsIndexed: workflow.IntPtr(0)})
	}

	result, err := h.indexer.IndexDocuments(ctx, *creds, docs)
	if err != nil {
		payload := &workflow.Payload{}
		if result != nil {
			payload.BatchesTotal = result.Batches
			payload.PartialSuccessCount = workflow.IntPtr(result.BatchesAccepted)
			payload.DocumentsIndexed = workflow.IntPtr(result.ItemsAccepted)
		}
		return workflow.FailedWith(classify(stage, err), payload)
	}

	return workflow.Succeeded(
		fmt.Sprintf("Indexed %d documents in %d batches", result.ItemsAccepted, result.Batches),
		&workflow.Payload{
			DocumentsIndexed: workflow.IntPtr(result.ItemsAccepted),
			BatchesTotal:     result.Batches,
		},
	)
}

// load reads the credential set for a stage. The set is only held for the call.
func (h *Handlers) load(
	ctx context.Context,
	stage workflow.Stage,
	credentialID string,
) (*credentials.CredentialSet, *workflow.StageResult) {
	creds, err := h.store.Get(ctx, credentialID)
	if err != nil {
		r := workflow.FailedWith(storageError(stage, err), nil)
		return nil, &r
	}
	return creds, nil
}

func storageError(stage workflow.Stage, err error) *workflow.Error {
	if errors.Is(err, credentials.ErrNotFound) {
		return workflow.NewError(workflow.KindStorage, stage, "stored credentials not found", err)
	}
	return workflow.NewError(workflow.KindStorage, stage, err.Error(), err)
}

// classify maps a remote call failure onto the error taxonomy. Non-2xx
// responses keep the remote message verbatim.
func classify(stage workflow.Stage, err error) *workflow.Error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return workflow.NewError(workflow.KindRemote, stage, httpErr.Message, err)
	}

	var transportErr *httpclient.TransportError
	if errors.As(err, &transportErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		msg := "remote service unreachable"
		if httpclient.IsTimeout(err) {
			msg = "remote service timed out"
		}
		return workflow.NewError(workflow.KindTransport, stage, fmt.Sprintf("%s: %v", msg, err), err)
	}

	return workflow.NewError(workflow.KindRemote, stage, err.Error(), err)
}
