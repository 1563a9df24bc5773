package workflow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CollectingCredentials", CollectingCredentials.String())
	assert.Equal(t, "BulkIndexing", BulkIndexing.String())
	assert.Equal(t, "Failed", Failed.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}

func TestStage_Next(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from Stage
		want Stage
	}{
		{CollectingCredentials, IndexingUsers},
		{IndexingUsers, FetchingRecords},
		{FetchingRecords, BulkIndexing},
		{BulkIndexing, Completed},
	}
	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.next())
		})
	}
}

func TestStage_MarshalJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		Stage Stage `json:"stage"`
	}{Stage: FetchingRecords})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"FetchingRecords"}`, string(b))
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := NewError(KindTransport, IndexingUsers, "remote service unreachable", cause)

	assert.Equal(t, "IndexingUsers transport: remote service unreachable", err.Error())
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRemote)
	assert.True(t, err.Retryable())

	seq := sequenceError(FetchingRecords, "cannot run %s", FetchingRecords)
	assert.Equal(t, "cannot run FetchingRecords", seq.Message)
	assert.ErrorIs(t, seq, ErrSequence)
	assert.False(t, seq.Retryable())

	b, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	assert.JSONEq(t, `{"kind":"transport","stage":"IndexingUsers","message":"remote service unreachable"}`, string(b))
}
