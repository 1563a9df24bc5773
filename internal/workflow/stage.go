// Package workflow sequences the onboarding stages of a sync run and keeps
// the state of each run.
package workflow

import (
	"encoding/json"
	"fmt"
)

// Stage is a state of a WorkflowRun
type Stage int

// Stages in the order a run moves through them. Failed is reached from any
// working stage and leads back to the stage that failed.
const (
	CollectingCredentials Stage = iota
	IndexingUsers
	FetchingRecords
	BulkIndexing
	Completed
	Failed
)

var stageNames = map[Stage]string{
	CollectingCredentials: "CollectingCredentials",
	IndexingUsers:         "IndexingUsers",
	FetchingRecords:       "FetchingRecords",
	BulkIndexing:          "BulkIndexing",
	Completed:             "Completed",
	Failed:                "Failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalJSON writes the stage name
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// next returns the stage that follows a successful s
func (s Stage) next() Stage {
	switch s {
	case CollectingCredentials:
		return IndexingUsers
	case IndexingUsers:
		return FetchingRecords
	case FetchingRecords:
		return BulkIndexing
	default:
		return Completed
	}
}
