package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ItemError reports the failure of one entry of a bulk request, keyed by the
// entry's position in the request.
type ItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type BulkCreateResult struct {
	Message          string               `json:"message"`
	SuccessCount     int                  `json:"successCount"`
	FailedCount      int                  `json:"failedCount"`
	InsertedProducts []primitive.ObjectID `json:"insertedProducts"`
	Errors           []ItemError          `json:"errors"`
}

// Partial reports whether some entries failed.
func (r *BulkCreateResult) Partial() bool {
	return r.FailedCount > 0
}

type BulkUpdateResult struct {
	Message       string      `json:"message"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	Errors        []ItemError `json:"errors"`
}

func (r *BulkUpdateResult) Partial() bool {
	return len(r.Errors) > 0
}

// Bulk job states.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobDone       = "done"
	JobFailed     = "failed"
)

// BulkJob is the status record of an asynchronous bulk create.
type BulkJob struct {
	ID     string            `json:"jobId"`
	Status string            `json:"status"`
	Result *BulkCreateResult `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}
