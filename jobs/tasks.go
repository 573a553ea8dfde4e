package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity recomputes distributed totals across all offerings
	// and reports any that exceed their collected amount.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskMemberDigest summarises recent member activity.
	TaskMemberDigest = "members:digest"
)

// MemberDigestPayload bounds the digest window.
type MemberDigestPayload struct {
	Days int `json:"days"`
}

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewMemberDigestTask constructs a member digest task.
func NewMemberDigestTask(payload MemberDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMemberDigest, data), nil
}
