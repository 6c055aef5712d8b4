package dao

import "time"

// Entry is one ledger line of the simulated token ledger. No real chain is
// involved; tx hashes are random and exist for display only.
type Entry struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	Recipient string    `gorm:"type:varchar(64);index;not null" json:"to"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	TxHash    string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"tx_hash"`
	Date      string    `gorm:"type:varchar(10);not null" json:"date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"-"`
}

func (Entry) TableName() string { return "dao_ledger" }

// CapRow is one aggregated cap-table row, sorted by shares descending.
type CapRow struct {
	Name       string  `json:"name"`
	Shares     int64   `json:"shares"`
	Percentage float64 `json:"percentage"`
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// SummaryJob tracks one async weekly-summary request through the queue.
type SummaryJob struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	RequestedBy string `gorm:"size:64;index;not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_dao_job_idempo,unique" json:"idempotency_key"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	Summary *string `gorm:"type:text"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SummaryJob) TableName() string { return "dao_summary_jobs" }
