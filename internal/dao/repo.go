package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Entry{}, &SummaryJob{})
}

func (r *Repo) InsertEntry(ctx context.Context, e *Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ListEntries returns the ledger in insertion order.
func (r *Repo) ListEntries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repo) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Entry{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Job CRUD
func (r *Repo) CreateJob(ctx context.Context, job *SummaryJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetJobByID(ctx context.Context, id string) (*SummaryJob, error) {
	var j SummaryJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobStatusRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&SummaryJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, id string, summary string) error {
	return r.db.WithContext(ctx).Model(&SummaryJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  JobSucceeded,
			"summary": summary,
			"error":   nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&SummaryJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  JobFailed,
			"error":   errMsg,
			"summary": nil,
		}).Error
}

func (r *Repo) GetJobByRequesterAndIdempotencyKey(ctx context.Context, requestedBy, key string) (*SummaryJob, error) {
	var job SummaryJob
	err := r.db.WithContext(ctx).
		Where("requested_by = ? AND idempotency_key = ?", requestedBy, key).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CreateJobOrGetExisting tries to create a job; if the idempotency key was
// already used by the same requester it returns the existing job instead.
// The bool reports whether a new job was created.
func (r *Repo) CreateJobOrGetExisting(ctx context.Context, job *SummaryJob) (*SummaryJob, bool, error) {
	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
			return nil, false, err
		}
		return job, true, nil
	}

	err := r.db.WithContext(ctx).Create(job).Error
	if err == nil {
		return job, true, nil
	}

	existing, getErr := r.GetJobByRequesterAndIdempotencyKey(ctx, job.RequestedBy, *job.IdempotencyKey)
	if getErr == nil {
		return existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}
