package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// asJSON marshals a value destined for a serializer:json column. gorm runs
// the serializer for struct writes but not for map-based Updates, so those
// columns are serialized by hand here.
func asJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.Progress.Stage == "" {
		job.Progress = Progress{Stage: StatusPending, Message: "Job created"}
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJob returns (nil, nil) when the job does not exist.
func (r *Repo) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

func (r *Repo) UpdateJobProgress(ctx context.Context, id string, status Status, p Progress) error {
	prog, err := asJSON(p)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   status,
			"progress": prog,
		}).Error
}

func (r *Repo) MarkJobCompleted(ctx context.Context, id string, p Progress) error {
	prog, err := asJSON(p)
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       StatusCompleted,
			"progress":     prog,
			"error":        nil,
			"completed_at": &now,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, id string, errMsg string) error {
	prog, err := asJSON(Progress{Stage: StatusFailed, Message: errMsg})
	if err != nil {
		return err
	}
	now := time.Now()
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       StatusFailed,
			"progress":     prog,
			"error":        errMsg,
			"completed_at": &now,
		}).Error
}

func (r *Repo) InsertTranscript(ctx context.Context, t *Transcript) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// UpdateTranscriptCleaned writes the cleaned text and speaker list once,
// after the cleaning stage succeeds. Raw text is never touched.
func (r *Repo) UpdateTranscriptCleaned(ctx context.Context, jobID, cleanedText string, speakers []string) error {
	spk, err := asJSON(speakers)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&Transcript{}).
		Where("job_id = ?", jobID).
		Updates(map[string]any{
			"cleaned_text": cleanedText,
			"speakers":     spk,
		}).Error
}

// GetTranscript returns (nil, nil) when no transcript exists for the job.
func (r *Repo) GetTranscript(ctx context.Context, jobID string) (*Transcript, error) {
	var t Transcript
	if err := r.db.WithContext(ctx).First(&t, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repo) InsertSummary(ctx context.Context, s *Summary) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetSummary returns (nil, nil) when no summary exists for the job.
func (r *Repo) GetSummary(ctx context.Context, jobID string) (*Summary, error) {
	var s Summary
	if err := r.db.WithContext(ctx).First(&s, "job_id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) ListRecentJobs(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []Job
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
