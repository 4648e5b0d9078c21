package pipeline

import (
	"context"
	"fmt"
	"log"

	"podbrief/internal/jobs"
	"podbrief/internal/youtube"
)

// Store is the slice of persistence the orchestrator needs. Each call is
// an independent write keyed by job id; no cross-call transaction is
// assumed.
type Store interface {
	GetJob(ctx context.Context, id string) (*jobs.Job, error)
	UpdateJobProgress(ctx context.Context, id string, status jobs.Status, p jobs.Progress) error
	MarkJobCompleted(ctx context.Context, id string, p jobs.Progress) error
	MarkJobFailed(ctx context.Context, id string, errMsg string) error
	InsertTranscript(ctx context.Context, t *jobs.Transcript) error
	UpdateTranscriptCleaned(ctx context.Context, jobID, cleanedText string, speakers []string) error
	InsertSummary(ctx context.Context, s *jobs.Summary) error
}

type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

type TranscriptCleaner interface {
	Clean(ctx context.Context, rawText string, meta youtube.Metadata, onProgress ProgressFunc) (CleanResult, error)
}

type SummaryGenerator interface {
	Summarize(ctx context.Context, cleanedText string, meta youtube.Metadata) (string, error)
}

// Notifier sends the optional completion notice. Failures are logged only.
type Notifier interface {
	SendCompletion(ctx context.Context, to, jobURL, videoTitle string) error
}

// ProgressCache mirrors progress for cheap polling. Best-effort.
type ProgressCache interface {
	SetProgress(ctx context.Context, jobID string, p jobs.Progress) error
}

// Processor drives one job through fetch → clean → summarize, persisting
// progress after every transition. There is no job-level retry; faults are
// retried only inside individual provider calls.
type Processor struct {
	store      Store
	fetcher    TranscriptFetcher
	cleaner    TranscriptCleaner
	summarizer SummaryGenerator
	notifier   Notifier      // may be nil
	cache      ProgressCache // may be nil
	appURL     string
}

func NewProcessor(store Store, fetcher TranscriptFetcher, cleaner TranscriptCleaner, summarizer SummaryGenerator, notifier Notifier, cache ProgressCache, appURL string) *Processor {
	return &Processor{
		store:      store,
		fetcher:    fetcher,
		cleaner:    cleaner,
		summarizer: summarizer,
		notifier:   notifier,
		cache:      cache,
		appURL:     appURL,
	}
}

// ProcessJob runs the whole pipeline for one job. All outcomes are
// observable only through the store; a missing job is logged and dropped.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("internal error: %v", r)
			log.Printf("job %s panicked: %s", jobID, msg)
			p.fail(ctx, jobID, msg)
		}
	}()

	job, err := p.store.GetJob(ctx, jobID)
	if err != nil {
		log.Printf("job %s load failed: %v", jobID, err)
		return
	}
	if job == nil {
		log.Printf("job %s not found", jobID)
		return
	}

	meta := youtube.Metadata{
		ID:           job.YoutubeID,
		Title:        job.VideoTitle,
		Channel:      job.VideoChannel,
		ThumbnailURL: job.VideoThumbnailURL,
	}
	if meta.Title == "" {
		meta.Title = "Unknown"
	}
	if meta.Channel == "" {
		meta.Channel = "Unknown"
	}

	// Stage 1: fetch
	p.progress(ctx, jobID, jobs.StatusFetching, jobs.Progress{
		Stage:   jobs.StatusFetching,
		Message: "Fetching transcript from YouTube...",
	})

	rawText, err := p.fetcher.FetchTranscript(ctx, job.YoutubeID)
	if err != nil {
		p.fail(ctx, jobID, err.Error())
		return
	}

	if err := p.store.InsertTranscript(ctx, &jobs.Transcript{JobID: jobID, RawText: rawText}); err != nil {
		log.Printf("job %s transcript insert failed: %v", jobID, err)
	}

	// Stage 2: clean
	p.progress(ctx, jobID, jobs.StatusCleaning, jobs.Progress{
		Stage:   jobs.StatusCleaning,
		Message: "Formatting transcript...",
		Current: 0,
		Total:   1,
	})

	cleanResult, err := p.cleaner.Clean(ctx, rawText, meta, func(current, total int) {
		p.progress(ctx, jobID, jobs.StatusCleaning, jobs.Progress{
			Stage:   jobs.StatusCleaning,
			Message: fmt.Sprintf("Cleaning transcript: %d/%d chunks", current, total),
			Current: current,
			Total:   total,
		})
	})
	if err != nil {
		p.fail(ctx, jobID, err.Error())
		return
	}

	if err := p.store.UpdateTranscriptCleaned(ctx, jobID, cleanResult.CleanedText, cleanResult.Speakers); err != nil {
		log.Printf("job %s transcript update failed: %v", jobID, err)
	}

	// Stage 3: summarize
	p.progress(ctx, jobID, jobs.StatusSummarizing, jobs.Progress{
		Stage:   jobs.StatusSummarizing,
		Message: "Generating summary...",
	})

	summary, err := p.summarizer.Summarize(ctx, cleanResult.CleanedText, meta)
	if err != nil {
		p.fail(ctx, jobID, err.Error())
		return
	}

	if err := p.store.InsertSummary(ctx, &jobs.Summary{
		JobID:         jobID,
		Content:       summary,
		PromptVersion: PromptVersion,
	}); err != nil {
		log.Printf("job %s summary insert failed: %v", jobID, err)
	}

	done := jobs.Progress{Stage: jobs.StatusCompleted, Message: "Summary ready!"}
	if err := p.store.MarkJobCompleted(ctx, jobID, done); err != nil {
		log.Printf("job %s complete update failed: %v", jobID, err)
	}
	p.cacheProgress(ctx, jobID, done)

	p.notify(ctx, job, meta)

	log.Printf("job %s completed", jobID)
}

// notify is best-effort: an email failure never moves a completed job to
// failed.
func (p *Processor) notify(ctx context.Context, job *jobs.Job, meta youtube.Metadata) {
	if p.notifier == nil || job.NotificationEmail == nil || *job.NotificationEmail == "" {
		return
	}
	jobURL := p.appURL + "/job/" + job.ID
	if err := p.notifier.SendCompletion(ctx, *job.NotificationEmail, jobURL, meta.Title); err != nil {
		log.Printf("job %s notification email failed: %v", job.ID, err)
	}
}

func (p *Processor) progress(ctx context.Context, jobID string, status jobs.Status, prog jobs.Progress) {
	if err := p.store.UpdateJobProgress(ctx, jobID, status, prog); err != nil {
		log.Printf("job %s progress update failed: %v", jobID, err)
	}
	p.cacheProgress(ctx, jobID, prog)
}

func (p *Processor) fail(ctx context.Context, jobID, msg string) {
	if err := p.store.MarkJobFailed(ctx, jobID, msg); err != nil {
		log.Printf("job %s failure update failed: %v", jobID, err)
	}
	p.cacheProgress(ctx, jobID, jobs.Progress{Stage: jobs.StatusFailed, Message: msg})
}

func (p *Processor) cacheProgress(ctx context.Context, jobID string, prog jobs.Progress) {
	if p.cache == nil {
		return
	}
	if err := p.cache.SetProgress(ctx, jobID, prog); err != nil {
		log.Printf("job %s progress cache write failed: %v", jobID, err)
	}
}
