package handlers

import (
	"context"

	"podbrief/internal/config"
	"podbrief/internal/jobs"
	"podbrief/internal/store/redisstore"
	"podbrief/internal/youtube"
)

// JobPublisher enqueues a job id for the worker.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Handler struct {
	Repo      *jobs.Repo
	Cfg       config.Config
	Cache     *redisstore.Store // may be nil
	Publisher JobPublisher
	YouTube   *youtube.Client
}

func NewHandler(repo *jobs.Repo, cfg config.Config, cache *redisstore.Store, pub JobPublisher) *Handler {
	return &Handler{
		Repo:      repo,
		Cfg:       cfg,
		Cache:     cache,
		Publisher: pub,
		YouTube:   youtube.NewClient(),
	}
}
