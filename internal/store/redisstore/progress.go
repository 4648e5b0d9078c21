// Package redisstore caches job progress so polling clients do not hammer
// the relational store between stage transitions. The database remains the
// source of truth; entries here expire on their own.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"podbrief/internal/jobs"
)

const progressTTL = 24 * time.Hour

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func key(jobID string) string { return "job:progress:" + jobID }

func (s *Store) SetProgress(ctx context.Context, jobID string, p jobs.Progress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(jobID), b, progressTTL).Err()
}

// GetProgress returns (nil, nil) when no cached entry exists.
func (s *Store) GetProgress(ctx context.Context, jobID string) (*jobs.Progress, error) {
	b, err := s.rdb.Get(ctx, key(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var p jobs.Progress
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
