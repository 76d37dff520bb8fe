package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/local/finfinder/internal/finder"
)

// RedisResults keeps results in one hash per job with a TTL.
type RedisResults struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

func NewRedisResults(redisURL string, ttl time.Duration) (*RedisResults, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return NewRedisResultsFromClient(c, ttl), nil
}

// NewRedisResultsFromClient wraps an existing client.
func NewRedisResultsFromClient(c *redis.Client, ttl time.Duration) *RedisResults {
	return &RedisResults{client: c, keyNS: "finfinder:result", ttl: ttl}
}

func (s *RedisResults) key(jobID string) string { return fmt.Sprintf("%s:%s", s.keyNS, jobID) }

func (s *RedisResults) Set(ctx context.Context, r Result) error {
	doc := ""
	if r.Document != nil {
		b, err := json.Marshal(r.Document)
		if err != nil {
			return fmt.Errorf("encode document result: %w", err)
		}
		doc = string(b)
	}
	finished := ""
	if r.Finished != nil {
		finished = r.Finished.Format(time.RFC3339Nano)
	}
	key := s.key(r.JobID)
	err := s.client.HSet(ctx, key,
		"status", r.Status,
		"source", r.Source,
		"error", r.Error,
		"document", doc,
		"created", r.Created.Format(time.RFC3339Nano),
		"finished", finished,
	).Err()
	if err != nil {
		return err
	}
	if s.ttl > 0 {
		return s.client.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *RedisResults) Get(ctx context.Context, jobID string) (Result, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return Result{}, false, err
	}
	if len(res) == 0 {
		return Result{}, false, nil
	}
	r := Result{
		JobID:  jobID,
		Status: res["status"],
		Source: res["source"],
		Error:  res["error"],
	}
	if v := res["created"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			r.Created = t
		}
	}
	if v := res["finished"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			r.Finished = &t
		}
	}
	if v := res["document"]; v != "" {
		var doc finder.DocumentResult
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return Result{}, false, fmt.Errorf("decode document result: %w", err)
		}
		r.Document = &doc
	}
	return r, true, nil
}

func (s *RedisResults) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisResults) Close() error { return s.client.Close() }
