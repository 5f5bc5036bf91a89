// Package redisstore implements workflow.Store on Redis. Each workflow is a
// JSON value under its own key; a sorted set scored by creation time keeps
// the listing order.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meikuraledutech/workflow"
)

// DefaultPrefix namespaces keys when no prefix is configured.
const DefaultPrefix = "workflow:"

// RedisStore implements workflow.Store using Redis via go-redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// New creates a RedisStore on an existing client.
func New(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Open parses a redis:// URL, connects and pings the server.
func Open(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("workflow: parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("workflow: connect redis: %w", err)
	}
	return New(client, prefix), nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "wf:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "index"
}

// CreateSchema is a no-op; Redis needs no schema.
func (s *RedisStore) CreateSchema(ctx context.Context) error {
	return nil
}

// DropSchema removes every stored workflow and the index.
func (s *RedisStore) DropSchema(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("workflow: read index: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, s.indexKey())
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("workflow: drop workflows: %w", err)
	}
	return nil
}

// CreateWorkflow stores w, filling ID, name and timestamps when missing.
func (s *RedisStore) CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Name == "" {
		w.Name = workflow.DefaultName
	}
	if w.Nodes == nil {
		w.Nodes = []workflow.Node{}
	}
	if w.Edges == nil {
		w.Edges = []workflow.Edge{}
	}
	now := s.now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now

	data, err := sonic.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode workflow: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(w.ID), data, 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: w.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("workflow: insert workflow: %w", err)
	}
	return w, nil
}

// GetWorkflow fetches a workflow by its ID.
// Returns nil, nil if not found.
func (s *RedisStore) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get workflow: %w", err)
	}
	return decode(raw)
}

// ListWorkflows returns all workflows, newest first.
func (s *RedisStore) ListWorkflows(ctx context.Context) ([]workflow.Summary, error) {
	out := []workflow.Summary{}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry outlived its value.
			continue
		}
		w, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, w.Summary())
	}
	return out, nil
}

// maxUpdateAttempts bounds the optimistic retries of UpdateWorkflow.
const maxUpdateAttempts = 5

// UpdateWorkflow applies u under WATCH so concurrent writers cannot
// interleave, retrying when another writer touches the key first.
// Returns workflow.ErrWorkflowNotFound if the workflow doesn't exist.
func (s *RedisStore) UpdateWorkflow(ctx context.Context, id string, u workflow.Update) (*workflow.Workflow, error) {
	key := s.key(id)
	var updated *workflow.Workflow

	apply := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return workflow.ErrWorkflowNotFound
			}
			return fmt.Errorf("workflow: get workflow: %w", err)
		}
		w, err := decode(raw)
		if err != nil {
			return err
		}

		u.Apply(w)
		w.UpdatedAt = s.now().UTC()
		data, err := sonic.Marshal(w)
		if err != nil {
			return fmt.Errorf("workflow: encode workflow: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err != nil {
			return fmt.Errorf("workflow: update workflow: %w", err)
		}
		updated = w
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, apply, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("workflow: update workflow after %d attempts: %w", maxUpdateAttempts, redis.TxFailedErr)
}

// DeleteWorkflow removes a workflow and its index entry.
// Returns workflow.ErrWorkflowNotFound if nothing was deleted.
func (s *RedisStore) DeleteWorkflow(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}
	if del.Val() == 0 {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

func decode(raw []byte) (*workflow.Workflow, error) {
	var w workflow.Workflow
	if err := sonic.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("workflow: decode workflow: %w", err)
	}
	return &w, nil
}

// String identifies the store in logs.
func (s *RedisStore) String() string {
	return "redis(" + s.client.Options().Addr + ", db " + strconv.Itoa(s.client.Options().DB) + ")"
}
