package store

import (
	"context"
	"errors"
	"time"

	"github.com/taskflowhq/taskflow/models"
	"github.com/taskflowhq/taskflow/types"
)

// pingTimeout bounds the per-request liveness probe of the document
// backend.
const pingTimeout = 1 * time.Second

// Selector is the process-wide backend switch. It implements TaskStore by
// resolving the active variant on every call, never caching the answer
// across requests: a dropped connection routes traffic to the in-memory
// store, and a restored one routes it back.
//
// Reads that fail with a ConnectionError mid-flight are retried against
// the memory store. Writes land on whichever backend was active when the
// operation started; nothing is queued or replayed across backends, so a
// task lives in exactly one backend's lifecycle.
type Selector struct {
	mongo  *MongoStore // nil when no database is configured
	memory *MemoryStore
}

// NewSelector builds a selector. mongo may be nil; memory must not be.
func NewSelector(mongo *MongoStore, memory *MemoryStore) *Selector {
	return &Selector{mongo: mongo, memory: memory}
}

// active resolves the backend for this call: the document store when it is
// configured and currently reachable, otherwise the memory store.
func (s *Selector) active(ctx context.Context) TaskStore {
	if s.mongo == nil {
		return s.memory
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.mongo.Ping(pingCtx); err != nil {
		return s.memory
	}
	return s.mongo
}

// Backend reports which variant would serve a request issued now.
func (s *Selector) Backend() string {
	return s.active(context.Background()).Backend()
}

func (s *Selector) Ping(ctx context.Context) error {
	return s.active(ctx).Ping(ctx)
}

func (s *Selector) Close(ctx context.Context) error {
	if s.mongo != nil {
		return s.mongo.Close(ctx)
	}
	return nil
}

// isConnErr reports whether the failure is the recoverable
// backend-unreachable kind.
func isConnErr(err error) bool {
	var ce *types.ConnectionError
	return errors.As(err, &ce)
}

func (s *Selector) List(ctx context.Context, q Query) ([]models.Task, int64, error) {
	st := s.active(ctx)
	tasks, total, err := st.List(ctx, q)
	if isConnErr(err) && st.Backend() != s.memory.Backend() {
		return s.memory.List(ctx, q)
	}
	return tasks, total, err
}

func (s *Selector) Get(ctx context.Context, id string) (models.Task, error) {
	st := s.active(ctx)
	t, err := st.Get(ctx, id)
	if isConnErr(err) && st.Backend() != s.memory.Backend() {
		return s.memory.Get(ctx, id)
	}
	return t, err
}

func (s *Selector) Count(ctx context.Context, q Query) (int64, error) {
	st := s.active(ctx)
	n, err := st.Count(ctx, q)
	if isConnErr(err) && st.Backend() != s.memory.Backend() {
		return s.memory.Count(ctx, q)
	}
	return n, err
}

func (s *Selector) Stats(ctx context.Context) (models.TaskStats, error) {
	st := s.active(ctx)
	stats, err := st.Stats(ctx)
	if isConnErr(err) && st.Backend() != s.memory.Backend() {
		return s.memory.Stats(ctx)
	}
	return stats, err
}

func (s *Selector) Create(ctx context.Context, input models.Task) (models.Task, error) {
	return s.active(ctx).Create(ctx, input)
}

func (s *Selector) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	return s.active(ctx).Update(ctx, id, patch)
}

func (s *Selector) Delete(ctx context.Context, id string) (models.Task, error) {
	return s.active(ctx).Delete(ctx, id)
}

func (s *Selector) BulkUpdate(ctx context.Context, ids []string, patch models.TaskPatch) (BulkResult, error) {
	return s.active(ctx).BulkUpdate(ctx, ids, patch)
}
