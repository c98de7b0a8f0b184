package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/models"
	"github.com/taskflowhq/taskflow/types"
)

// BulkResult reports how a bulk mutation landed. Bulk updates apply per
// document with no rollback: on partial failure the counts are the only
// record of what happened.
type BulkResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// TaskStore is the capability set shared by the two storage variants.
// Both implement identical semantics except where documented: text search
// is relevance-ranked on the document backend and a substring test on the
// memory backend, and the memory backend paginates by slicing the full
// match set. Responses carry the serving backend so the asymmetry stays
// visible.
type TaskStore interface {
	// List returns one page of tasks matching the query, plus the total
	// number of matches across all pages.
	List(ctx context.Context, q Query) ([]models.Task, int64, error)

	// Get retrieves a task by id. It returns a NotFoundError when no task
	// has that id and a MalformedIDError when the id is not a uuid.
	Get(ctx context.Context, id string) (models.Task, error)

	// Create validates the payload, assigns the id and timestamps, and
	// persists the task. The stored task is returned.
	Create(ctx context.Context, input models.Task) (models.Task, error)

	// Update merges the patch into the existing task, re-validates, and
	// refreshes lastModified. createdAt never changes.
	Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error)

	// Delete removes a task permanently and returns the removed task.
	// There is no soft delete.
	Delete(ctx context.Context, id string) (models.Task, error)

	// Count returns the number of tasks matching the query, ignoring
	// paging.
	Count(ctx context.Context, q Query) (int64, error)

	// BulkUpdate applies the patch to every task in ids. Application is
	// per task: tasks the patch cannot be applied to are counted as
	// matched but not modified.
	BulkUpdate(ctx context.Context, ids []string, patch models.TaskPatch) (BulkResult, error)

	// Stats aggregates over the full task set, ignoring any filters.
	Stats(ctx context.Context) (models.TaskStats, error)

	// Backend identifies the variant ("mongodb" or "memory") for
	// diagnostics.
	Backend() string

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// checkID rejects identifiers that are not uuids before they reach a
// backend. Both variants share the id format.
func checkID(id string) error {
	if uuid.Validate(id) != nil {
		return &types.MalformedIDError{ID: id}
	}
	return nil
}

// checkIDs validates a bulk id list; one bad id fails the whole batch
// before anything is touched.
func checkIDs(ids []string) error {
	for _, id := range ids {
		if err := checkID(id); err != nil {
			return err
		}
	}
	return nil
}
