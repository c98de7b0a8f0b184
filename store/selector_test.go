package store

import (
	"context"
	"testing"

	"github.com/taskflowhq/taskflow/models"
)

// With no document backend configured the selector must route everything
// to the memory store, transparently to the caller.
func TestSelector_FallsBackWithoutMongo(t *testing.T) {
	sel := NewSelector(nil, NewMemoryStore())
	ctx := context.Background()

	if got := sel.Backend(); got != "memory" {
		t.Fatalf("Backend() = %q, want memory", got)
	}

	created, err := sel.Create(ctx, models.Task{Text: "selector routed task"})
	if err != nil {
		t.Fatalf("Create through selector failed: %v", err)
	}

	fetched, err := sel.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get through selector failed: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("round trip mismatch: %q != %q", fetched.ID, created.ID)
	}

	tasks, total, err := sel.List(ctx, Query{})
	if err != nil {
		t.Fatalf("List through selector failed: %v", err)
	}
	if total != 1 || len(tasks) != 1 {
		t.Errorf("List = %d tasks (total %d), want 1", len(tasks), total)
	}

	stats, err := sel.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats through selector failed: %v", err)
	}
	if stats.Total != 1 {
		t.Errorf("stats total = %d, want 1", stats.Total)
	}

	if _, err := sel.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete through selector failed: %v", err)
	}
	if err := sel.Ping(ctx); err != nil {
		t.Errorf("memory backend ping should never fail: %v", err)
	}
	if err := sel.Close(ctx); err != nil {
		t.Errorf("Close with no mongo client should be a no-op: %v", err)
	}
}
