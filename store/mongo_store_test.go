package store

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/taskflowhq/taskflow/models"
)

// The query translation is pure, so it is tested without a live server.

func TestBuildFilter(t *testing.T) {
	now := time.Now()
	completed := false

	q := Query{Completed: &completed, Priority: "high", Category: "work"}
	q.Normalize()
	filter := buildFilter(q, now)

	if filter["completed"] != false {
		t.Errorf("completed filter missing: %v", filter)
	}
	if filter["priority"] != "high" {
		t.Errorf("priority filter missing: %v", filter)
	}
	catFilter, ok := filter["category"].(bson.M)
	if !ok || catFilter["$options"] != "i" {
		t.Errorf("category should match case-insensitively: %v", filter["category"])
	}
}

func TestBuildFilter_Overdue(t *testing.T) {
	now := time.Now()
	completed := true

	// includeOverdue forces incomplete + past due regardless of other
	// filters.
	q := Query{Completed: &completed, IncludeOverdue: true}
	q.Normalize()
	filter := buildFilter(q, now)

	if filter["completed"] != false {
		t.Errorf("overdue must force completed=false: %v", filter)
	}
	due, ok := filter["dueDate"].(bson.M)
	if !ok {
		t.Fatalf("dueDate filter missing: %v", filter)
	}
	if due["$lt"] != now {
		t.Errorf("dueDate should be bounded by now: %v", due)
	}
}

func TestBuildFilter_Search(t *testing.T) {
	q := Query{Search: "groceries"}
	q.Normalize()
	filter := buildFilter(q, time.Now())

	text, ok := filter["$text"].(bson.M)
	if !ok || text["$search"] != "groceries" {
		t.Errorf("search should use the $text operator: %v", filter)
	}
}

func TestBuildFilter_RegexEscaped(t *testing.T) {
	q := Query{Category: "a.b*"}
	q.Normalize()
	filter := buildFilter(q, time.Now())

	cat := filter["category"].(bson.M)
	if cat["$regex"] != `a\.b\*` {
		t.Errorf("category regex must be literal: %v", cat["$regex"])
	}
}

func TestBuildSort(t *testing.T) {
	q := Query{SortBy: "priority", SortOrder: SortAsc}
	q.Normalize()
	sort := buildSort(q)

	if len(sort) != 2 {
		t.Fatalf("expected primary sort plus createdAt tiebreaker, got %v", sort)
	}
	if sort[0].Key != "priority" || sort[0].Value != 1 {
		t.Errorf("primary sort wrong: %v", sort[0])
	}
	if sort[1].Key != "createdAt" || sort[1].Value != -1 {
		t.Errorf("tiebreaker wrong: %v", sort[1])
	}

	q = Query{}
	q.Normalize()
	sort = buildSort(q)
	if len(sort) != 1 || sort[0].Key != "createdAt" || sort[0].Value != -1 {
		t.Errorf("default sort should be createdAt descending: %v", sort)
	}
}

func TestBuildSort_SearchUsesRelevance(t *testing.T) {
	q := Query{Search: "find me"}
	q.Normalize()
	sort := buildSort(q)

	if len(sort) != 1 || sort[0].Key != "score" {
		t.Errorf("search should sort by text score: %v", sort)
	}
}

func TestBuildSetDoc(t *testing.T) {
	now := time.Now()
	text := "  cleaned   up  text "
	priority := models.TaskPriority(" HIGH ")
	tags := []string{"Work", "work", ""}

	set := buildSetDoc(models.TaskPatch{Text: &text, Priority: &priority, Tags: &tags}, now)

	if set["lastModified"] != now {
		t.Error("every bulk write must refresh lastModified")
	}
	if set["text"] != "cleaned up text" {
		t.Errorf("text should be normalized: %q", set["text"])
	}
	if set["priority"] != models.PriorityHigh {
		t.Errorf("priority should be lowercased: %v", set["priority"])
	}
	got, ok := set["tags"].([]string)
	if !ok || len(got) != 1 || got[0] != "work" {
		t.Errorf("tags should be normalized: %v", set["tags"])
	}
	if _, present := set["completed"]; present {
		t.Error("unset patch fields must not appear in $set")
	}
}

func TestBuildSetDoc_MetadataNormalized(t *testing.T) {
	now := time.Now()

	set := buildSetDoc(models.TaskPatch{Metadata: &models.TaskMetadata{Difficulty: " HARD ", EstimatedTime: 30}}, now)
	meta, ok := set["metadata"].(models.TaskMetadata)
	if !ok {
		t.Fatalf("metadata should be stored as a struct: %T", set["metadata"])
	}
	if meta.Difficulty != models.DifficultyHard {
		t.Errorf("difficulty should be lowercased: %q", meta.Difficulty)
	}
	if meta.EstimatedTime != 30 {
		t.Errorf("estimatedTime should pass through: %d", meta.EstimatedTime)
	}

	set = buildSetDoc(models.TaskPatch{Metadata: &models.TaskMetadata{ActualTime: 15}}, now)
	meta = set["metadata"].(models.TaskMetadata)
	if meta.Difficulty != models.DifficultyMedium {
		t.Errorf("empty difficulty should default to medium: %q", meta.Difficulty)
	}
}
