package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taskflowhq/taskflow/models"
	"github.com/taskflowhq/taskflow/types"
)

// MemoryStore is the development-mode fallback backend: a process-local
// task set guarded by a mutex. Filtering is a linear scan, search is a
// case-insensitive substring test with no relevance ranking, and a page is
// produced by sorting the full match set and slicing it.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]models.Task
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]models.Task)}
}

func (s *MemoryStore) Backend() string { return "memory" }

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) List(ctx context.Context, q Query) ([]models.Task, int64, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, 0, err
	}
	now := time.Now()

	s.mu.RLock()
	matched := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if matches(t, q, now) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	sortTasks(matched, q)
	total := int64(len(matched))

	start := int(q.Skip())
	if start >= len(matched) {
		return []models.Task{}, total, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	return t, nil
}

func (s *MemoryStore) Create(ctx context.Context, input models.Task) (models.Task, error) {
	t, err := models.NewTask(input, time.Now())
	if err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; exists {
		return models.Task{}, &types.DuplicateError{ID: t.ID}
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *MemoryStore) Update(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[id]
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	updated, err := models.ApplyPatch(existing, patch, time.Now())
	if err != nil {
		return models.Task{}, err
	}
	s.tasks[id] = updated
	return updated, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) (models.Task, error) {
	if err := checkID(id); err != nil {
		return models.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	delete(s.tasks, id)
	return t, nil
}

func (s *MemoryStore) Count(ctx context.Context, q Query) (int64, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return 0, err
	}
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, t := range s.tasks {
		if matches(t, q, now) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) BulkUpdate(ctx context.Context, ids []string, patch models.TaskPatch) (BulkResult, error) {
	if err := checkIDs(ids); err != nil {
		return BulkResult{}, err
	}
	now := time.Now()
	if err := models.ValidatePatch(patch, now); err != nil {
		return BulkResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var res BulkResult
	for _, id := range ids {
		existing, ok := s.tasks[id]
		if !ok {
			continue
		}
		res.MatchedCount++
		updated, err := models.ApplyPatch(existing, patch, now)
		if err != nil {
			// Patch cannot apply to this particular task; matched but
			// not modified, same as the document backend reports.
			continue
		}
		// Every applied patch refreshes lastModified, so it counts as a
		// modification even when no other field changed. The document
		// backend's $set behaves the same way.
		s.tasks[id] = updated
		res.ModifiedCount++
	}
	return res, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (models.TaskStats, error) {
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.TaskStats{
		PriorityDistribution: make(map[string]int64),
	}
	categories := make(map[string]int64)
	for _, t := range s.tasks {
		stats.Total++
		if t.Completed {
			stats.Completed++
		}
		if !t.Completed && t.DueDate != nil && t.DueDate.Before(now) {
			stats.Overdue++
		}
		stats.PriorityDistribution[string(t.Priority)]++
		categories[t.Category]++
		if !t.CreatedAt.Before(weekAgo) {
			stats.RecentTasksCount++
		}
	}
	stats.CategoryDistribution = topCategories(categories, 10)
	stats.Finalize()
	return stats, nil
}

// matches applies each query predicate literally, the way the memory
// variant defines them.
func matches(t models.Task, q Query, now time.Time) bool {
	if q.Completed != nil && t.Completed != *q.Completed {
		return false
	}
	if q.Priority != "" && string(t.Priority) != q.Priority {
		return false
	}
	if q.Category != "" && !strings.Contains(strings.ToLower(t.Category), strings.ToLower(q.Category)) {
		return false
	}
	if q.IncludeOverdue {
		if t.Completed || t.DueDate == nil || !t.DueDate.Before(now) {
			return false
		}
	}
	if q.HasSearch() {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Text), needle) &&
			!strings.Contains(strings.ToLower(t.Category), needle) &&
			!tagContains(t.Tags, needle) {
			return false
		}
	}
	return true
}

func tagContains(tags []string, needle string) bool {
	for _, tag := range tags {
		if strings.Contains(tag, needle) {
			return true
		}
	}
	return false
}

var priorityRank = map[models.TaskPriority]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 1,
	models.PriorityHigh:   2,
}

// sortTasks orders the match set by the query's sort spec. Ties fall back
// to createdAt descending so paging stays stable.
func sortTasks(tasks []models.Task, q Query) {
	asc := q.SortOrder == SortAsc
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if q.SortBy == "dueDate" {
			// Tasks without a due date sort after dated ones regardless
			// of direction.
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return b.CreatedAt.Before(a.CreatedAt)
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			}
		}
		if !asc {
			a, b = b, a
		}
		switch q.SortBy {
		case "lastModified":
			if !a.LastModified.Equal(b.LastModified) {
				return a.LastModified.Before(b.LastModified)
			}
		case "dueDate":
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		case "priority":
			if priorityRank[a.Priority] != priorityRank[b.Priority] {
				return priorityRank[a.Priority] < priorityRank[b.Priority]
			}
		case "text":
			at, bt := strings.ToLower(a.Text), strings.ToLower(b.Text)
			if at != bt {
				return at < bt
			}
		case "category":
			ac, bc := strings.ToLower(a.Category), strings.ToLower(b.Category)
			if ac != bc {
				return ac < bc
			}
		case "completed":
			if a.Completed != b.Completed {
				return !a.Completed
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return tasks[j].CreatedAt.Before(tasks[i].CreatedAt)
	})
}

// topCategories returns the n most common categories, descending by count.
func topCategories(counts map[string]int64, n int) []models.CategoryCount {
	out := make([]models.CategoryCount, 0, len(counts))
	for cat, count := range counts {
		out = append(out, models.CategoryCount{Category: cat, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
