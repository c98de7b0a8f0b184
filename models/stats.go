package models

import "math"

// CategoryCount is one bucket of the category distribution, ordered by
// descending count.
type CategoryCount struct {
	Category string `json:"category" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// TaskStats is the aggregate view over the full task set, computed
// identically by both storage backends.
type TaskStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Active    int64 `json:"active"`
	Overdue   int64 `json:"overdue"`
	// CompletionRate is completed/total*100, two-decimal precision,
	// 0 when the task set is empty.
	CompletionRate       float64          `json:"completionRate"`
	PriorityDistribution map[string]int64 `json:"priorityDistribution"`
	CategoryDistribution []CategoryCount  `json:"categoryDistribution"`
	RecentTasksCount     int64            `json:"recentTasksCount"`
}

// Finalize derives the dependent fields from the raw counts.
func (s *TaskStats) Finalize() {
	s.Active = s.Total - s.Completed
	if s.Total == 0 {
		s.CompletionRate = 0
		return
	}
	rate := float64(s.Completed) / float64(s.Total) * 100
	s.CompletionRate = math.Round(rate*100) / 100
}
