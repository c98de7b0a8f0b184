package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/types"
)

func TestNewTask_Defaults(t *testing.T) {
	now := time.Now()
	task, err := NewTask(Task{Text: "Buy milk"}, now)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}

	if err := uuid.Validate(task.ID); err != nil {
		t.Errorf("ID should be a valid uuid, got %q", task.ID)
	}
	if !task.CreatedAt.Equal(task.LastModified) {
		t.Errorf("createdAt and lastModified should match at creation")
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}
	if task.Priority != PriorityMedium {
		t.Errorf("default priority: got %q, want %q", task.Priority, PriorityMedium)
	}
	if task.Category != DefaultCategory {
		t.Errorf("default category: got %q, want %q", task.Category, DefaultCategory)
	}
}

func TestNewTask_UniqueIDs(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		task, err := NewTask(Task{Text: "unique id check"}, now)
		if err != nil {
			t.Fatalf("NewTask failed: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id assigned: %s", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestNewTask_NormalizesWhitespace(t *testing.T) {
	task, err := NewTask(Task{Text: "   multiple   spaces  "}, time.Now())
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.Text != "multiple spaces" {
		t.Errorf("text normalization: got %q, want %q", task.Text, "multiple spaces")
	}
}

func TestNewTask_Validation(t *testing.T) {
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tests := []struct {
		name    string
		input   Task
		wantErr bool
		wantMsg string
	}{
		{
			name:  "valid minimal task",
			input: Task{Text: "Walk the dog"},
		},
		{
			name:    "text too short after trim",
			input:   Task{Text: "  ab  "},
			wantErr: true,
			wantMsg: "between 3 and 255",
		},
		{
			name:    "text too long",
			input:   Task{Text: strings.Repeat("a", 256)},
			wantErr: true,
			wantMsg: "between 3 and 255",
		},
		{
			name:    "markup rejected",
			input:   Task{Text: "hello <script>alert(1)</script>"},
			wantErr: true,
			wantMsg: "markup",
		},
		{
			name:    "unknown priority",
			input:   Task{Text: "valid text", Priority: "urgent"},
			wantErr: true,
			wantMsg: "priority",
		},
		{
			name:  "priority case-insensitive",
			input: Task{Text: "valid text", Priority: "HIGH"},
		},
		{
			name:    "category too long",
			input:   Task{Text: "valid text", Category: strings.Repeat("c", 51)},
			wantErr: true,
			wantMsg: "category",
		},
		{
			name:    "too many tags",
			input:   Task{Text: "valid text", Tags: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}},
			wantErr: true,
			wantMsg: "at most 10",
		},
		{
			name:    "tag too long",
			input:   Task{Text: "valid text", Tags: []string{strings.Repeat("t", 21)}},
			wantErr: true,
			wantMsg: "20 characters",
		},
		{
			name:    "due date yesterday rejected",
			input:   Task{Text: "valid text", DueDate: &yesterday},
			wantErr: true,
			wantMsg: "dueDate",
		},
		{
			name:  "due date today accepted",
			input: Task{Text: "valid text", DueDate: &today},
		},
		{
			name:    "estimated time out of range",
			input:   Task{Text: "valid text", Metadata: &TaskMetadata{EstimatedTime: 1441}},
			wantErr: true,
			wantMsg: "estimatedTime",
		},
		{
			name:    "actual time below minimum",
			input:   Task{Text: "valid text", Metadata: &TaskMetadata{ActualTime: -1}},
			wantErr: true,
			wantMsg: "actualTime",
		},
		{
			name:    "unknown difficulty",
			input:   Task{Text: "valid text", Metadata: &TaskMetadata{Difficulty: "extreme"}},
			wantErr: true,
			wantMsg: "difficulty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTask(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTask error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewTask_CollectsAllViolations(t *testing.T) {
	_, err := NewTask(Task{Text: "ab", Priority: "urgent"}, time.Now())
	if err == nil {
		t.Fatal("expected validation error")
	}
	verr, ok := err.(*types.ValidationError)
	if !ok {
		t.Fatalf("expected *types.ValidationError, got %T", err)
	}
	if len(verr.Details) < 2 {
		t.Errorf("expected every violation reported, got %v", verr.Details)
	}
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"lowercases and trims", []string{" Home ", "WORK"}, []string{"home", "work"}},
		{"drops empties", []string{"", "  ", "x"}, []string{"x"}},
		{"deduplicates preserving order", []string{"b", "a", "B", "a"}, []string{"b", "a"}},
		{"nil for empty result", []string{"", " "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTags(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("NormalizeTags(%v) = %v, want %v", tt.in, got, tt.want)
					break
				}
			}
		})
	}
}

func TestApplyPatch(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	task, err := NewTask(Task{Text: "original text"}, created)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}

	now := time.Now()
	newText := "updated text"
	updated, err := ApplyPatch(task, TaskPatch{Text: &newText}, now)
	if err != nil {
		t.Fatalf("ApplyPatch failed: %v", err)
	}

	if updated.Text != newText {
		t.Errorf("text: got %q, want %q", updated.Text, newText)
	}
	if !updated.CreatedAt.Equal(task.CreatedAt) {
		t.Error("createdAt must never change across updates")
	}
	if updated.LastModified.Before(task.LastModified) {
		t.Error("lastModified must advance on update")
	}
	if updated.ID != task.ID {
		t.Error("id must be immutable")
	}
}

func TestApplyPatch_CompletingOverdueTaskKeepsPastDueDate(t *testing.T) {
	now := time.Now()
	task, err := NewTask(Task{Text: "pay the bill"}, now)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	// Simulate a stored task whose due date has since passed.
	past := now.AddDate(0, 0, -3)
	task.DueDate = &past

	done := true
	updated, err := ApplyPatch(task, TaskPatch{Completed: &done}, now)
	if err != nil {
		t.Fatalf("completing an overdue task must not trip the due-date floor: %v", err)
	}
	if !updated.Completed {
		t.Error("task should be completed")
	}
}

func TestApplyPatch_RejectsPastDueDate(t *testing.T) {
	now := time.Now()
	task, err := NewTask(Task{Text: "plan the trip"}, now)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}

	yesterday := now.AddDate(0, 0, -1)
	if _, err := ApplyPatch(task, TaskPatch{DueDate: &yesterday}, now); err == nil {
		t.Error("setting a past due date should be rejected")
	}
}

func TestValidatePatch(t *testing.T) {
	now := time.Now()

	bad := TaskPriority("urgent")
	if err := ValidatePatch(TaskPatch{Priority: &bad}, now); err == nil {
		t.Error("invalid priority in patch should be rejected")
	}

	good := PriorityHigh
	if err := ValidatePatch(TaskPatch{Priority: &good}, now); err != nil {
		t.Errorf("valid patch rejected: %v", err)
	}
}
