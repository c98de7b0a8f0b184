package models

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow/types"
)

// TaskPriority represents the priority levels of a task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// TaskDifficulty represents the estimated difficulty of a task.
type TaskDifficulty string

const (
	DifficultyEasy   TaskDifficulty = "easy"
	DifficultyMedium TaskDifficulty = "medium"
	DifficultyHard   TaskDifficulty = "hard"
)

const (
	// DefaultCategory is assigned when a task is created without one.
	DefaultCategory = "general"
	// MaxTags caps the tag list per task.
	MaxTags = 10
)

// TaskMetadata holds optional effort-tracking fields.
type TaskMetadata struct {
	EstimatedTime int            `json:"estimatedTime,omitempty" bson:"estimatedTime,omitempty" validate:"omitempty,min=1,max=1440"`
	ActualTime    int            `json:"actualTime,omitempty" bson:"actualTime,omitempty" validate:"omitempty,min=1"`
	Difficulty    TaskDifficulty `json:"difficulty,omitempty" bson:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}

// Task is the sole entity of the system. The same shape is persisted by
// both storage backends; `_id` carries the uuid4 identifier in MongoDB.
type Task struct {
	ID           string        `json:"id" bson:"_id" validate:"required,uuid4"`
	Text         string        `json:"text" bson:"text" validate:"required,min=3,max=255,nomarkup"`
	Completed    bool          `json:"completed" bson:"completed"`
	Priority     TaskPriority  `json:"priority" bson:"priority" validate:"required,oneof=low medium high"`
	Category     string        `json:"category" bson:"category" validate:"required,max=50"`
	DueDate      *time.Time    `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	Tags         []string      `json:"tags" bson:"tags" validate:"max=10,dive,min=1,max=20"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt" validate:"required"`
	LastModified time.Time     `json:"lastModified" bson:"lastModified" validate:"required"`
	Metadata     *TaskMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
	// UserID is reserved for a future multi-user extension; no current
	// logic reads it.
	UserID string `json:"userId,omitempty" bson:"userId,omitempty"`
}

// TaskPatch is a partial update. A nil field means "no change".
type TaskPatch struct {
	Text      *string        `json:"text,omitempty"`
	Completed *bool          `json:"completed,omitempty"`
	Priority  *TaskPriority  `json:"priority,omitempty"`
	Category  *string        `json:"category,omitempty"`
	DueDate   *time.Time     `json:"dueDate,omitempty"`
	Tags      *[]string      `json:"tags,omitempty"`
	Metadata  *TaskMetadata  `json:"metadata,omitempty"`
	UserID    *string        `json:"userId,omitempty"`
}

var (
	validate *validator.Validate

	whitespaceRe = regexp.MustCompile(`\s+`)
	markupRe     = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("nomarkup", func(fl validator.FieldLevel) bool {
		return !markupRe.MatchString(fl.Field().String())
	})
}

// NormalizeText trims leading/trailing whitespace and collapses internal
// runs of whitespace to a single space.
func NormalizeText(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeTags lowercases and trims each tag, drops empties, and removes
// duplicates while preserving order. The result may still exceed MaxTags;
// validation rejects that case rather than truncating silently.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Normalize rewrites free-form fields into their canonical form. It must
// run before Validate so the length and markup rules see the final value.
func (t *Task) Normalize() {
	t.Text = NormalizeText(t.Text)
	t.Category = strings.TrimSpace(t.Category)
	t.Priority = TaskPriority(strings.ToLower(strings.TrimSpace(string(t.Priority))))
	t.Tags = NormalizeTags(t.Tags)
	if t.Metadata != nil {
		t.Metadata.Difficulty = TaskDifficulty(strings.ToLower(strings.TrimSpace(string(t.Metadata.Difficulty))))
	}
}

// applyDefaults fills the fields the creation payload may omit.
func (t *Task) applyDefaults() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Metadata != nil && t.Metadata.Difficulty == "" {
		t.Metadata.Difficulty = DifficultyMedium
	}
}

// NewTask builds a fully-formed task from a creation payload: it assigns a
// fresh id, sets both timestamps to now, applies defaults, normalizes, and
// validates. The due-date floor (not before the start of the current day)
// is enforced here because it only applies when the date is being set.
func NewTask(input Task, now time.Time) (Task, error) {
	t := input
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.LastModified = now
	t.Normalize()
	t.applyDefaults()

	var extra []string
	if t.DueDate != nil {
		if msg := checkDueDate(*t.DueDate, now); msg != "" {
			extra = append(extra, msg)
		}
	}
	return t, validateTask(t, extra)
}

// ApplyPatch merges a partial update into an existing task, re-validates,
// and refreshes lastModified. createdAt is never touched. The due-date
// floor applies only when the patch sets dueDate; an already-stored past
// due date stays valid (an overdue task can still be completed).
func ApplyPatch(t Task, p TaskPatch, now time.Time) (Task, error) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.Metadata != nil {
		meta := *p.Metadata
		t.Metadata = &meta
	}
	if p.UserID != nil {
		t.UserID = *p.UserID
	}
	t.Normalize()
	t.applyDefaults()
	t.LastModified = now

	var extra []string
	if p.DueDate != nil {
		if msg := checkDueDate(*p.DueDate, now); msg != "" {
			extra = append(extra, msg)
		}
	}
	if err := validateTask(t, extra); err != nil {
		return Task{}, err
	}
	return t, nil
}

// IsZero reports whether the patch changes nothing.
func (p TaskPatch) IsZero() bool {
	return p.Text == nil && p.Completed == nil && p.Priority == nil &&
		p.Category == nil && p.DueDate == nil && p.Tags == nil &&
		p.Metadata == nil && p.UserID == nil
}

// ValidatePatch checks the patch fields in isolation by applying it to a
// minimal valid task. Bulk updates use this so a bad payload is rejected
// before any document is touched.
func ValidatePatch(p TaskPatch, now time.Time) error {
	base := Task{
		ID:           uuid.NewString(),
		Text:         "placeholder text",
		Priority:     PriorityMedium,
		Category:     DefaultCategory,
		CreatedAt:    now,
		LastModified: now,
	}
	_, err := ApplyPatch(base, p, now)
	return err
}

// checkDueDate returns a violation message when d falls before the start
// of the current calendar day (local time). Today itself is accepted.
func checkDueDate(d, now time.Time) string {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(startOfDay) {
		return "dueDate must not be before the start of the current day"
	}
	return ""
}

// validateTask runs struct validation and folds every violation, plus any
// pre-computed extra messages, into a single ValidationError.
func validateTask(t Task, extra []string) error {
	details := append([]string(nil), extra...)
	if err := validate.Struct(t); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &types.InternalError{Err: err}
		}
		for _, fe := range verrs {
			details = append(details, messageFor(fe))
		}
	}
	if len(details) > 0 {
		return types.NewValidationError(details...)
	}
	return nil
}

// messageFor turns a validator error into the human-readable message the
// API returns in the 400 details array.
func messageFor(fe validator.FieldError) string {
	field := fe.Field()
	switch {
	case field == "text" && fe.Tag() == "required":
		return "text is required"
	case field == "text" && (fe.Tag() == "min" || fe.Tag() == "max"):
		return "text must be between 3 and 255 characters"
	case field == "text" && fe.Tag() == "nomarkup":
		return "text must not contain markup tags"
	case field == "priority":
		return "priority must be one of: low, medium, high"
	case field == "category":
		return "category must be at most 50 characters"
	case field == "tags" && fe.Tag() == "max":
		return fmt.Sprintf("tags must contain at most %d entries", MaxTags)
	case strings.HasPrefix(fe.Namespace(), "Task.tags"):
		return "each tag must be between 1 and 20 characters"
	case field == "estimatedTime":
		return "metadata.estimatedTime must be between 1 and 1440 minutes"
	case field == "actualTime":
		return "metadata.actualTime must be at least 1 minute"
	case field == "difficulty":
		return "metadata.difficulty must be one of: easy, medium, hard"
	case field == "id":
		return "id must be a valid UUID"
	default:
		return fmt.Sprintf("validation failed on field '%s': rule '%s'", field, fe.Tag())
	}
}
