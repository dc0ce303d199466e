package projectsvc

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

type Project struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	OwnerUserID uint64    `json:"-" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description *string   `json:"description"`
	IsArchived  bool      `json:"is_archived" gorm:"not null;default:false"`
	TaskCount   int64     `json:"task_count" gorm:"-"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Tasks is only loaded when a single project is shown.
	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

type Task struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	ProjectID   uint64    `json:"project_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description *string   `json:"description"`
	DueDate     *Date     `json:"due_date" gorm:"index"`
	IsCompleted bool      `json:"is_completed" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Project *ProjectRef `json:"project,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// ProjectRef is the parent project attached to tasks in responses.
type ProjectRef struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name" gorm:"size:255"`
	IsArchived bool   `json:"is_archived"`
}

func (ProjectRef) TableName() string { return "projects" }

// ProjectFilter narrows a project listing. A nil field is not applied.
type ProjectFilter struct {
	IsArchived *bool
}

// TaskFilter narrows a task listing. Set fields are combined with AND.
type TaskFilter struct {
	ProjectID   *uint64
	IsCompleted *bool
	DueDate     *Date
}

type ProjectInput struct {
	Name        string
	Description *string
	IsArchived  *bool
}

type TaskInput struct {
	ProjectID   uint64
	Title       string
	Description *string
	DueDate     *Date
	IsCompleted *bool
}

// ProjectRepository is the entity store for projects. Every method is scoped to
// ownerID; a project owned by someone else behaves exactly like a missing one.
type ProjectRepository interface {
	OwnsProject(ctx context.Context, ownerID, projectID uint64) (bool, error)
	Create(ctx context.Context, ownerID uint64, in ProjectInput) (Project, error)
	FindAll(ctx context.Context, ownerID uint64, f ProjectFilter, p Pagination) ([]Project, int64, error)
	Find(ctx context.Context, ownerID, projectID uint64) (Project, error)
	Update(ctx context.Context, ownerID, projectID uint64, in ProjectInput) (Project, error)
	ToggleArchived(ctx context.Context, ownerID, projectID uint64) (Project, error)
	Delete(ctx context.Context, ownerID, projectID uint64) error
}

// TaskRepository is the entity store for tasks. Ownership is always resolved
// through the task's current project.
type TaskRepository interface {
	OwnsTask(ctx context.Context, ownerID, taskID uint64) (bool, error)
	Create(ctx context.Context, ownerID uint64, in TaskInput) (Task, error)
	FindAll(ctx context.Context, ownerID uint64, f TaskFilter, p Pagination) ([]Task, int64, error)
	Find(ctx context.Context, ownerID, taskID uint64) (Task, error)
	Update(ctx context.Context, ownerID, taskID uint64, in TaskInput) (Task, error)
	ToggleCompleted(ctx context.Context, ownerID, taskID uint64) (Task, error)
	Delete(ctx context.Context, ownerID, taskID uint64) error
}

type Auth struct {
	AccessUUID string
	UserID     uint64
}

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrClaimsMissing   = errors.New("JWT claims was not passed through the context")
	ErrClaimsInvalid   = errors.New("JWT claims was invalid")
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError reports rejected input fields. It matches ErrInvalidArgument.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid argument: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
