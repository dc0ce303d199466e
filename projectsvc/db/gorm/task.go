package gorm

import (
	"context"
	"fmt"

	"github.com/ichigozero/projectkit/projectsvc"
	stdgorm "gorm.io/gorm"
)

type taskRepository struct {
	db *stdgorm.DB
}

func NewTaskRepository(db *stdgorm.DB) projectsvc.TaskRepository {
	return &taskRepository{db}
}

func (t taskRepository) OwnsTask(ctx context.Context, ownerID, taskID uint64) (bool, error) {
	return ownsTask(t.db.WithContext(ctx), ownerID, taskID)
}

// Create inserts a task under in.ProjectID. It fails with ErrForbidden when
// the project is missing or belongs to another user.
func (t taskRepository) Create(ctx context.Context, ownerID uint64, in projectsvc.TaskInput) (projectsvc.Task, error) {
	var task projectsvc.Task
	err := t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		ok, err := ownsProject(tx, ownerID, in.ProjectID)
		if err != nil {
			return fmt.Errorf("resolve project owner: %w", err)
		}
		if !ok {
			return projectsvc.ErrForbidden
		}

		created := projectsvc.Task{
			ProjectID:   in.ProjectID,
			Title:       in.Title,
			Description: in.Description,
			DueDate:     in.DueDate,
			IsCompleted: in.IsCompleted != nil && *in.IsCompleted,
		}
		if err := tx.Omit("Project").Create(&created).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}

		task, err = findTask(tx, ownerID, created.ID)
		return err
	})

	return task, err
}

func (t taskRepository) FindAll(ctx context.Context, ownerID uint64, f projectsvc.TaskFilter, p projectsvc.Pagination) ([]projectsvc.Task, int64, error) {
	db := t.db.WithContext(ctx)

	query := func() *stdgorm.DB {
		q := db.Model(&projectsvc.Task{}).Scopes(ownedTasks(ownerID))
		if f.ProjectID != nil {
			q = q.Where("tasks.project_id = ?", *f.ProjectID)
		}
		if f.IsCompleted != nil {
			q = q.Where("tasks.is_completed = ?", *f.IsCompleted)
		}
		if f.DueDate != nil {
			q = q.Where("tasks.due_date >= ? AND tasks.due_date < ?", *f.DueDate, f.DueDate.Next())
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	tasks := []projectsvc.Task{}
	if p.Beyond(total) {
		return tasks, total, nil
	}

	result := query().
		Select("tasks.*").
		Preload("Project").
		Order("tasks.due_date IS NULL").
		Order("tasks.due_date ASC").
		Order("tasks.created_at DESC").
		Order("tasks.id DESC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&tasks)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", result.Error)
	}

	return tasks, total, nil
}

func (t taskRepository) Find(ctx context.Context, ownerID, taskID uint64) (projectsvc.Task, error) {
	return findTask(t.db.WithContext(ctx), ownerID, taskID)
}

// Update replaces the task fields. The task is resolved before the target
// project, so an unowned task reports ErrNotFound even when the target project
// is unowned as well.
func (t taskRepository) Update(ctx context.Context, ownerID, taskID uint64, in projectsvc.TaskInput) (projectsvc.Task, error) {
	var task projectsvc.Task
	err := t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		current, err := findTask(tx, ownerID, taskID)
		if err != nil {
			return err
		}

		ok, err := ownsProject(tx, ownerID, in.ProjectID)
		if err != nil {
			return fmt.Errorf("resolve project owner: %w", err)
		}
		if !ok {
			return projectsvc.ErrForbidden
		}

		isCompleted := current.IsCompleted
		if in.IsCompleted != nil {
			isCompleted = *in.IsCompleted
		}

		var dueDate interface{}
		if in.DueDate != nil {
			dueDate = *in.DueDate
		}

		result := tx.Model(&projectsvc.Task{ID: taskID}).Updates(
			map[string]interface{}{
				"project_id":   in.ProjectID,
				"title":        in.Title,
				"description":  in.Description,
				"due_date":     dueDate,
				"is_completed": isCompleted,
			})
		if result.Error != nil {
			return fmt.Errorf("update task: %w", result.Error)
		}

		task, err = findTask(tx, ownerID, taskID)
		return err
	})

	return task, err
}

func (t taskRepository) ToggleCompleted(ctx context.Context, ownerID, taskID uint64) (projectsvc.Task, error) {
	var task projectsvc.Task
	err := t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		current, err := findTask(tx, ownerID, taskID)
		if err != nil {
			return err
		}

		result := tx.Model(&projectsvc.Task{ID: taskID}).Update("is_completed", !current.IsCompleted)
		if result.Error != nil {
			return fmt.Errorf("toggle task completion: %w", result.Error)
		}

		task, err = findTask(tx, ownerID, taskID)
		return err
	})

	return task, err
}

func (t taskRepository) Delete(ctx context.Context, ownerID, taskID uint64) error {
	return t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		ok, err := ownsTask(tx, ownerID, taskID)
		if err != nil {
			return fmt.Errorf("resolve task owner: %w", err)
		}
		if !ok {
			return projectsvc.ErrNotFound
		}

		if err := tx.Delete(&projectsvc.Task{}, taskID).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

func findTask(db *stdgorm.DB, ownerID, taskID uint64) (projectsvc.Task, error) {
	var task projectsvc.Task
	result := db.Model(&projectsvc.Task{}).
		Scopes(ownedTasks(ownerID)).
		Select("tasks.*").
		Preload("Project").
		Where("tasks.id = ?", taskID).
		First(&task)
	if result.Error != nil {
		return projectsvc.Task{}, notFound(result.Error, "find task")
	}

	return task, nil
}
