package gorm

import (
	"context"
	"fmt"

	"github.com/ichigozero/projectkit/projectsvc"
	stdgorm "gorm.io/gorm"
)

type projectRepository struct {
	db *stdgorm.DB
}

func NewProjectRepository(db *stdgorm.DB) projectsvc.ProjectRepository {
	return &projectRepository{db}
}

func (r projectRepository) OwnsProject(ctx context.Context, ownerID, projectID uint64) (bool, error) {
	return ownsProject(r.db.WithContext(ctx), ownerID, projectID)
}

func (r projectRepository) Create(ctx context.Context, ownerID uint64, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	project := projectsvc.Project{
		OwnerUserID: ownerID,
		Name:        in.Name,
		Description: in.Description,
		IsArchived:  in.IsArchived != nil && *in.IsArchived,
	}
	if err := r.db.WithContext(ctx).Create(&project).Error; err != nil {
		return projectsvc.Project{}, fmt.Errorf("create project: %w", err)
	}

	return project, nil
}

func (r projectRepository) FindAll(ctx context.Context, ownerID uint64, f projectsvc.ProjectFilter, p projectsvc.Pagination) ([]projectsvc.Project, int64, error) {
	db := r.db.WithContext(ctx)

	query := func() *stdgorm.DB {
		q := db.Model(&projectsvc.Project{}).Scopes(ownedProjects(ownerID))
		if f.IsArchived != nil {
			q = q.Where("projects.is_archived = ?", *f.IsArchived)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	projects := []projectsvc.Project{}
	if p.Beyond(total) {
		return projects, total, nil
	}

	result := query().
		Order("projects.created_at DESC").
		Order("projects.id ASC").
		Limit(p.Limit()).
		Offset(p.Offset()).
		Find(&projects)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("list projects: %w", result.Error)
	}

	if err := attachTaskCounts(db, projects); err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Find returns the project with its tasks, oldest first.
func (r projectRepository) Find(ctx context.Context, ownerID, projectID uint64) (projectsvc.Project, error) {
	var project projectsvc.Project
	result := r.db.WithContext(ctx).
		Scopes(ownedProjects(ownerID)).
		Preload("Tasks", func(db *stdgorm.DB) *stdgorm.DB {
			return db.Order("tasks.id ASC")
		}).
		Where("projects.id = ?", projectID).
		First(&project)
	if result.Error != nil {
		return projectsvc.Project{}, notFound(result.Error, "find project")
	}

	if project.Tasks == nil {
		project.Tasks = []projectsvc.Task{}
	}
	project.TaskCount = int64(len(project.Tasks))

	return project, nil
}

func (r projectRepository) Update(ctx context.Context, ownerID, projectID uint64, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	var project projectsvc.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		current, err := findProject(tx, ownerID, projectID)
		if err != nil {
			return err
		}

		isArchived := current.IsArchived
		if in.IsArchived != nil {
			isArchived = *in.IsArchived
		}

		result := tx.Model(&projectsvc.Project{ID: projectID}).Updates(
			map[string]interface{}{
				"name":        in.Name,
				"description": in.Description,
				"is_archived": isArchived,
			})
		if result.Error != nil {
			return fmt.Errorf("update project: %w", result.Error)
		}

		project, err = findProject(tx, ownerID, projectID)
		return err
	})

	return project, err
}

func (r projectRepository) ToggleArchived(ctx context.Context, ownerID, projectID uint64) (projectsvc.Project, error) {
	var project projectsvc.Project
	err := r.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		current, err := findProject(tx, ownerID, projectID)
		if err != nil {
			return err
		}

		result := tx.Model(&projectsvc.Project{ID: projectID}).Update("is_archived", !current.IsArchived)
		if result.Error != nil {
			return fmt.Errorf("toggle project archive: %w", result.Error)
		}

		project, err = findProject(tx, ownerID, projectID)
		return err
	})

	return project, err
}

// Delete removes the project and every task under it in one transaction.
func (r projectRepository) Delete(ctx context.Context, ownerID, projectID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		ok, err := ownsProject(tx, ownerID, projectID)
		if err != nil {
			return fmt.Errorf("resolve project owner: %w", err)
		}
		if !ok {
			return projectsvc.ErrNotFound
		}

		if err := tx.Where("project_id = ?", projectID).Delete(&projectsvc.Task{}).Error; err != nil {
			return fmt.Errorf("delete project tasks: %w", err)
		}
		if err := tx.Delete(&projectsvc.Project{}, projectID).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return nil
	})
}

func findProject(db *stdgorm.DB, ownerID, projectID uint64) (projectsvc.Project, error) {
	var project projectsvc.Project
	result := db.Scopes(ownedProjects(ownerID)).Where("projects.id = ?", projectID).First(&project)
	if result.Error != nil {
		return projectsvc.Project{}, notFound(result.Error, "find project")
	}

	projects := []projectsvc.Project{project}
	if err := attachTaskCounts(db, projects); err != nil {
		return projectsvc.Project{}, err
	}

	return projects[0], nil
}

// attachTaskCounts sets TaskCount on every project. Completed tasks count too.
func attachTaskCounts(db *stdgorm.DB, projects []projectsvc.Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]uint64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	var rows []struct {
		ProjectID uint64
		Total     int64
	}
	result := db.Model(&projectsvc.Task{}).
		Select("project_id, COUNT(*) AS total").
		Where("project_id IN ?", ids).
		Group("project_id").
		Scan(&rows)
	if result.Error != nil {
		return fmt.Errorf("count project tasks: %w", result.Error)
	}

	counts := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		counts[row.ProjectID] = row.Total
	}
	for i := range projects {
		projects[i].TaskCount = counts[projects[i].ID]
	}
	return nil
}
