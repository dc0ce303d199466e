package projectservice

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/projectkit/projectsvc"
)

type Service interface {
	CreateProject(ctx context.Context, a projectsvc.Auth, in projectsvc.ProjectInput) (projectsvc.Project, error)
	Projects(ctx context.Context, a projectsvc.Auth, f projectsvc.ProjectFilter, page int) ([]projectsvc.Project, projectsvc.Pagination, error)
	Project(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error)
	UpdateProject(ctx context.Context, a projectsvc.Auth, projectID uint64, in projectsvc.ProjectInput) (projectsvc.Project, error)
	DeleteProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (bool, error)
	ArchiveProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error)

	CreateTask(ctx context.Context, a projectsvc.Auth, in projectsvc.TaskInput) (projectsvc.Task, error)
	Tasks(ctx context.Context, a projectsvc.Auth, f projectsvc.TaskFilter, page int) ([]projectsvc.Task, projectsvc.Pagination, error)
	Task(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error)
	UpdateTask(ctx context.Context, a projectsvc.Auth, taskID uint64, in projectsvc.TaskInput) (projectsvc.Task, error)
	DeleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (bool, error)
	CompleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error)
}

const maxNameLength = 255

func New(p projectsvc.ProjectRepository, t projectsvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(p, t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	projects projectsvc.ProjectRepository
	tasks    projectsvc.TaskRepository
}

func NewBasicService(p projectsvc.ProjectRepository, t projectsvc.TaskRepository) Service {
	return basicService{projects: p, tasks: t}
}

func (s basicService) CreateProject(ctx context.Context, a projectsvc.Auth, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	if a.UserID == 0 {
		return projectsvc.Project{}, projectsvc.ErrInvalidArgument
	}
	in, err := normalizeProject(in)
	if err != nil {
		return projectsvc.Project{}, err
	}
	return s.projects.Create(ctx, a.UserID, in)
}

func (s basicService) Projects(ctx context.Context, a projectsvc.Auth, f projectsvc.ProjectFilter, page int) ([]projectsvc.Project, projectsvc.Pagination, error) {
	if a.UserID == 0 {
		return nil, projectsvc.Pagination{}, projectsvc.ErrInvalidArgument
	}

	p := projectsvc.PageRequest(page)
	projects, total, err := s.projects.FindAll(ctx, a.UserID, f, p)
	if err != nil {
		return nil, projectsvc.Pagination{}, err
	}
	return projects, p.WithTotal(total), nil
}

func (s basicService) Project(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	if a.UserID == 0 {
		return projectsvc.Project{}, projectsvc.ErrInvalidArgument
	}
	if projectID == 0 {
		return projectsvc.Project{}, projectsvc.ErrNotFound
	}
	return s.projects.Find(ctx, a.UserID, projectID)
}

func (s basicService) UpdateProject(ctx context.Context, a projectsvc.Auth, projectID uint64, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	if a.UserID == 0 {
		return projectsvc.Project{}, projectsvc.ErrInvalidArgument
	}
	in, err := normalizeProject(in)
	if err != nil {
		return projectsvc.Project{}, err
	}
	if projectID == 0 {
		return projectsvc.Project{}, projectsvc.ErrNotFound
	}
	return s.projects.Update(ctx, a.UserID, projectID, in)
}

func (s basicService) DeleteProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (bool, error) {
	if a.UserID == 0 {
		return false, projectsvc.ErrInvalidArgument
	}
	if projectID == 0 {
		return false, projectsvc.ErrNotFound
	}
	if err := s.projects.Delete(ctx, a.UserID, projectID); err != nil {
		return false, err
	}
	return true, nil
}

func (s basicService) ArchiveProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	if a.UserID == 0 {
		return projectsvc.Project{}, projectsvc.ErrInvalidArgument
	}
	if projectID == 0 {
		return projectsvc.Project{}, projectsvc.ErrNotFound
	}
	return s.projects.ToggleArchived(ctx, a.UserID, projectID)
}

func (s basicService) CreateTask(ctx context.Context, a projectsvc.Auth, in projectsvc.TaskInput) (projectsvc.Task, error) {
	if a.UserID == 0 {
		return projectsvc.Task{}, projectsvc.ErrInvalidArgument
	}
	in, err := normalizeTask(in)
	if err != nil {
		return projectsvc.Task{}, err
	}
	return s.tasks.Create(ctx, a.UserID, in)
}

func (s basicService) Tasks(ctx context.Context, a projectsvc.Auth, f projectsvc.TaskFilter, page int) ([]projectsvc.Task, projectsvc.Pagination, error) {
	if a.UserID == 0 {
		return nil, projectsvc.Pagination{}, projectsvc.ErrInvalidArgument
	}

	p := projectsvc.PageRequest(page)
	tasks, total, err := s.tasks.FindAll(ctx, a.UserID, f, p)
	if err != nil {
		return nil, projectsvc.Pagination{}, err
	}
	return tasks, p.WithTotal(total), nil
}

func (s basicService) Task(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error) {
	if a.UserID == 0 {
		return projectsvc.Task{}, projectsvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return projectsvc.Task{}, projectsvc.ErrNotFound
	}
	return s.tasks.Find(ctx, a.UserID, taskID)
}

func (s basicService) UpdateTask(ctx context.Context, a projectsvc.Auth, taskID uint64, in projectsvc.TaskInput) (projectsvc.Task, error) {
	if a.UserID == 0 {
		return projectsvc.Task{}, projectsvc.ErrInvalidArgument
	}
	in, err := normalizeTask(in)
	if err != nil {
		return projectsvc.Task{}, err
	}
	if taskID == 0 {
		return projectsvc.Task{}, projectsvc.ErrNotFound
	}
	return s.tasks.Update(ctx, a.UserID, taskID, in)
}

func (s basicService) DeleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (bool, error) {
	if a.UserID == 0 {
		return false, projectsvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return false, projectsvc.ErrNotFound
	}
	if err := s.tasks.Delete(ctx, a.UserID, taskID); err != nil {
		return false, err
	}
	return true, nil
}

func (s basicService) CompleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error) {
	if a.UserID == 0 {
		return projectsvc.Task{}, projectsvc.ErrInvalidArgument
	}
	if taskID == 0 {
		return projectsvc.Task{}, projectsvc.ErrNotFound
	}
	return s.tasks.ToggleCompleted(ctx, a.UserID, taskID)
}

func normalizeProject(in projectsvc.ProjectInput) (projectsvc.ProjectInput, error) {
	fields := map[string]string{}

	in.Name = strings.TrimSpace(in.Name)
	checkName(fields, "name", in.Name)
	in.Description = trimOptional(in.Description)

	if len(fields) > 0 {
		return in, &projectsvc.ValidationError{Fields: fields}
	}
	return in, nil
}

func normalizeTask(in projectsvc.TaskInput) (projectsvc.TaskInput, error) {
	fields := map[string]string{}

	if in.ProjectID == 0 {
		fields["project_id"] = "is required"
	}
	in.Title = strings.TrimSpace(in.Title)
	checkName(fields, "title", in.Title)
	in.Description = trimOptional(in.Description)

	if len(fields) > 0 {
		return in, &projectsvc.ValidationError{Fields: fields}
	}
	return in, nil
}

func checkName(fields map[string]string, field, value string) {
	switch {
	case value == "":
		fields[field] = "is required"
	case utf8.RuneCountInString(value) > maxNameLength:
		fields[field] = "may not be greater than 255 characters"
	}
}

// trimOptional trims s and turns an empty result into nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
