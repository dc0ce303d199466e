package projectendpoint

import (
	"github.com/go-kit/kit/endpoint"
	"github.com/ichigozero/projectkit/projectsvc"
)

var (
	_ endpoint.Failer = CreateProjectResponse{}
	_ endpoint.Failer = ProjectsResponse{}
	_ endpoint.Failer = ProjectResponse{}
	_ endpoint.Failer = UpdateProjectResponse{}
	_ endpoint.Failer = DeleteProjectResponse{}
	_ endpoint.Failer = ArchiveProjectResponse{}
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = TaskResponse{}
	_ endpoint.Failer = UpdateTaskResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
	_ endpoint.Failer = CompleteTaskResponse{}
)

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

func (r CreateProjectRequest) input() projectsvc.ProjectInput {
	return projectsvc.ProjectInput{Name: r.Name, Description: r.Description, IsArchived: r.IsArchived}
}

type CreateProjectResponse struct {
	Project projectsvc.Project `json:"project"`
	Err     error              `json:"-"`
}

func (r CreateProjectResponse) Failed() error { return r.Err }

type ProjectsRequest struct {
	IsArchived *bool
	Page       int
}

type ProjectsResponse struct {
	Projects   []projectsvc.Project  `json:"projects"`
	Pagination projectsvc.Pagination `json:"pagination"`
	Err        error                 `json:"-"`
}

func (r ProjectsResponse) Failed() error { return r.Err }

type ProjectRequest struct {
	ProjectID uint64
}

type ProjectResponse struct {
	Project projectsvc.Project `json:"project"`
	Err     error              `json:"-"`
}

func (r ProjectResponse) Failed() error { return r.Err }

type UpdateProjectRequest struct {
	ProjectID   uint64  `json:"-"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsArchived  *bool   `json:"is_archived,omitempty"`
}

func (r UpdateProjectRequest) input() projectsvc.ProjectInput {
	return projectsvc.ProjectInput{Name: r.Name, Description: r.Description, IsArchived: r.IsArchived}
}

type UpdateProjectResponse struct {
	Project projectsvc.Project `json:"project"`
	Err     error              `json:"-"`
}

func (r UpdateProjectResponse) Failed() error { return r.Err }

type DeleteProjectRequest struct {
	ProjectID uint64
}

type DeleteProjectResponse struct {
	Result bool  `json:"result"`
	Err    error `json:"-"`
}

func (r DeleteProjectResponse) Failed() error { return r.Err }

type ArchiveProjectRequest struct {
	ProjectID uint64
}

type ArchiveProjectResponse struct {
	Project projectsvc.Project `json:"project"`
	Err     error              `json:"-"`
}

func (r ArchiveProjectResponse) Failed() error { return r.Err }

type CreateTaskRequest struct {
	ProjectID   uint64           `json:"project_id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	DueDate     *projectsvc.Date `json:"due_date"`
	IsCompleted *bool            `json:"is_completed,omitempty"`
}

func (r CreateTaskRequest) input() projectsvc.TaskInput {
	return projectsvc.TaskInput{
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		IsCompleted: r.IsCompleted,
	}
}

type CreateTaskResponse struct {
	Task projectsvc.Task `json:"task"`
	Err  error           `json:"-"`
}

func (r CreateTaskResponse) Failed() error { return r.Err }

type TasksRequest struct {
	ProjectID   *uint64
	IsCompleted *bool
	DueDate     *projectsvc.Date
	Page        int
}

type TasksResponse struct {
	Tasks      []projectsvc.Task     `json:"tasks"`
	Pagination projectsvc.Pagination `json:"pagination"`
	Err        error                 `json:"-"`
}

func (r TasksResponse) Failed() error { return r.Err }

type TaskRequest struct {
	TaskID uint64
}

type TaskResponse struct {
	Task projectsvc.Task `json:"task"`
	Err  error           `json:"-"`
}

func (r TaskResponse) Failed() error { return r.Err }

type UpdateTaskRequest struct {
	TaskID      uint64           `json:"-"`
	ProjectID   uint64           `json:"project_id"`
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	DueDate     *projectsvc.Date `json:"due_date"`
	IsCompleted *bool            `json:"is_completed,omitempty"`
}

func (r UpdateTaskRequest) input() projectsvc.TaskInput {
	return projectsvc.TaskInput{
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		IsCompleted: r.IsCompleted,
	}
}

type UpdateTaskResponse struct {
	Task projectsvc.Task `json:"task"`
	Err  error           `json:"-"`
}

func (r UpdateTaskResponse) Failed() error { return r.Err }

type DeleteTaskRequest struct {
	TaskID uint64
}

type DeleteTaskResponse struct {
	Result bool  `json:"result"`
	Err    error `json:"-"`
}

func (r DeleteTaskResponse) Failed() error { return r.Err }

type CompleteTaskRequest struct {
	TaskID uint64
}

type CompleteTaskResponse struct {
	Task projectsvc.Task `json:"task"`
	Err  error           `json:"-"`
}

func (r CompleteTaskResponse) Failed() error { return r.Err }
