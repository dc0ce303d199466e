package projectendpoint

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectauth"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
)

type Set struct {
	CreateProjectEndpoint  endpoint.Endpoint
	ProjectsEndpoint       endpoint.Endpoint
	ProjectEndpoint        endpoint.Endpoint
	UpdateProjectEndpoint  endpoint.Endpoint
	DeleteProjectEndpoint  endpoint.Endpoint
	ArchiveProjectEndpoint endpoint.Endpoint

	CreateTaskEndpoint   endpoint.Endpoint
	TasksEndpoint        endpoint.Endpoint
	TaskEndpoint         endpoint.Endpoint
	UpdateTaskEndpoint   endpoint.Endpoint
	DeleteTaskEndpoint   endpoint.Endpoint
	CompleteTaskEndpoint endpoint.Endpoint
}

func New(svc projectservice.Service, logger log.Logger) Set {
	wrap := func(method string, e endpoint.Endpoint) endpoint.Endpoint {
		return LoggingMiddleware(log.With(logger, "method", method))(e)
	}

	return Set{
		CreateProjectEndpoint:  wrap("CreateProject", MakeCreateProjectEndpoint(svc)),
		ProjectsEndpoint:       wrap("Projects", MakeProjectsEndpoint(svc)),
		ProjectEndpoint:        wrap("Project", MakeProjectEndpoint(svc)),
		UpdateProjectEndpoint:  wrap("UpdateProject", MakeUpdateProjectEndpoint(svc)),
		DeleteProjectEndpoint:  wrap("DeleteProject", MakeDeleteProjectEndpoint(svc)),
		ArchiveProjectEndpoint: wrap("ArchiveProject", MakeArchiveProjectEndpoint(svc)),

		CreateTaskEndpoint:   wrap("CreateTask", MakeCreateTaskEndpoint(svc)),
		TasksEndpoint:        wrap("Tasks", MakeTasksEndpoint(svc)),
		TaskEndpoint:         wrap("Task", MakeTaskEndpoint(svc)),
		UpdateTaskEndpoint:   wrap("UpdateTask", MakeUpdateTaskEndpoint(svc)),
		DeleteTaskEndpoint:   wrap("DeleteTask", MakeDeleteTaskEndpoint(svc)),
		CompleteTaskEndpoint: wrap("CompleteTask", MakeCompleteTaskEndpoint(svc)),
	}
}

// The Set methods let a remote set of endpoints be used as a
// projectservice.Service. The caller identity is carried by the token in ctx,
// so the Auth argument is not sent.

func (s Set) CreateProject(ctx context.Context, a projectsvc.Auth, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	resp, err := s.CreateProjectEndpoint(ctx, CreateProjectRequest{
		Name:        in.Name,
		Description: in.Description,
		IsArchived:  in.IsArchived,
	})
	if err != nil {
		return projectsvc.Project{}, err
	}
	response := resp.(CreateProjectResponse)
	return response.Project, response.Err
}

func (s Set) Projects(ctx context.Context, a projectsvc.Auth, f projectsvc.ProjectFilter, page int) ([]projectsvc.Project, projectsvc.Pagination, error) {
	resp, err := s.ProjectsEndpoint(ctx, ProjectsRequest{IsArchived: f.IsArchived, Page: page})
	if err != nil {
		return nil, projectsvc.Pagination{}, err
	}
	response := resp.(ProjectsResponse)
	return response.Projects, response.Pagination, response.Err
}

func (s Set) Project(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	resp, err := s.ProjectEndpoint(ctx, ProjectRequest{ProjectID: projectID})
	if err != nil {
		return projectsvc.Project{}, err
	}
	response := resp.(ProjectResponse)
	return response.Project, response.Err
}

func (s Set) UpdateProject(ctx context.Context, a projectsvc.Auth, projectID uint64, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	resp, err := s.UpdateProjectEndpoint(ctx, UpdateProjectRequest{
		ProjectID:   projectID,
		Name:        in.Name,
		Description: in.Description,
		IsArchived:  in.IsArchived,
	})
	if err != nil {
		return projectsvc.Project{}, err
	}
	response := resp.(UpdateProjectResponse)
	return response.Project, response.Err
}

func (s Set) DeleteProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (bool, error) {
	resp, err := s.DeleteProjectEndpoint(ctx, DeleteProjectRequest{ProjectID: projectID})
	if err != nil {
		return false, err
	}
	response := resp.(DeleteProjectResponse)
	return response.Result, response.Err
}

func (s Set) ArchiveProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	resp, err := s.ArchiveProjectEndpoint(ctx, ArchiveProjectRequest{ProjectID: projectID})
	if err != nil {
		return projectsvc.Project{}, err
	}
	response := resp.(ArchiveProjectResponse)
	return response.Project, response.Err
}

func (s Set) CreateTask(ctx context.Context, a projectsvc.Auth, in projectsvc.TaskInput) (projectsvc.Task, error) {
	resp, err := s.CreateTaskEndpoint(ctx, CreateTaskRequest{
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		IsCompleted: in.IsCompleted,
	})
	if err != nil {
		return projectsvc.Task{}, err
	}
	response := resp.(CreateTaskResponse)
	return response.Task, response.Err
}

func (s Set) Tasks(ctx context.Context, a projectsvc.Auth, f projectsvc.TaskFilter, page int) ([]projectsvc.Task, projectsvc.Pagination, error) {
	resp, err := s.TasksEndpoint(ctx, TasksRequest{
		ProjectID:   f.ProjectID,
		IsCompleted: f.IsCompleted,
		DueDate:     f.DueDate,
		Page:        page,
	})
	if err != nil {
		return nil, projectsvc.Pagination{}, err
	}
	response := resp.(TasksResponse)
	return response.Tasks, response.Pagination, response.Err
}

func (s Set) Task(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error) {
	resp, err := s.TaskEndpoint(ctx, TaskRequest{TaskID: taskID})
	if err != nil {
		return projectsvc.Task{}, err
	}
	response := resp.(TaskResponse)
	return response.Task, response.Err
}

func (s Set) UpdateTask(ctx context.Context, a projectsvc.Auth, taskID uint64, in projectsvc.TaskInput) (projectsvc.Task, error) {
	resp, err := s.UpdateTaskEndpoint(ctx, UpdateTaskRequest{
		TaskID:      taskID,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		IsCompleted: in.IsCompleted,
	})
	if err != nil {
		return projectsvc.Task{}, err
	}
	response := resp.(UpdateTaskResponse)
	return response.Task, response.Err
}

func (s Set) DeleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (bool, error) {
	resp, err := s.DeleteTaskEndpoint(ctx, DeleteTaskRequest{TaskID: taskID})
	if err != nil {
		return false, err
	}
	response := resp.(DeleteTaskResponse)
	return response.Result, response.Err
}

func (s Set) CompleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error) {
	resp, err := s.CompleteTaskEndpoint(ctx, CompleteTaskRequest{TaskID: taskID})
	if err != nil {
		return projectsvc.Task{}, err
	}
	response := resp.(CompleteTaskResponse)
	return response.Task, response.Err
}

func MakeCreateProjectEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return CreateProjectResponse{Err: err}, nil
		}

		req := request.(CreateProjectRequest)
		p, err := s.CreateProject(ctx, auth, req.input())
		return CreateProjectResponse{Project: p, Err: err}, nil
	}
}

func MakeProjectsEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return ProjectsResponse{Err: err}, nil
		}

		req := request.(ProjectsRequest)
		p, pg, err := s.Projects(ctx, auth, projectsvc.ProjectFilter{IsArchived: req.IsArchived}, req.Page)
		if p == nil {
			p = []projectsvc.Project{}
		}
		return ProjectsResponse{Projects: p, Pagination: pg, Err: err}, nil
	}
}

func MakeProjectEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return ProjectResponse{Err: err}, nil
		}

		req := request.(ProjectRequest)
		p, err := s.Project(ctx, auth, req.ProjectID)
		return ProjectResponse{Project: p, Err: err}, nil
	}
}

func MakeUpdateProjectEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return UpdateProjectResponse{Err: err}, nil
		}

		req := request.(UpdateProjectRequest)
		p, err := s.UpdateProject(ctx, auth, req.ProjectID, req.input())
		return UpdateProjectResponse{Project: p, Err: err}, nil
	}
}

func MakeDeleteProjectEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return DeleteProjectResponse{Err: err}, nil
		}

		req := request.(DeleteProjectRequest)
		r, err := s.DeleteProject(ctx, auth, req.ProjectID)
		return DeleteProjectResponse{Result: r, Err: err}, nil
	}
}

func MakeArchiveProjectEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return ArchiveProjectResponse{Err: err}, nil
		}

		req := request.(ArchiveProjectRequest)
		p, err := s.ArchiveProject(ctx, auth, req.ProjectID)
		return ArchiveProjectResponse{Project: p, Err: err}, nil
	}
}

func MakeCreateTaskEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return CreateTaskResponse{Err: err}, nil
		}

		req := request.(CreateTaskRequest)
		t, err := s.CreateTask(ctx, auth, req.input())
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return TasksResponse{Err: err}, nil
		}

		req := request.(TasksRequest)
		f := projectsvc.TaskFilter{
			ProjectID:   req.ProjectID,
			IsCompleted: req.IsCompleted,
			DueDate:     req.DueDate,
		}
		t, pg, err := s.Tasks(ctx, auth, f, req.Page)
		if t == nil {
			t = []projectsvc.Task{}
		}
		return TasksResponse{Tasks: t, Pagination: pg, Err: err}, nil
	}
}

func MakeTaskEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return TaskResponse{Err: err}, nil
		}

		req := request.(TaskRequest)
		t, err := s.Task(ctx, auth, req.TaskID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeUpdateTaskEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return UpdateTaskResponse{Err: err}, nil
		}

		req := request.(UpdateTaskRequest)
		t, err := s.UpdateTask(ctx, auth, req.TaskID, req.input())
		return UpdateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return DeleteTaskResponse{Err: err}, nil
		}

		req := request.(DeleteTaskRequest)
		r, err := s.DeleteTask(ctx, auth, req.TaskID)
		return DeleteTaskResponse{Result: r, Err: err}, nil
	}
}

func MakeCompleteTaskEndpoint(s projectservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		auth, err := projectauth.Claims(ctx)
		if err != nil {
			return CompleteTaskResponse{Err: err}, nil
		}

		req := request.(CompleteTaskRequest)
		t, err := s.CompleteTask(ctx, auth, req.TaskID)
		return CompleteTaskResponse{Task: t, Err: err}, nil
	}
}
