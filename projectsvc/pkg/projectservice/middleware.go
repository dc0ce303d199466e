package projectservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/projectkit/projectsvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) CreateProject(ctx context.Context, a projectsvc.Auth, in projectsvc.ProjectInput) (p projectsvc.Project, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateProject",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", p.ID,
			"name", in.Name,
			"err", err,
		)
	}()
	return mw.next.CreateProject(ctx, a, in)
}

func (mw loggingMiddleware) Projects(ctx context.Context, a projectsvc.Auth, f projectsvc.ProjectFilter, page int) (p []projectsvc.Project, pg projectsvc.Pagination, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Projects",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"is_archived", optional(f.IsArchived),
			"page", page,
			"total", pg.Total,
			"err", err,
		)
	}()
	return mw.next.Projects(ctx, a, f, page)
}

func (mw loggingMiddleware) Project(ctx context.Context, a projectsvc.Auth, projectID uint64) (p projectsvc.Project, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Project",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", projectID,
			"err", err,
		)
	}()
	return mw.next.Project(ctx, a, projectID)
}

func (mw loggingMiddleware) UpdateProject(ctx context.Context, a projectsvc.Auth, projectID uint64, in projectsvc.ProjectInput) (p projectsvc.Project, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateProject",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", projectID,
			"name", in.Name,
			"is_archived", optional(in.IsArchived),
			"err", err,
		)
	}()
	return mw.next.UpdateProject(ctx, a, projectID, in)
}

func (mw loggingMiddleware) DeleteProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (result bool, err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteProject",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", projectID,
			"result", result,
			"err", err,
		)
	}()
	return mw.next.DeleteProject(ctx, a, projectID)
}

func (mw loggingMiddleware) ArchiveProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (p projectsvc.Project, err error) {
	defer func() {
		mw.logger.Log(
			"method", "ArchiveProject",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", projectID,
			"is_archived", p.IsArchived,
			"err", err,
		)
	}()
	return mw.next.ArchiveProject(ctx, a, projectID)
}

func (mw loggingMiddleware) CreateTask(ctx context.Context, a projectsvc.Auth, in projectsvc.TaskInput) (t projectsvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTask",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", in.ProjectID,
			"task_id", t.ID,
			"title", in.Title,
			"err", err,
		)
	}()
	return mw.next.CreateTask(ctx, a, in)
}

func (mw loggingMiddleware) Tasks(ctx context.Context, a projectsvc.Auth, f projectsvc.TaskFilter, page int) (t []projectsvc.Task, pg projectsvc.Pagination, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Tasks",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"project_id", optional(f.ProjectID),
			"is_completed", optional(f.IsCompleted),
			"due_date", optional(f.DueDate),
			"page", page,
			"total", pg.Total,
			"err", err,
		)
	}()
	return mw.next.Tasks(ctx, a, f, page)
}

func (mw loggingMiddleware) Task(ctx context.Context, a projectsvc.Auth, taskID uint64) (t projectsvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Task",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"task_id", taskID,
			"err", err,
		)
	}()
	return mw.next.Task(ctx, a, taskID)
}

func (mw loggingMiddleware) UpdateTask(ctx context.Context, a projectsvc.Auth, taskID uint64, in projectsvc.TaskInput) (t projectsvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTask",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"task_id", taskID,
			"project_id", in.ProjectID,
			"title", in.Title,
			"is_completed", optional(in.IsCompleted),
			"err", err,
		)
	}()
	return mw.next.UpdateTask(ctx, a, taskID, in)
}

func (mw loggingMiddleware) DeleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (result bool, err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteTask",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"task_id", taskID,
			"result", result,
			"err", err,
		)
	}()
	return mw.next.DeleteTask(ctx, a, taskID)
}

func (mw loggingMiddleware) CompleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (t projectsvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CompleteTask",
			"access_uuid", a.AccessUUID,
			"user_id", a.UserID,
			"task_id", taskID,
			"is_completed", t.IsCompleted,
			"err", err,
		)
	}()
	return mw.next.CompleteTask(ctx, a, taskID)
}

// optional renders an unset filter as "-" in log lines.
func optional(v interface{}) interface{} {
	switch p := v.(type) {
	case *bool:
		if p != nil {
			return *p
		}
	case *uint64:
		if p != nil {
			return *p
		}
	case *projectsvc.Date:
		if p != nil {
			return p.String()
		}
	}
	return "-"
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) CreateProject(ctx context.Context, a projectsvc.Auth, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	defer mw.observe("create_project", time.Now())
	return mw.next.CreateProject(ctx, a, in)
}

func (mw instrumentingMiddleware) Projects(ctx context.Context, a projectsvc.Auth, f projectsvc.ProjectFilter, page int) ([]projectsvc.Project, projectsvc.Pagination, error) {
	defer mw.observe("projects", time.Now())
	return mw.next.Projects(ctx, a, f, page)
}

func (mw instrumentingMiddleware) Project(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	defer mw.observe("project", time.Now())
	return mw.next.Project(ctx, a, projectID)
}

func (mw instrumentingMiddleware) UpdateProject(ctx context.Context, a projectsvc.Auth, projectID uint64, in projectsvc.ProjectInput) (projectsvc.Project, error) {
	defer mw.observe("update_project", time.Now())
	return mw.next.UpdateProject(ctx, a, projectID, in)
}

func (mw instrumentingMiddleware) DeleteProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (bool, error) {
	defer mw.observe("delete_project", time.Now())
	return mw.next.DeleteProject(ctx, a, projectID)
}

func (mw instrumentingMiddleware) ArchiveProject(ctx context.Context, a projectsvc.Auth, projectID uint64) (projectsvc.Project, error) {
	defer mw.observe("archive_project", time.Now())
	return mw.next.ArchiveProject(ctx, a, projectID)
}

func (mw instrumentingMiddleware) CreateTask(ctx context.Context, a projectsvc.Auth, in projectsvc.TaskInput) (projectsvc.Task, error) {
	defer mw.observe("create_task", time.Now())
	return mw.next.CreateTask(ctx, a, in)
}

func (mw instrumentingMiddleware) Tasks(ctx context.Context, a projectsvc.Auth, f projectsvc.TaskFilter, page int) ([]projectsvc.Task, projectsvc.Pagination, error) {
	defer mw.observe("tasks", time.Now())
	return mw.next.Tasks(ctx, a, f, page)
}

func (mw instrumentingMiddleware) Task(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error) {
	defer mw.observe("task", time.Now())
	return mw.next.Task(ctx, a, taskID)
}

func (mw instrumentingMiddleware) UpdateTask(ctx context.Context, a projectsvc.Auth, taskID uint64, in projectsvc.TaskInput) (projectsvc.Task, error) {
	defer mw.observe("update_task", time.Now())
	return mw.next.UpdateTask(ctx, a, taskID, in)
}

func (mw instrumentingMiddleware) DeleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (bool, error) {
	defer mw.observe("delete_task", time.Now())
	return mw.next.DeleteTask(ctx, a, taskID)
}

func (mw instrumentingMiddleware) CompleteTask(ctx context.Context, a projectsvc.Auth, taskID uint64) (projectsvc.Task, error) {
	defer mw.observe("complete_task", time.Now())
	return mw.next.CompleteTask(ctx, a, taskID)
}
