package projectservice_test

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/ichigozero/projectkit/projectsvc/db/gorm"
	"github.com/ichigozero/projectkit/projectsvc/pkg/projectservice"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	stdgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dbSeq uint64

	u1 = projectsvc.Auth{AccessUUID: "u1-session", UserID: 1}
	u2 = projectsvc.Auth{AccessUUID: "u2-session", UserID: 2}
)

func newService(t *testing.T) projectservice.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:projectservice%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddUint64(&dbSeq, 1))
	db, err := stdgorm.Open(sqlite.Open(dsn), &stdgorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gorm.Migrate(db))
	return projectservice.New(gorm.NewProjectRepository(db), gorm.NewTaskRepository(db), log.NewNopLogger())
}

func strPtr(s string) *string { return &s }

func TestCreateProjectValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: "   "})
	require.ErrorIs(t, err, projectsvc.ErrInvalidArgument)

	var verr *projectsvc.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")

	_, err = svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: strings.Repeat("a", 256)})
	require.ErrorIs(t, err, projectsvc.ErrInvalidArgument)

	project, err := svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: strings.Repeat("é", 255), Description: strPtr("  ")})
	require.NoError(t, err)
	require.Nil(t, project.Description)
	require.False(t, project.IsArchived)

	_, err = svc.CreateProject(ctx, projectsvc.Auth{}, projectsvc.ProjectInput{Name: "Home"})
	require.ErrorIs(t, err, projectsvc.ErrInvalidArgument)
}

func TestCreateTaskValidationAndForbidden(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateTask(ctx, u1, projectsvc.TaskInput{Title: "orphan"})
	require.ErrorIs(t, err, projectsvc.ErrInvalidArgument)

	foreign, err := svc.CreateProject(ctx, u2, projectsvc.ProjectInput{Name: "Bob's"})
	require.NoError(t, err)

	// validation runs before ownership
	_, err = svc.CreateTask(ctx, u1, projectsvc.TaskInput{ProjectID: foreign.ID})
	require.ErrorIs(t, err, projectsvc.ErrInvalidArgument)

	_, err = svc.CreateTask(ctx, u1, projectsvc.TaskInput{ProjectID: foreign.ID, Title: "sneaky"})
	require.ErrorIs(t, err, projectsvc.ErrForbidden)
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: "Home"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, u1, projectsvc.TaskInput{ProjectID: project.ID, Title: "Buy milk"})
	require.NoError(t, err)

	projects, page, err := svc.Projects(ctx, u2, projectsvc.ProjectFilter{}, 1)
	require.NoError(t, err)
	require.Empty(t, projects)
	require.Zero(t, page.Total)

	tasks, _, err := svc.Tasks(ctx, u2, projectsvc.TaskFilter{ProjectID: &project.ID}, 1)
	require.NoError(t, err)
	require.Empty(t, tasks)

	_, err = svc.Project(ctx, u2, project.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.UpdateProject(ctx, u2, project.ID, projectsvc.ProjectInput{Name: "Mine"})
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.ArchiveProject(ctx, u2, project.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.DeleteProject(ctx, u2, project.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	_, err = svc.Task(ctx, u2, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.UpdateTask(ctx, u2, task.ID, projectsvc.TaskInput{ProjectID: project.ID, Title: "Mine"})
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.CompleteTask(ctx, u2, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.DeleteTask(ctx, u2, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	got, err := svc.Project(ctx, u1, project.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.TaskCount)
}

func TestZeroIDsAreNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Project(ctx, u1, 0)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.Task(ctx, u1, 0)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
	_, err = svc.DeleteTask(ctx, u1, 0)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
}

func TestMoveTaskIntoForeignProjectIsForbidden(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	home, err := svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: "Home"})
	require.NoError(t, err)
	foreign, err := svc.CreateProject(ctx, u2, projectsvc.ProjectInput{Name: "Bob's"})
	require.NoError(t, err)
	task, err := svc.CreateTask(ctx, u1, projectsvc.TaskInput{ProjectID: home.ID, Title: "Buy milk"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, u1, task.ID, projectsvc.TaskInput{ProjectID: foreign.ID, Title: "Buy milk"})
	require.ErrorIs(t, err, projectsvc.ErrForbidden)

	got, err := svc.Task(ctx, u1, task.ID)
	require.NoError(t, err)
	require.Equal(t, home.ID, got.ProjectID)
}

func TestListingPagination(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	home, err := svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: "Home"})
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		_, err := svc.CreateTask(ctx, u1, projectsvc.TaskInput{ProjectID: home.ID, Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	tasks, page, err := svc.Tasks(ctx, u1, projectsvc.TaskFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 15)
	require.EqualValues(t, 1, *page.From)
	require.EqualValues(t, 15, *page.To)
	require.Equal(t, 3, page.LastPage)

	tasks, page, err = svc.Tasks(ctx, u1, projectsvc.TaskFilter{}, 3)
	require.NoError(t, err)
	require.Len(t, tasks, 10)
	require.EqualValues(t, 31, *page.From)
	require.EqualValues(t, 40, *page.To)

	tasks, page, err = svc.Tasks(ctx, u1, projectsvc.TaskFilter{}, 4)
	require.NoError(t, err)
	require.Empty(t, tasks)
	require.Nil(t, page.From)
	require.Nil(t, page.To)
	require.Equal(t, 4, page.CurrentPage)

	for _, huge := range []int{math.MaxInt, math.MaxInt/projectsvc.PerPage + 2} {
		tasks, page, err = svc.Tasks(ctx, u1, projectsvc.TaskFilter{}, huge)
		require.NoError(t, err)
		require.Empty(t, tasks, "page %d", huge)
		require.Nil(t, page.From)
		require.Nil(t, page.To)
		require.Equal(t, huge, page.CurrentPage)
		require.Equal(t, 3, page.LastPage)

		projects, projectPage, err := svc.Projects(ctx, u1, projectsvc.ProjectFilter{}, huge)
		require.NoError(t, err)
		require.Empty(t, projects)
		require.Nil(t, projectPage.From)
	}
}

func TestHomeScenario(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	home, err := svc.CreateProject(ctx, u1, projectsvc.ProjectInput{Name: "Home"})
	require.NoError(t, err)

	task, err := svc.CreateTask(ctx, u1, projectsvc.TaskInput{ProjectID: home.ID, Title: "Buy milk"})
	require.NoError(t, err)
	require.False(t, task.IsCompleted)

	task, err = svc.CompleteTask(ctx, u1, task.ID)
	require.NoError(t, err)
	require.True(t, task.IsCompleted)

	task, err = svc.CompleteTask(ctx, u1, task.ID)
	require.NoError(t, err)
	require.False(t, task.IsCompleted)

	deleted, err := svc.DeleteProject(ctx, u1, home.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = svc.Task(ctx, u1, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
}

type countingCounter struct {
	n *int64
}

func (c countingCounter) With(...string) metrics.Counter { return c }

func (c countingCounter) Add(delta float64) { atomic.AddInt64(c.n, int64(delta)) }

func TestMiddlewares(t *testing.T) {
	var (
		buf   bytes.Buffer
		calls int64
	)

	svc := newService(t)
	svc = projectservice.LoggingMiddleware(log.NewLogfmtLogger(&buf))(svc)
	svc = projectservice.InstrumentingMiddleware(countingCounter{&calls}, discard.NewHistogram())(svc)

	_, err := svc.Project(context.Background(), u1, 42)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	_, _, err = svc.Tasks(context.Background(), u1, projectsvc.TaskFilter{}, 1)
	require.NoError(t, err)

	require.EqualValues(t, 2, atomic.LoadInt64(&calls))
	require.Contains(t, buf.String(), "method=Project")
	require.Contains(t, buf.String(), "project_id=42")
	require.Contains(t, buf.String(), "err=\"not found\"")
	require.Contains(t, buf.String(), "method=Tasks")
	require.Contains(t, buf.String(), "due_date=-")
}
