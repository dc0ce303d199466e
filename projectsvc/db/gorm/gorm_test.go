package gorm

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	stdgorm "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq uint64

func newTestDB(t *testing.T) *stdgorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:projectkit%d?mode=memory&cache=shared&_foreign_keys=on", atomic.AddUint64(&dbSeq, 1))
	db, err := stdgorm.Open(sqlite.Open(dsn), &stdgorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func mustCreateProject(t *testing.T, repo projectsvc.ProjectRepository, ownerID uint64, name string) projectsvc.Project {
	t.Helper()

	project, err := repo.Create(context.Background(), ownerID, projectsvc.ProjectInput{Name: name})
	require.NoError(t, err)
	return project
}

func mustCreateTask(t *testing.T, repo projectsvc.TaskRepository, ownerID, projectID uint64, title string, due *projectsvc.Date) projectsvc.Task {
	t.Helper()

	task, err := repo.Create(context.Background(), ownerID, projectsvc.TaskInput{
		ProjectID: projectID,
		Title:     title,
		DueDate:   due,
	})
	require.NoError(t, err)
	return task
}

func boolPtr(v bool) *bool { return &v }

func datePtr(d projectsvc.Date) *projectsvc.Date { return &d }
