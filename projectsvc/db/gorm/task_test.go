package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/ichigozero/projectkit/projectsvc"
	"github.com/stretchr/testify/require"
)

func TestTaskRepositoryCreateRequiresOwnedProject(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	foreign := mustCreateProject(t, projects, bob, "Bob's")

	_, err := tasks.Create(ctx, alice, projectsvc.TaskInput{ProjectID: foreign.ID, Title: "sneaky"})
	require.ErrorIs(t, err, projectsvc.ErrForbidden)

	_, err = tasks.Create(ctx, alice, projectsvc.TaskInput{ProjectID: 9999, Title: "nowhere"})
	require.ErrorIs(t, err, projectsvc.ErrForbidden)

	var count int64
	require.NoError(t, db.Model(&projectsvc.Task{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTaskRepositoryAttachesProject(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	home := mustCreateProject(t, projects, alice, "Home")
	due := projectsvc.NewDate(2024, time.March, 1)
	task := mustCreateTask(t, tasks, alice, home.ID, "Buy milk", &due)

	require.NotNil(t, task.Project)
	require.Equal(t, home.ID, task.Project.ID)
	require.Equal(t, "Home", task.Project.Name)
	require.NotNil(t, task.DueDate)
	require.Equal(t, "2024-03-01", task.DueDate.String())

	got, err := tasks.Find(ctx, alice, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Buy milk", got.Title)
	require.NotNil(t, got.Project)

	_, err = tasks.Find(ctx, bob, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	ok, err := tasks.OwnsTask(ctx, bob, task.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTaskRepositoryFindAllNullsLast(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	home := mustCreateProject(t, projects, alice, "Home")
	march := mustCreateTask(t, tasks, alice, home.ID, "march", datePtr(projectsvc.NewDate(2024, time.March, 1)))
	undated := mustCreateTask(t, tasks, alice, home.ID, "undated", nil)
	january := mustCreateTask(t, tasks, alice, home.ID, "january", datePtr(projectsvc.NewDate(2024, time.January, 15)))

	list, total, err := tasks.FindAll(ctx, alice, projectsvc.TaskFilter{}, projectsvc.PageRequest(1))
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, []uint64{january.ID, march.ID, undated.ID}, []uint64{list[0].ID, list[1].ID, list[2].ID})
	for _, task := range list {
		require.NotNil(t, task.Project)
		require.Equal(t, home.ID, task.Project.ID)
	}
}

func TestTaskRepositoryFindAllFilters(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	home := mustCreateProject(t, projects, alice, "Home")
	work := mustCreateProject(t, projects, alice, "Work")
	other := mustCreateProject(t, projects, bob, "Bob's")

	day := projectsvc.NewDate(2024, time.March, 1)
	a := mustCreateTask(t, tasks, alice, home.ID, "a", &day)
	mustCreateTask(t, tasks, alice, home.ID, "b", datePtr(day.Next()))
	c := mustCreateTask(t, tasks, alice, work.ID, "c", &day)
	mustCreateTask(t, tasks, bob, other.ID, "d", &day)

	_, err := tasks.ToggleCompleted(ctx, alice, c.ID)
	require.NoError(t, err)

	ids := func(list []projectsvc.Task) []uint64 {
		out := make([]uint64, len(list))
		for i, task := range list {
			out[i] = task.ID
		}
		return out
	}

	list, total, err := tasks.FindAll(ctx, alice, projectsvc.TaskFilter{DueDate: &day}, projectsvc.PageRequest(1))
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.ElementsMatch(t, []uint64{a.ID, c.ID}, ids(list))

	list, _, err = tasks.FindAll(ctx, alice, projectsvc.TaskFilter{DueDate: &day, IsCompleted: boolPtr(true)}, projectsvc.PageRequest(1))
	require.NoError(t, err)
	require.Equal(t, []uint64{c.ID}, ids(list))

	list, _, err = tasks.FindAll(ctx, alice, projectsvc.TaskFilter{ProjectID: &home.ID, DueDate: &day}, projectsvc.PageRequest(1))
	require.NoError(t, err)
	require.Equal(t, []uint64{a.ID}, ids(list))

	list, total, err = tasks.FindAll(ctx, alice, projectsvc.TaskFilter{ProjectID: &other.ID}, projectsvc.PageRequest(1))
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)
}

func TestTaskRepositoryPagination(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	home := mustCreateProject(t, projects, alice, "Home")
	for i := 0; i < 40; i++ {
		mustCreateTask(t, tasks, alice, home.ID, "task", nil)
	}

	for _, tc := range []struct {
		page int
		want int
	}{{1, 15}, {2, 15}, {3, 10}, {4, 0}} {
		list, total, err := tasks.FindAll(ctx, alice, projectsvc.TaskFilter{}, projectsvc.PageRequest(tc.page))
		require.NoError(t, err)
		require.EqualValues(t, 40, total)
		require.Len(t, list, tc.want, "page %d", tc.page)
	}
}

func TestTaskRepositoryUpdateMovesOnlyBetweenOwnedProjects(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	home := mustCreateProject(t, projects, alice, "Home")
	work := mustCreateProject(t, projects, alice, "Work")
	foreign := mustCreateProject(t, projects, bob, "Bob's")
	task := mustCreateTask(t, tasks, alice, home.ID, "Buy milk", nil)

	_, err := tasks.Update(ctx, alice, task.ID, projectsvc.TaskInput{ProjectID: foreign.ID, Title: "Buy milk"})
	require.ErrorIs(t, err, projectsvc.ErrForbidden)

	got, err := tasks.Find(ctx, alice, task.ID)
	require.NoError(t, err)
	require.Equal(t, home.ID, got.ProjectID)

	// both checks fail: the task is resolved first
	_, err = tasks.Update(ctx, bob, task.ID, projectsvc.TaskInput{ProjectID: home.ID, Title: "x"})
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	due := projectsvc.NewDate(2024, time.January, 15)
	moved, err := tasks.Update(ctx, alice, task.ID, projectsvc.TaskInput{ProjectID: work.ID, Title: "Buy oat milk", DueDate: &due})
	require.NoError(t, err)
	require.Equal(t, work.ID, moved.ProjectID)
	require.Equal(t, work.ID, moved.Project.ID)
	require.Equal(t, "Buy oat milk", moved.Title)
	require.Equal(t, "2024-01-15", moved.DueDate.String())
	require.False(t, moved.IsCompleted)

	ok, err := projects.OwnsProject(ctx, alice, moved.ProjectID)
	require.NoError(t, err)
	require.True(t, ok)

	cleared, err := tasks.Update(ctx, alice, task.ID, projectsvc.TaskInput{ProjectID: work.ID, Title: "Buy oat milk", IsCompleted: boolPtr(true)})
	require.NoError(t, err)
	require.Nil(t, cleared.DueDate)
	require.True(t, cleared.IsCompleted)
}

func TestTaskRepositoryToggleAndDelete(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	home := mustCreateProject(t, projects, alice, "Home")
	task := mustCreateTask(t, tasks, alice, home.ID, "Buy milk", nil)

	toggled, err := tasks.ToggleCompleted(ctx, alice, task.ID)
	require.NoError(t, err)
	require.True(t, toggled.IsCompleted)

	toggled, err = tasks.ToggleCompleted(ctx, alice, task.ID)
	require.NoError(t, err)
	require.False(t, toggled.IsCompleted)

	_, err = tasks.ToggleCompleted(ctx, bob, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)

	require.ErrorIs(t, tasks.Delete(ctx, bob, task.ID), projectsvc.ErrNotFound)
	require.NoError(t, tasks.Delete(ctx, alice, task.ID))

	_, err = tasks.Find(ctx, alice, task.ID)
	require.ErrorIs(t, err, projectsvc.ErrNotFound)
}
