package gorm

import (
	"github.com/ichigozero/projectkit/projectsvc"
	stdgorm "gorm.io/gorm"
)

func ownedProjects(ownerID uint64) func(*stdgorm.DB) *stdgorm.DB {
	return func(db *stdgorm.DB) *stdgorm.DB {
		return db.Where("projects.owner_user_id = ?", ownerID)
	}
}

// ownedTasks restricts a tasks query to tasks whose current project belongs
// to ownerID.
func ownedTasks(ownerID uint64) func(*stdgorm.DB) *stdgorm.DB {
	return func(db *stdgorm.DB) *stdgorm.DB {
		return db.
			Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("projects.owner_user_id = ?", ownerID)
	}
}

func ownsProject(db *stdgorm.DB, ownerID, projectID uint64) (bool, error) {
	var count int64
	result := db.Model(&projectsvc.Project{}).
		Scopes(ownedProjects(ownerID)).
		Where("projects.id = ?", projectID).
		Count(&count)

	return count > 0, result.Error
}

func ownsTask(db *stdgorm.DB, ownerID, taskID uint64) (bool, error) {
	var count int64
	result := db.Model(&projectsvc.Task{}).
		Scopes(ownedTasks(ownerID)).
		Where("tasks.id = ?", taskID).
		Count(&count)

	return count > 0, result.Error
}
