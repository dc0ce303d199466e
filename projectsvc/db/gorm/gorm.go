package gorm

import (
	"errors"
	"fmt"

	"github.com/ichigozero/projectkit/projectsvc"
	stdgorm "gorm.io/gorm"
)

// Migrate creates the projects and tasks tables together with the
// tasks.project_id foreign key.
func Migrate(db *stdgorm.DB) error {
	if err := db.AutoMigrate(&projectsvc.Project{}, &projectsvc.Task{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, stdgorm.ErrRecordNotFound) {
		return projectsvc.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
