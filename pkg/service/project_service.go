// Workspace project service - grouping conversations
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/parleyhq/parley/pkg/db"
	"gorm.io/gorm"
)

var ErrEmptyProjectName = errors.New("project name must not be empty")

// ProjectService handles project CRUD and the cascades that keep projects
// and conversations consistent.
type ProjectService struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(gdb *gorm.DB, logger *slog.Logger) *ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{db: gdb, logger: logger}
}

// ListProjects returns all projects with their active-conversation counts.
func (s *ProjectService) ListProjects() ([]db.Project, error) {
	var projects []db.Project
	if err := s.db.Order("created_at ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	if err := s.fillConversationCounts(projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project.
func (s *ProjectService) CreateProject(name string) (*db.Project, error) {
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	project := &db.Project{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := s.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject retrieves a project by ID with its count filled in.
func (s *ProjectService) GetProject(id string) (*db.Project, error) {
	var project db.Project
	if err := s.db.First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	var count int64
	if err := s.db.Model(&db.Conversation{}).
		Where("project_id = ? AND archived_at IS NULL", id).
		Count(&count).Error; err != nil {
		return nil, err
	}
	project.ConversationCount = int(count)
	return &project, nil
}

// RenameProject renames a project.
func (s *ProjectService) RenameProject(id, name string) (*db.Project, error) {
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	if _, err := s.GetProject(id); err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Project{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return s.GetProject(id)
}

// DeleteProject deletes a project and cascade-deletes every conversation
// assigned to it, archived or not, along with their messages.
func (s *ProjectService) DeleteProject(id string) error {
	if _, err := s.GetProject(id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&db.Conversation{}).Where("project_id = ?", id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("conversation_id IN ?", ids).Delete(&db.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&db.Conversation{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&db.Project{}, "id = ?", id).Error
	})
}

// DeleteAllProjects deletes every project and cascade-deletes every
// conversation that referenced one, returning the number of projects
// removed. Project-less conversations are untouched.
func (s *ProjectService) DeleteAllProjects() (int, error) {
	var projectCount int64
	if err := s.db.Model(&db.Project{}).Count(&projectCount).Error; err != nil {
		return 0, err
	}
	if projectCount == 0 {
		return 0, nil
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&db.Conversation{}).Where("project_id IS NOT NULL").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.Where("conversation_id IN ?", ids).Delete(&db.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", ids).Delete(&db.Conversation{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("1 = 1").Delete(&db.Project{}).Error
	})
	if err != nil {
		return 0, err
	}
	return int(projectCount), nil
}

func (s *ProjectService) fillConversationCounts(projects []db.Project) error {
	if len(projects) == 0 {
		return nil
	}
	var rows []struct {
		ProjectID string
		N         int
	}
	if err := s.db.Model(&db.Conversation{}).
		Select("project_id, count(*) as n").
		Where("project_id IS NOT NULL AND archived_at IS NULL").
		Group("project_id").
		Scan(&rows).Error; err != nil {
		return err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ProjectID] = r.N
	}
	for i := range projects {
		projects[i].ConversationCount = counts[projects[i].ID]
	}
	return nil
}
