package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectService recomputes the project-level rollup from the project's
// task set. It always re-reads the tasks instead of trusting cached
// counts, so the stored progress can never drift from the tasks.
type ProjectService struct {
	projects ProjectStore
	tasks    TaskStore
}

func NewProjectService(projects ProjectStore, tasks TaskStore) *ProjectService {
	return &ProjectService{projects: projects, tasks: tasks}
}

// RecalculateProgress sets the project progress to the rounded share of
// completed tasks and persists it. A project without tasks sits at 0.
func (s *ProjectService) RecalculateProgress(ctx context.Context, projectID primitive.ObjectID) (int, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if project == nil {
		return 0, fmt.Errorf("%w: project", ErrNotFound)
	}

	tasks, err := s.tasks.FindByProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	progress := 0
	if len(tasks) > 0 {
		completed := 0
		for _, t := range tasks {
			if t.Status == models.StatusCompleted {
				completed++
			}
		}
		progress = int(math.Round(float64(completed) / float64(len(tasks)) * 100))
	}

	project.Progress = progress
	project.UpdatedAt = time.Now()
	if err := s.projects.Save(ctx, project); err != nil {
		return 0, err
	}
	return progress, nil
}

// GetStatistics builds the per-project statistics view from the current
// task set.
func (s *ProjectService) GetStatistics(ctx context.Context, projectID primitive.ObjectID) (*models.ProjectStatistics, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}

	tasks, err := s.tasks.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	stats := &models.ProjectStatistics{
		TotalTasks:    len(tasks),
		Progress:      project.Progress,
		TeamSize:      len(project.TeamMembers),
		HasClient:     project.Client != nil,
		DaysRemaining: project.DaysRemaining(),
	}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			stats.CompletedTasks++
		case models.StatusSubmitted, models.StatusPMReviewed, models.StatusClientReviewed:
			stats.InProgressTasks++
		case models.StatusInitiated:
			stats.PendingTasks++
		case models.StatusRejected:
			stats.RejectedTasks++
		}
	}
	return stats, nil
}
