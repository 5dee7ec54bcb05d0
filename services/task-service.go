package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskService owns the task review workflow: who may move a task, which
// transitions are legal from the current status, and keeping the derived
// progress values in step with every mutation.
type TaskService struct {
	tasks      TaskStore
	projects   ProjectStore
	storage    FileStorage
	notifier   Notifier
	aggregator *ProjectService
}

func NewTaskService(tasks TaskStore, projects ProjectStore, fileStorage FileStorage, notifier Notifier, aggregator *ProjectService) *TaskService {
	return &TaskService{
		tasks:      tasks,
		projects:   projects,
		storage:    fileStorage,
		notifier:   notifier,
		aggregator: aggregator,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	ProjectID   primitive.ObjectID
	AssignedTo  *primitive.ObjectID
	Priority    models.TaskPriority
	DueDate     *time.Time
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *primitive.ObjectID
}

// CreateTask creates a task in the initiated state. Only the project's
// manager or an admin may create; an assignee must be on the project team.
// The first task of a project moves the project into in_progress.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput, actor models.User) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrValidation)
	}

	project, err := s.projects.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}

	if !actor.IsAdmin() && project.ProjectManager != actor.ID {
		return nil, fmt.Errorf("%w: only project manager or admin can create tasks", ErrForbidden)
	}

	if input.AssignedTo != nil && !project.HasTeamMember(*input.AssignedTo) {
		return nil, ErrInvalidAssignee
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := time.Now()
	task := &models.Task{
		ID:           primitive.NewObjectID(),
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Project:      project.ID,
		AssignedTo:   input.AssignedTo,
		AssignedBy:   actor.ID,
		Status:       models.StatusInitiated,
		Priority:     priority,
		DueDate:      input.DueDate,
		PMRating:     models.RatingPending,
		ClientRating: models.RatingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	task.CalculateProgress()

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, err
	}

	if input.AssignedTo != nil {
		message := fmt.Sprintf("You have been assigned a new task: %s", task.Title)
		if err := s.notifier.Notify(ctx, *input.AssignedTo, models.NotificationTaskAssigned, "New Task Assigned", message, project.ID, task.ID); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFY_FAILED, Description: Failed to send task assignment notification for task %s: %v", task.ID.Hex(), err)
		}
	}

	if project.Status == models.ProjectNotStarted {
		project.Status = models.ProjectInProgress
		project.StartDate = &now
		project.UpdatedAt = now
		if err := s.projects.Save(ctx, project); err != nil {
			return nil, err
		}
	}

	if _, err := s.aggregator.RecalculateProgress(ctx, project.ID); err != nil {
		return nil, err
	}

	return task, nil
}

// SubmitWork attaches a submission to the task and moves it to submitted.
// A resubmission replaces the bundle: the previously stored files are
// deleted from storage first, each one best-effort.
func (s *TaskService) SubmitWork(ctx context.Context, taskID primitive.ObjectID, work string, uploads []FileUpload, actor models.User) (*models.Task, error) {
	if strings.TrimSpace(work) == "" {
		return nil, fmt.Errorf("%w: work description is required", ErrValidation)
	}

	task, project, err := s.loadTaskAndProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	isAssigned := task.AssignedTo != nil && *task.AssignedTo == actor.ID
	isPM := project.ProjectManager == actor.ID
	isClient := project.IsClient(actor.ID)
	if !isAssigned && !isPM && !isClient && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only assigned team member, project manager, client, or admin can submit work", ErrForbidden)
	}

	newFiles := make([]models.SubmissionFile, 0, len(uploads))
	for _, up := range uploads {
		result, err := s.storage.Upload(ctx, up.Data, up.OriginalName, up.MimeType)
		if err != nil {
			// Nothing has been persisted yet; drop what was already stored.
			for _, stored := range newFiles {
				if delErr := s.storage.Delete(ctx, stored.PublicID); delErr != nil {
					logging.Logger.Errorf("Event ID: UPLOAD_ROLLBACK_FAILED, Description: Failed to delete partially uploaded file %s: %v", stored.PublicID, delErr)
				}
			}
			return nil, fmt.Errorf("failed to store submission file %s: %v", up.OriginalName, err)
		}
		size := result.Size
		if size == 0 {
			size = int64(len(up.Data))
		}
		newFiles = append(newFiles, models.SubmissionFile{
			Filename:     result.PublicID,
			OriginalName: up.OriginalName,
			Path:         result.URL,
			PublicID:     result.PublicID,
			Size:         size,
			MimeType:     up.MimeType,
		})
	}

	if task.HasSubmissionFiles() {
		for _, old := range task.Submission.Files {
			if old.PublicID == "" {
				continue
			}
			if err := s.storage.Delete(ctx, old.PublicID); err != nil {
				logging.Logger.Errorf("Event ID: OLD_SUBMISSION_DELETE_FAILED, Description: Failed to delete old submission file %s: %v", old.PublicID, err)
			}
		}
	}

	now := time.Now()
	task.Status = models.StatusSubmitted
	task.Submission = &models.Submission{
		Work:        work,
		Files:       newFiles,
		SubmittedAt: now,
	}
	task.SubmittedAt = &now
	task.CalculateProgress()
	task.UpdatedAt = now

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	recipients := []primitive.ObjectID{project.ProjectManager}
	if project.Client != nil {
		recipients = append(recipients, *project.Client)
	}
	message := fmt.Sprintf("Task %q has been submitted for review", task.Title)
	if err := s.notifier.NotifyAll(ctx, recipients, models.NotificationTaskSubmitted, "Task Submitted", message, project.ID, task.ID); err != nil {
		logging.Logger.Warnf("Event ID: NOTIFY_FAILED, Description: Failed to send task submission notifications for task %s: %v", task.ID.Hex(), err)
	}

	return task, nil
}

// ReviewTask applies a PM or client review. The PM reviews a submitted
// task; the client only reviews after the PM has approved. An admin takes
// the PM branch, and additionally the client branch when the task stands
// at pm_reviewed with an approved PM rating. A client-approved review
// completes the task immediately.
func (s *TaskService) ReviewTask(ctx context.Context, taskID primitive.ObjectID, rating models.Rating, feedback string, actor models.User) (*models.Task, error) {
	if rating != models.RatingApproved && rating != models.RatingRejected {
		return nil, fmt.Errorf("%w: rating must be approved or rejected", ErrValidation)
	}

	task, project, err := s.loadTaskAndProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	isPM := project.ProjectManager == actor.ID
	isClient := project.IsClient(actor.ID)
	isAdmin := actor.IsAdmin()
	if !isPM && !isClient && !isAdmin {
		return nil, fmt.Errorf("%w: only PM, client, or admin can review tasks", ErrForbidden)
	}

	if isPM || isAdmin {
		if !task.CanBeReviewedByPM() {
			return nil, fmt.Errorf("%w: task is not in a state for PM review", ErrInvalidState)
		}
		task.PMRating = rating
		task.PMFeedback = feedback
		if rating == models.RatingApproved {
			task.Status = models.StatusPMReviewed
		} else {
			task.Status = models.StatusRejected
		}
	}

	if isClient || (isAdmin && task.Status == models.StatusPMReviewed && task.PMRating == models.RatingApproved) {
		if !task.CanBeReviewedByClient() {
			return nil, fmt.Errorf("%w: task must be approved by PM before client review", ErrInvalidState)
		}
		task.ClientRating = rating
		task.ClientFeedback = feedback
		if rating == models.RatingApproved {
			task.Status = models.StatusClientReviewed
		} else {
			task.Status = models.StatusRejected
		}
	}

	if task.Status == models.StatusClientReviewed && task.ClientRating == models.RatingApproved {
		task.Status = models.StatusCompleted
	}

	task.CalculateProgress()
	task.UpdatedAt = time.Now()

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	if _, err := s.aggregator.RecalculateProgress(ctx, project.ID); err != nil {
		return nil, err
	}

	if task.AssignedTo != nil {
		reviewer := "client"
		if isPM {
			reviewer = "PM"
		}
		message := fmt.Sprintf("Your task %q has been %s by %s", task.Title, rating, reviewer)
		if err := s.notifier.Notify(ctx, *task.AssignedTo, models.NotificationTaskReviewed, "Task Reviewed", message, project.ID, task.ID); err != nil {
			logging.Logger.Warnf("Event ID: NOTIFY_FAILED, Description: Failed to send task review notification for task %s: %v", task.ID.Hex(), err)
		}
	}

	return task, nil
}

// UpdateTask applies a partial update of the editable fields. It never
// touches status, ratings, or progress.
func (s *TaskService) UpdateTask(ctx context.Context, taskID primitive.ObjectID, input UpdateTaskInput, actor models.User) (*models.Task, error) {
	task, project, err := s.loadTaskAndProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && project.ProjectManager != actor.ID {
		return nil, fmt.Errorf("%w: only project manager can update tasks", ErrForbidden)
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.AssignedTo != nil {
		if !project.HasTeamMember(*input.AssignedTo) {
			return nil, ErrInvalidAssignee
		}
		task.AssignedTo = input.AssignedTo
	}
	task.UpdatedAt = time.Now()

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes the task and its stored submission files. Storage
// deletions are attempted per file and never block the task deletion. The
// project rollup is recomputed afterwards.
func (s *TaskService) DeleteTask(ctx context.Context, taskID primitive.ObjectID, actor models.User) error {
	task, project, err := s.loadTaskAndProject(ctx, taskID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() && project.ProjectManager != actor.ID {
		return fmt.Errorf("%w: only project manager or admin can delete tasks", ErrForbidden)
	}

	if task.HasSubmissionFiles() {
		for _, file := range task.Submission.Files {
			if file.PublicID == "" {
				continue
			}
			if err := s.storage.Delete(ctx, file.PublicID); err != nil {
				logging.Logger.Errorf("Event ID: TASK_FILE_DELETE_FAILED, Description: Failed to delete task file %s: %v", file.PublicID, err)
			}
		}
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}

	if _, err := s.aggregator.RecalculateProgress(ctx, project.ID); err != nil {
		return err
	}
	return nil
}

// DeleteSubmissionFiles deletes every stored submission file of the task
// and clears the list. Each deletion is attempted independently; failures
// are collected into the report, and entries that did delete stay deleted.
func (s *TaskService) DeleteSubmissionFiles(ctx context.Context, taskID primitive.ObjectID, actor models.User) (*DeletionReport, error) {
	task, project, err := s.loadTaskAndProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	isAssigned := task.AssignedTo != nil && *task.AssignedTo == actor.ID
	if !isAssigned && project.ProjectManager != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	if !task.HasSubmissionFiles() {
		return nil, fmt.Errorf("%w: no submission files to delete", ErrNotFound)
	}

	report := &DeletionReport{}
	for _, file := range task.Submission.Files {
		if file.PublicID == "" {
			continue
		}
		if err := s.storage.Delete(ctx, file.PublicID); err != nil {
			logging.Logger.Errorf("Event ID: SUBMISSION_FILE_DELETE_FAILED, Description: Failed to delete submission file %s: %v", file.PublicID, err)
			report.Failed = append(report.Failed, FailedDeletion{Name: file.OriginalName, Error: err.Error()})
			continue
		}
		report.Successful = append(report.Successful, file.OriginalName)
	}

	task.Submission.Files = nil
	task.UpdatedAt = time.Now()
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	return report, nil
}

// GetTask returns a task after checking the actor's relation to it.
func (s *TaskService) GetTask(ctx context.Context, taskID primitive.ObjectID, actor models.User) (*models.Task, error) {
	task, project, err := s.loadTaskAndProject(ctx, taskID)
	if err != nil {
		return nil, err
	}

	isAssigned := task.AssignedTo != nil && *task.AssignedTo == actor.ID
	hasAccess := actor.IsAdmin() ||
		project.ProjectManager == actor.ID ||
		project.IsClient(actor.ID) ||
		isAssigned ||
		project.HasTeamMember(actor.ID)
	if !hasAccess {
		return nil, ErrForbidden
	}

	return task, nil
}

// ListTasks returns the tasks visible to the actor: admins see everything
// (optionally narrowed to one project), project managers the tasks of
// their projects, team members their own assignments, clients the tasks of
// their projects.
func (s *TaskService) ListTasks(ctx context.Context, actor models.User, projectID *primitive.ObjectID) ([]models.Task, error) {
	switch actor.Role {
	case models.RoleAdmin:
		if projectID != nil {
			return s.tasks.FindByProject(ctx, *projectID)
		}
		return s.tasks.FindAll(ctx)
	case models.RoleProjectManager:
		projects, err := s.projects.FindByManager(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return s.tasks.FindByProjects(ctx, projectIDs(projects))
	case models.RoleTeamMember:
		return s.tasks.FindByAssignee(ctx, actor.ID)
	case models.RoleClient:
		projects, err := s.projects.FindByClient(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return s.tasks.FindByProjects(ctx, projectIDs(projects))
	}
	return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
}

func projectIDs(projects []models.Project) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

// loadTaskAndProject reads the task and then its owning project, each by
// id. The project is never mutated through the task document.
func (s *TaskService) loadTaskAndProject(ctx context.Context, taskID primitive.ObjectID) (*models.Task, *models.Project, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task == nil {
		return nil, nil, fmt.Errorf("%w: task", ErrNotFound)
	}

	project, err := s.projects.FindByID(ctx, task.Project)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, fmt.Errorf("%w: project", ErrNotFound)
	}

	return task, project, nil
}
