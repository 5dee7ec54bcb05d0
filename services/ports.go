package services

import (
	"context"

	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStore is the persistence port for tasks. FindByID returns (nil, nil)
// when the task does not exist.
type TaskStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error)
	FindByProjects(ctx context.Context, projectIDs []primitive.ObjectID) ([]models.Task, error)
	FindByAssignee(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error)
	FindAll(ctx context.Context) ([]models.Task, error)
	Insert(ctx context.Context, task *models.Task) error
	Save(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProjectStore is the persistence port for projects. FindByID returns
// (nil, nil) when the project does not exist.
type ProjectStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	FindByManager(ctx context.Context, managerID primitive.ObjectID) ([]models.Project, error)
	FindByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.Project, error)
	Save(ctx context.Context, project *models.Project) error
}

// FileStore is the persistence port for project file records.
type FileStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.File, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.File, error)
	FindByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.File, error)
	Insert(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// FileStorage is the storage provider port: store bytes, delete by handle.
type FileStorage interface {
	Upload(ctx context.Context, data []byte, originalName, mimeType string) (*storage.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

// Notifier delivers notifications to users. Callers treat every delivery
// as best-effort: failures are logged and dropped, never propagated.
type Notifier interface {
	Notify(ctx context.Context, recipientID primitive.ObjectID, kind models.NotificationKind, title, message string, projectID, taskID primitive.ObjectID) error
	NotifyAll(ctx context.Context, recipientIDs []primitive.ObjectID, kind models.NotificationKind, title, message string, projectID, taskID primitive.ObjectID) error
}

// UserDirectory resolves user ids to profiles, read-only.
type UserDirectory interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// FileUpload is an inbound file attachment before it reaches storage.
type FileUpload struct {
	Data         []byte
	OriginalName string
	MimeType     string
}

// FailedDeletion reports one storage deletion that did not go through.
type FailedDeletion struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// DeletionReport aggregates per-file outcomes of a multi-file deletion.
// A partial failure is information, not an error.
type DeletionReport struct {
	Successful []string         `json:"successful"`
	Failed     []FailedDeletion `json:"failed"`
}
