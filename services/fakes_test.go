package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes for the persistence, storage, and notification ports.
// Find methods hand out copies so a service mutation only becomes visible
// after an explicit Save, like with a real document store.

type fakeTaskStore struct {
	tasks map[primitive.ObjectID]*models.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[primitive.ObjectID]*models.Task)}
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	if t.Submission != nil {
		s := *t.Submission
		s.Files = append([]models.SubmissionFile(nil), t.Submission.Files...)
		c.Submission = &s
	}
	return &c
}

func (f *fakeTaskStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	return copyTask(t), nil
}

func (f *fakeTaskStore) FindByProject(_ context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		if t.Project == projectID {
			out = append(out, *copyTask(t))
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindByProjects(_ context.Context, projectIDs []primitive.ObjectID) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		for _, id := range projectIDs {
			if t.Project == id {
				out = append(out, *copyTask(t))
				break
			}
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindByAssignee(_ context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		if t.AssignedTo != nil && *t.AssignedTo == userID {
			out = append(out, *copyTask(t))
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindAll(_ context.Context) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.tasks {
		out = append(out, *copyTask(t))
	}
	return out, nil
}

func (f *fakeTaskStore) Insert(_ context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTaskStore) Save(_ context.Context, task *models.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return fmt.Errorf("task not found for save")
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.tasks[id]; !ok {
		return fmt.Errorf("task not found for deletion")
	}
	delete(f.tasks, id)
	return nil
}

type fakeProjectStore struct {
	projects map[primitive.ObjectID]*models.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{projects: make(map[primitive.ObjectID]*models.Project)}
}

func copyProject(p *models.Project) *models.Project {
	c := *p
	c.TeamMembers = append([]primitive.ObjectID(nil), p.TeamMembers...)
	return &c
}

func (f *fakeProjectStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	return copyProject(p), nil
}

func (f *fakeProjectStore) FindByManager(_ context.Context, managerID primitive.ObjectID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if p.ProjectManager == managerID {
			out = append(out, *copyProject(p))
		}
	}
	return out, nil
}

func (f *fakeProjectStore) FindByClient(_ context.Context, clientID primitive.ObjectID) ([]models.Project, error) {
	var out []models.Project
	for _, p := range f.projects {
		if p.Client != nil && *p.Client == clientID {
			out = append(out, *copyProject(p))
		}
	}
	return out, nil
}

func (f *fakeProjectStore) Save(_ context.Context, project *models.Project) error {
	f.projects[project.ID] = copyProject(project)
	return nil
}

type fakeFileStore struct {
	files map[primitive.ObjectID]*models.File
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[primitive.ObjectID]*models.File)}
}

func (f *fakeFileStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	c := *file
	return &c, nil
}

func (f *fakeFileStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.File, error) {
	var out []models.File
	for _, id := range ids {
		if file, ok := f.files[id]; ok {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFileStore) FindByProject(_ context.Context, projectID primitive.ObjectID) ([]models.File, error) {
	var out []models.File
	for _, file := range f.files {
		if file.Project == projectID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFileStore) Insert(_ context.Context, file *models.File) error {
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	c := *file
	f.files[file.ID] = &c
	return nil
}

func (f *fakeFileStore) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.files, id)
	return nil
}

type fakeStorage struct {
	counter    int
	uploads    []string
	deleted    []string
	failDelete map[string]bool
	failUpload bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{failDelete: make(map[string]bool)}
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, originalName, _ string) (*storage.UploadResult, error) {
	if f.failUpload {
		return nil, errors.New("storage unavailable")
	}
	f.counter++
	publicID := fmt.Sprintf("stored/%s-%d", originalName, f.counter)
	f.uploads = append(f.uploads, publicID)
	return &storage.UploadResult{
		PublicID: publicID,
		URL:      "https://files.example.com/" + publicID,
		Size:     int64(len(data)),
	}, nil
}

func (f *fakeStorage) Delete(_ context.Context, publicID string) error {
	if f.failDelete[publicID] {
		return errors.New("delete failed")
	}
	f.deleted = append(f.deleted, publicID)
	return nil
}

func (f *fakeStorage) deletedCount(publicID string) int {
	count := 0
	for _, id := range f.deleted {
		if id == publicID {
			count++
		}
	}
	return count
}

type sentNotification struct {
	Recipient primitive.ObjectID
	Kind      models.NotificationKind
	Title     string
	Message   string
}

type fakeNotifier struct {
	sent []sentNotification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID primitive.ObjectID, kind models.NotificationKind, title, message string, _, _ primitive.ObjectID) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotification{Recipient: recipientID, Kind: kind, Title: title, Message: message})
	return nil
}

func (f *fakeNotifier) NotifyAll(ctx context.Context, recipientIDs []primitive.ObjectID, kind models.NotificationKind, title, message string, projectID, taskID primitive.ObjectID) error {
	var lastErr error
	for _, id := range recipientIDs {
		if err := f.Notify(ctx, id, kind, title, message, projectID, taskID); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
