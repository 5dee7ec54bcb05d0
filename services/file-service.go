package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/logging"
	"github.com/SamMuaks2/projectsandtasks-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FileService manages project attachments: the bytes go to the storage
// provider, the metadata record into the file store.
type FileService struct {
	files    FileStore
	projects ProjectStore
	storage  FileStorage
}

func NewFileService(files FileStore, projects ProjectStore, fileStorage FileStorage) *FileService {
	return &FileService{files: files, projects: projects, storage: fileStorage}
}

// Upload stores a file for a project and records it. Anyone attached to
// the project (admin, PM, client, team member) may upload.
func (s *FileService) Upload(ctx context.Context, projectID primitive.ObjectID, upload FileUpload, description string, actor models.User) (*models.File, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}

	if !hasProjectAccess(project, actor) {
		return nil, fmt.Errorf("%w: you do not have permission to upload files to this project", ErrForbidden)
	}

	result, err := s.storage.Upload(ctx, upload.Data, upload.OriginalName, upload.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file %s: %v", upload.OriginalName, err)
	}

	size := result.Size
	if size == 0 {
		size = int64(len(upload.Data))
	}
	record := &models.File{
		ID:           primitive.NewObjectID(),
		Filename:     result.PublicID,
		OriginalName: upload.OriginalName,
		Path:         result.URL,
		PublicID:     result.PublicID,
		Size:         size,
		MimeType:     upload.MimeType,
		Project:      project.ID,
		UploadedBy:   actor.ID,
		Category:     models.FileCategoryFor(upload.MimeType, upload.OriginalName),
		Description:  description,
		CreatedAt:    time.Now(),
	}

	if err := s.files.Insert(ctx, record); err != nil {
		// The record failed to persist, so the stored bytes are orphaned.
		if delErr := s.storage.Delete(ctx, record.PublicID); delErr != nil {
			logging.Logger.Errorf("Event ID: FILE_ORPHAN_CLEANUP_FAILED, Description: Failed to delete orphaned file %s: %v", record.PublicID, delErr)
		}
		return nil, err
	}
	return record, nil
}

// ListByProject returns the project's file records, newest first.
func (s *FileService) ListByProject(ctx context.Context, projectID primitive.ObjectID, actor models.User) ([]models.File, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if !hasProjectAccess(project, actor) {
		return nil, ErrForbidden
	}
	return s.files.FindByProject(ctx, projectID)
}

// Get returns one file record after checking project access.
func (s *FileService) Get(ctx context.Context, fileID primitive.ObjectID, actor models.User) (*models.File, error) {
	file, project, err := s.loadFileAndProject(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !hasProjectAccess(project, actor) {
		return nil, ErrForbidden
	}
	return file, nil
}

// Delete removes a file from storage and drops its record. Only an admin,
// the project manager, or the uploader may delete. A storage failure is
// logged and does not keep the record around.
func (s *FileService) Delete(ctx context.Context, fileID primitive.ObjectID, actor models.User) error {
	file, project, err := s.loadFileAndProject(ctx, fileID)
	if err != nil {
		return err
	}

	if !canDeleteFile(project, file, actor) {
		return ErrForbidden
	}

	if file.PublicID != "" {
		if err := s.storage.Delete(ctx, file.PublicID); err != nil {
			logging.Logger.Errorf("Event ID: FILE_DELETE_FAILED, Description: Failed to delete file %s from storage: %v", file.PublicID, err)
		}
	}

	return s.files.Delete(ctx, file.ID)
}

// BulkDelete deletes a batch of files, each attempted independently, and
// reports per-file outcomes. Access is checked for every file before any
// deletion starts.
func (s *FileService) BulkDelete(ctx context.Context, fileIDs []primitive.ObjectID, actor models.User) (*DeletionReport, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("%w: no file IDs provided", ErrValidation)
	}

	files, err := s.files.FindByIDs(ctx, fileIDs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: files", ErrNotFound)
	}

	projects := make(map[primitive.ObjectID]*models.Project)
	for i := range files {
		file := &files[i]
		project, ok := projects[file.Project]
		if !ok {
			project, err = s.projects.FindByID(ctx, file.Project)
			if err != nil {
				return nil, err
			}
			projects[file.Project] = project
		}
		if project == nil {
			continue
		}
		if !canDeleteFile(project, file, actor) {
			return nil, fmt.Errorf("%w: access denied for file: %s", ErrForbidden, file.OriginalName)
		}
	}

	report := &DeletionReport{}
	for i := range files {
		file := &files[i]
		if file.PublicID != "" {
			if err := s.storage.Delete(ctx, file.PublicID); err != nil {
				logging.Logger.Errorf("Event ID: FILE_DELETE_FAILED, Description: Failed to delete file %s from storage: %v", file.PublicID, err)
				report.Failed = append(report.Failed, FailedDeletion{Name: file.OriginalName, Error: err.Error()})
				continue
			}
		}
		if err := s.files.Delete(ctx, file.ID); err != nil {
			report.Failed = append(report.Failed, FailedDeletion{Name: file.OriginalName, Error: err.Error()})
			continue
		}
		report.Successful = append(report.Successful, file.OriginalName)
	}
	return report, nil
}

func (s *FileService) loadFileAndProject(ctx context.Context, fileID primitive.ObjectID) (*models.File, *models.Project, error) {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if file == nil {
		return nil, nil, fmt.Errorf("%w: file", ErrNotFound)
	}

	project, err := s.projects.FindByID(ctx, file.Project)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	return file, project, nil
}

func hasProjectAccess(project *models.Project, actor models.User) bool {
	return actor.IsAdmin() ||
		project.ProjectManager == actor.ID ||
		project.IsClient(actor.ID) ||
		project.HasTeamMember(actor.ID)
}

func canDeleteFile(project *models.Project, file *models.File, actor models.User) bool {
	return actor.IsAdmin() ||
		project.ProjectManager == actor.ID ||
		file.UploadedBy == actor.ID
}
